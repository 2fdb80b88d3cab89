// Package shell models page navigation as a finite state machine.
package shell

import (
	"fmt"
)

// View is the page currently shown.
type View string

// Views. Home is the initial view.
const (
	Home       View = "home"
	Prediction View = "prediction"
	Results    View = "results"
)

// Initial is the view a new session starts in.
const Initial = Home

// Action is a navigation button.
type Action string

// Actions.
const (
	MakePrediction Action = "make-prediction"
	ViewResults    Action = "view-results"
	ReturnHome     Action = "return-home"
)

type edge struct {
	from View
	act  Action
}

var transitions = map[edge]View{ //nolint:gochecknoglobals // fixed transition table
	{Home, MakePrediction}:   Prediction,
	{Home, ViewResults}:      Results,
	{Prediction, ReturnHome}: Home,
	{Results, ReturnHome}:    Home,
}

// Next returns the view reached from v by act.
func Next(v View, act Action) (View, error) {
	to, ok := transitions[edge{v, act}]
	if !ok {
		return v, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, act, v)
	}
	return to, nil
}

// Actions lists the buttons available on v, in display order.
func Actions(v View) []Action {
	switch v {
	case Home:
		return []Action{MakePrediction, ViewResults}
	case Prediction, Results:
		return []Action{ReturnHome}
	default:
		return nil
	}
}

// ParseView validates a view name.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case Home, Prediction, Results:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
	}
}

// Label is the button caption for act.
func (a Action) Label() string {
	switch a {
	case MakePrediction:
		return "Make Prediction"
	case ViewResults:
		return "View Results"
	case ReturnHome:
		return "Return Home"
	default:
		return string(a)
	}
}

// Title is the page heading for v.
func (v View) Title() string {
	switch v {
	case Prediction:
		return "Prediction Dashboard"
	case Results:
		return "Model Analytics"
	default:
		return "Smart Fraud Detection with Gradient Boosting"
	}
}
