// Package evaluation scores a labelled test set and summarises the
// classifier's performance: classification report, confusion matrix and ROC.
package evaluation

import (
	"context"
	"fmt"

	"github.com/okian/fraudlens/internal/domain/model"
)

// Classifier is the part of a fitted pipeline the evaluation calls.
type Classifier interface {
	Predict(f model.Frame) ([]int, error)
	PredictProba(f model.Frame) ([][2]float64, error)
}

// Result is one evaluation of the test set. It is computed fresh per call.
type Result struct {
	Rows      int
	Report    Report
	Confusion *ConfusionMatrix
	ROC       Curve
}

// Evaluate runs clf over features and compares against labels.
func Evaluate(ctx context.Context, clf Classifier, features model.Frame, labels []int) (*Result, error) {
	if features.Len() == 0 {
		return nil, ErrEmpty
	}
	if features.Len() != len(labels) {
		return nil, fmt.Errorf("%w: %d rows, %d labels", ErrLengthMismatch, features.Len(), len(labels))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	predicted, err := clf.Predict(features)
	if err != nil {
		return nil, fmt.Errorf("%w: predict: %w", ErrPredict, err)
	}
	proba, err := clf.PredictProba(features)
	if err != nil {
		return nil, fmt.Errorf("%w: predict_proba: %w", ErrPredict, err)
	}
	if len(predicted) != len(labels) || len(proba) != len(labels) {
		return nil, fmt.Errorf("%w: %d labels, %d predictions, %d probabilities",
			ErrLengthMismatch, len(labels), len(predicted), len(proba))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cm, err := NewConfusionMatrix(labels, predicted)
	if err != nil {
		return nil, err
	}
	scores := make([]float64, len(proba))
	for i, p := range proba {
		scores[i] = p[1]
	}
	curve, err := ROC(labels, scores)
	if err != nil {
		return nil, err
	}

	return &Result{
		Rows:      len(labels),
		Report:    ClassificationReport(cm),
		Confusion: cm,
		ROC:       curve,
	}, nil
}
