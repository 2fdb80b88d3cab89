// Package form maps a pipeline schema onto input controls and collects a
// submitted record.
package form

import (
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/okian/fraudlens/internal/domain/model"
	"github.com/okian/fraudlens/internal/domain/schema"
)

// Control is the widget a field renders as.
type Control string

// Controls.
const (
	ControlNumber Control = "number"
	ControlSelect Control = "select"
	ControlRange  Control = "range"
)

// Group is a schema partition rendered as one section.
type Group string

// Groups in render order.
const (
	GroupNumeric   Group = "numeric"
	GroupOrdinal   Group = "ordinal"
	GroupBinary    Group = "binary"
	GroupRemainder Group = "remainder"
)

// GroupTitles are the section headings.
var GroupTitles = map[Group]string{ //nolint:gochecknoglobals // display strings
	GroupNumeric:   "Numerical values",
	GroupOrdinal:   "Batch values",
	GroupBinary:    "Weekend status",
	GroupRemainder: "Other time information",
}

// numberPrecision is the decimals shown for free-entry numbers.
const numberPrecision = 2

// temporal describes a known remainder column.
type temporal struct {
	label        string
	min, max, at int
}

// temporalColumns are the remainder columns with known semantics. Any other
// remainder column gets no control.
var temporalColumns = map[string]temporal{ //nolint:gochecknoglobals // fixed table
	"Transaction_Hour":      {label: "Transaction Hour", min: 0, max: 23, at: 12},
	"Transaction_Month":     {label: "Transaction Month", min: 1, max: 12, at: 6},
	"Transaction_Day":       {label: "Transaction Day", min: 1, max: 31, at: 15},
	"Transaction_DayOfWeek": {label: "Day of the week (0=Saturday, 6=Friday)", min: 0, max: 6, at: 3},
}

// Field is one input control bound to a column.
type Field struct {
	Name      string   `json:"name"`
	Label     string   `json:"label"`
	Group     Group    `json:"group"`
	Control   Control  `json:"control"`
	Options   []string `json:"options,omitempty"`
	Min       int      `json:"min"`
	Max       int      `json:"max"`
	Precision int      `json:"precision,omitempty"`
	Default   any      `json:"default"`
}

// Form is the ordered set of controls for a schema.
type Form struct {
	Fields []Field `json:"fields"`
	// Unhandled lists remainder columns without a known control. A record
	// collected by this form lacks them, so scoring it will fail.
	Unhandled []string `json:"unhandled,omitempty"`
}

// Build lays out one field per column: numeric, then ordinal, then binary,
// then the known remainder columns.
func Build(s *schema.Schema) *Form {
	f := &Form{}
	for _, c := range s.Numeric {
		f.Fields = append(f.Fields, Field{
			Name:      c,
			Label:     c,
			Group:     GroupNumeric,
			Control:   ControlNumber,
			Precision: numberPrecision,
			Default:   0.0,
		})
	}
	for _, cc := range s.Ordinal {
		f.Fields = append(f.Fields, selectField(cc, GroupOrdinal))
	}
	for _, cc := range s.Binary {
		f.Fields = append(f.Fields, selectField(cc, GroupBinary))
	}
	for _, c := range s.Remainder {
		t, ok := temporalColumns[c]
		if !ok {
			f.Unhandled = append(f.Unhandled, c)
			continue
		}
		f.Fields = append(f.Fields, Field{
			Name:    c,
			Label:   t.label,
			Group:   GroupRemainder,
			Control: ControlRange,
			Min:     t.min,
			Max:     t.max,
			Default: float64(t.at),
		})
	}
	return f
}

func selectField(cc schema.CategoricalColumn, g Group) Field {
	var def any
	if len(cc.Categories) > 0 {
		def = cc.Categories[0]
	}
	return Field{
		Name:    cc.Name,
		Label:   cc.Name,
		Group:   g,
		Control: ControlSelect,
		Options: slices.Clone(cc.Categories),
		Default: def,
	}
}

// Groups splits the fields into titled sections in render order.
func (f *Form) Groups() []Section {
	var out []Section
	for _, g := range []Group{GroupNumeric, GroupOrdinal, GroupBinary, GroupRemainder} {
		var fields []Field
		for _, fl := range f.Fields {
			if fl.Group == g {
				fields = append(fields, fl)
			}
		}
		if len(fields) > 0 {
			out = append(out, Section{Group: g, Title: GroupTitles[g], Fields: fields})
		}
	}
	return out
}

// Section is a titled run of fields.
type Section struct {
	Group  Group
	Title  string
	Fields []Field
}

// Defaults returns the record the form starts from.
func (f *Form) Defaults() model.Record {
	rec := make(model.Record, len(f.Fields))
	for _, fl := range f.Fields {
		rec[fl.Name] = fl.Default
	}
	return rec
}

// Field looks a field up by column name.
func (f *Form) Field(name string) (Field, bool) {
	for _, fl := range f.Fields {
		if fl.Name == name {
			return fl, true
		}
	}
	return Field{}, false
}

// Collect validates a submission and builds the record. Every field is
// checked so the error lists all problems at once.
func (f *Form) Collect(values url.Values) (model.Record, error) {
	rec := make(model.Record, len(f.Fields))
	problems := make(map[string]string)
	for _, fl := range f.Fields {
		raw := strings.TrimSpace(values.Get(fl.Name))
		v, msg := fl.parse(raw)
		if msg != "" {
			problems[fl.Name] = msg
			continue
		}
		rec[fl.Name] = v
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Fields: problems}
	}
	return rec, nil
}

// CollectRecord validates an already-typed record, as sent by JSON clients.
// Values are coerced the same way as form strings.
func (f *Form) CollectRecord(in model.Record) (model.Record, error) {
	values := url.Values{}
	for k, v := range in {
		switch x := v.(type) {
		case nil:
		case string:
			values.Set(k, x)
		default:
			if s, err := model.AsLabel(x); err == nil {
				values.Set(k, s)
			}
		}
	}
	return f.Collect(values)
}

// parse returns the typed value or a user-facing message.
func (fl Field) parse(raw string) (any, string) {
	if raw == "" {
		return nil, "required"
	}
	switch fl.Control {
	case ControlNumber:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, "must be a number"
		}
		return v, ""
	case ControlSelect:
		if !slices.Contains(fl.Options, raw) {
			return nil, "must be one of " + strings.Join(fl.Options, ", ")
		}
		return raw, ""
	case ControlRange:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, "must be a whole number"
		}
		if v < fl.Min || v > fl.Max {
			return nil, "must be between " + strconv.Itoa(fl.Min) + " and " + strconv.Itoa(fl.Max)
		}
		return float64(v), ""
	default:
		return nil, "unsupported control"
	}
}
