// Package schema derives the input column layout of a fitted pipeline.
package schema

import (
	"fmt"
	"slices"
)

// Kind identifies the transformation a preprocessing stage applies.
type Kind string

// Stage kinds understood by the introspector.
const (
	KindScaler  Kind = "standard_scaler"
	KindOrdinal Kind = "ordinal_encoder"
	KindOneHot  Kind = "onehot_encoder"
)

// Stage names the introspector zips category lists from.
const (
	OrdinalStageName = "OrdinalEncoder"
	OneHotStageName  = "onehot"
)

// expectedKinds fixes the stage order: scaler, ordinal, one-hot.
var expectedKinds = [...]Kind{KindScaler, KindOrdinal, KindOneHot} //nolint:gochecknoglobals // fixed stage order

// Stage is a read-only view of one fitted preprocessing stage.
type Stage struct {
	Name       string
	Kind       Kind
	Columns    []string
	Categories [][]string // per column; empty for scalers
}

// Introspectable is implemented by fitted pipelines that expose their
// preprocessing layout.
type Introspectable interface {
	// FeatureNamesIn returns the columns the preprocessing stage was fit on.
	// ok is false when the fit did not record them.
	FeatureNamesIn() (names []string, ok bool)
	// TransformerAt returns the i-th declared preprocessing stage.
	TransformerAt(i int) (Stage, bool)
	// NamedTransformer returns the stage registered under name.
	NamedTransformer(name string) (Stage, bool)
}

// CategoricalColumn is a column together with its fitted categories.
// Order is the encoder's order and, for ordinal columns, the rank.
type CategoricalColumn struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
}

// Schema is the partitioned input layout of a pipeline. Every column of
// Columns appears in exactly one of Numeric, Ordinal, Binary, Remainder.
type Schema struct {
	Columns   []string            `json:"columns"`
	Numeric   []string            `json:"numeric"`
	Ordinal   []CategoricalColumn `json:"ordinal"`
	Binary    []CategoricalColumn `json:"binary"`
	Remainder []string            `json:"remainder"`
}

// Introspect derives the Schema of p. Failures are fatal: without a schema
// no form can be built.
func Introspect(p Introspectable) (*Schema, error) {
	columns, ok := p.FeatureNamesIn()
	if !ok || len(columns) == 0 {
		return nil, ErrFeatureNamesUnavailable
	}

	stages := make([]Stage, len(expectedKinds))
	for i, kind := range expectedKinds {
		st, ok := p.TransformerAt(i)
		if !ok {
			return nil, fmt.Errorf("%w: no stage at position %d, want %s", ErrStageMismatch, i, kind)
		}
		if st.Kind != kind {
			return nil, fmt.Errorf("%w: stage %d (%s) is %s, want %s", ErrStageMismatch, i, st.Name, st.Kind, kind)
		}
		stages[i] = st
	}

	ordinal, err := zipCategories(p, OrdinalStageName, KindOrdinal)
	if err != nil {
		return nil, err
	}
	binary, err := zipCategories(p, OneHotStageName, KindOneHot)
	if err != nil {
		return nil, err
	}

	s := &Schema{
		Columns:   slices.Clone(columns),
		Numeric:   slices.Clone(stages[0].Columns),
		Ordinal:   ordinal,
		Binary:    binary,
		Remainder: remainder(columns, stages),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// zipCategories pairs each column of the named stage with its categories.
func zipCategories(p Introspectable, name string, kind Kind) ([]CategoricalColumn, error) {
	st, ok := p.NamedTransformer(name)
	if !ok {
		return nil, fmt.Errorf("%w: no stage named %q", ErrStageMismatch, name)
	}
	if st.Kind != kind {
		return nil, fmt.Errorf("%w: stage %q is %s, want %s", ErrStageMismatch, name, st.Kind, kind)
	}
	if len(st.Categories) != len(st.Columns) {
		return nil, fmt.Errorf("%w: stage %q has %d columns but %d category lists",
			ErrStageMismatch, name, len(st.Columns), len(st.Categories))
	}
	out := make([]CategoricalColumn, len(st.Columns))
	for i, col := range st.Columns {
		out[i] = CategoricalColumn{Name: col, Categories: slices.Clone(st.Categories[i])}
	}
	return out, nil
}

// remainder keeps the columns no stage claims, in full-list order.
func remainder(columns []string, stages []Stage) []string {
	claimed := make(map[string]struct{})
	for _, st := range stages {
		for _, c := range st.Columns {
			claimed[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if _, ok := claimed[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks that the four partitions cover Columns exactly once each.
func (s *Schema) Validate() error {
	seen := make(map[string]int, len(s.Columns))
	for _, c := range s.Columns {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: column %q listed twice in feature names", ErrPartitionMismatch, c)
		}
		seen[c] = 0
	}
	claim := func(c string) error {
		n, ok := seen[c]
		if !ok {
			return fmt.Errorf("%w: column %q is not a fitted input", ErrPartitionMismatch, c)
		}
		if n > 0 {
			return fmt.Errorf("%w: column %q claimed by more than one partition", ErrPartitionMismatch, c)
		}
		seen[c] = n + 1
		return nil
	}
	for _, c := range s.Numeric {
		if err := claim(c); err != nil {
			return err
		}
	}
	for _, cc := range append(slices.Clone(s.Ordinal), s.Binary...) {
		if err := claim(cc.Name); err != nil {
			return err
		}
	}
	for _, c := range s.Remainder {
		if err := claim(c); err != nil {
			return err
		}
	}
	for _, c := range s.Columns {
		if seen[c] != 1 {
			return fmt.Errorf("%w: column %q not covered", ErrPartitionMismatch, c)
		}
	}
	return nil
}

// Categories returns the fitted categories of a categorical column.
func (s *Schema) Categories(column string) ([]string, bool) {
	for _, cc := range s.Ordinal {
		if cc.Name == column {
			return cc.Categories, true
		}
	}
	for _, cc := range s.Binary {
		if cc.Name == column {
			return cc.Categories, true
		}
	}
	return nil, false
}
