// Package artifact reads an exported preprocessing + classifier pipeline and
// evaluates it: column transformation, gradient-boosted trees, and the
// introspection hooks the schema package needs.
package artifact

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/okian/fraudlens/internal/domain/model"
	"github.com/okian/fraudlens/internal/domain/schema"
)

// Pipeline is a validated, read-only fitted pipeline. It is safe for
// concurrent use.
type Pipeline struct {
	ct        ColumnTransformer
	gb        GradientBoosting
	remainder []string
	width     int
	byName    map[string]int
}

// Summary describes a loaded pipeline.
type Summary struct {
	Format       string `json:"format"`
	Stages       int    `json:"stages"`
	InputColumns int    `json:"input_columns"`
	Width        int    `json:"transformed_width"`
	Trees        int    `json:"trees"`
}

// Load reads and validates the artifact at path.
func Load(path string) (*Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrDecode, path, err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Decode reads and validates an artifact from r.
func Decode(r io.Reader) (*Pipeline, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return New(doc)
}

// New validates doc and builds a Pipeline from it.
func New(doc Document) (*Pipeline, error) {
	if doc.Format != FormatV1 {
		return nil, fmt.Errorf("%w: format %q, want %q", ErrInvalidArtifact, doc.Format, FormatV1)
	}
	if len(doc.Steps) != 2 || doc.Steps[0].ColumnTransformer == nil || doc.Steps[1].GradientBoosting == nil {
		return nil, fmt.Errorf("%w: want steps [column_transformer, gradient_boosting]", ErrInvalidArtifact)
	}

	p := &Pipeline{
		ct:     *doc.Steps[0].ColumnTransformer,
		gb:     *doc.Steps[1].GradientBoosting,
		byName: make(map[string]int),
	}
	if err := p.validateTransformers(); err != nil {
		return nil, err
	}
	if err := p.validateClassifier(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) validateTransformers() error {
	claimed := make(map[string]struct{})
	for i, t := range p.ct.Transformers {
		if t.Name == "" {
			return fmt.Errorf("%w: transformer %d has no name", ErrInvalidArtifact, i)
		}
		if _, dup := p.byName[t.Name]; dup {
			return fmt.Errorf("%w: duplicate transformer name %q", ErrInvalidArtifact, t.Name)
		}
		p.byName[t.Name] = i

		n := len(t.Columns)
		switch t.Kind {
		case schema.KindScaler:
			if len(t.Mean) != n || len(t.Scale) != n {
				return fmt.Errorf("%w: scaler %q needs mean and scale per column", ErrInvalidArtifact, t.Name)
			}
			p.width += n
		case schema.KindOrdinal, schema.KindOneHot:
			if len(t.Categories) != n {
				return fmt.Errorf("%w: encoder %q needs categories per column", ErrInvalidArtifact, t.Name)
			}
			for j, cats := range t.Categories {
				if len(cats) == 0 {
					return fmt.Errorf("%w: encoder %q column %q has no categories", ErrInvalidArtifact, t.Name, t.Columns[j])
				}
			}
			if t.Kind == schema.KindOrdinal {
				p.width += n
				break
			}
			if t.Drop != DropNone && t.Drop != DropIfBinary && t.Drop != DropFirst {
				return fmt.Errorf("%w: encoder %q has unknown drop %q", ErrInvalidArtifact, t.Name, t.Drop)
			}
			for _, cats := range t.Categories {
				p.width += len(cats) - dropped(t.Drop, len(cats))
			}
		default:
			return fmt.Errorf("%w: transformer %q has unknown kind %q", ErrInvalidArtifact, t.Name, t.Kind)
		}
		for _, c := range t.Columns {
			claimed[c] = struct{}{}
		}
	}

	switch p.ct.Remainder {
	case RemainderPassthrough:
		for _, c := range p.ct.FeatureNamesIn {
			if _, ok := claimed[c]; !ok {
				p.remainder = append(p.remainder, c)
			}
		}
		p.width += len(p.remainder)
	case RemainderDrop, "":
	default:
		return fmt.Errorf("%w: unknown remainder %q", ErrInvalidArtifact, p.ct.Remainder)
	}
	return nil
}

func (p *Pipeline) validateClassifier() error {
	if !slices.Equal(p.gb.Classes, []int{model.Legitimate, model.Fraud}) {
		return fmt.Errorf("%w: classes %v, want [0 1]", ErrInvalidArtifact, p.gb.Classes)
	}
	if p.gb.LearningRate <= 0 {
		return fmt.Errorf("%w: learning rate must be positive", ErrInvalidArtifact)
	}
	if len(p.gb.Trees) == 0 {
		return fmt.Errorf("%w: no trees", ErrInvalidArtifact)
	}
	for i, t := range p.gb.Trees {
		n := len(t.ChildrenLeft)
		if n == 0 || len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
			return fmt.Errorf("%w: tree %d arrays differ in length", ErrInvalidArtifact, i)
		}
		for node := range n {
			l, r := t.ChildrenLeft[node], t.ChildrenRight[node]
			if l == -1 {
				continue
			}
			// Children always follow their parent, which rules out cycles.
			if l <= node || l >= n || r <= node || r >= n {
				return fmt.Errorf("%w: tree %d node %d has bad children", ErrInvalidArtifact, i, node)
			}
			if f := t.Feature[node]; f < 0 || f >= p.width {
				return fmt.Errorf("%w: tree %d node %d splits on feature %d outside width %d",
					ErrInvalidArtifact, i, node, f, p.width)
			}
		}
	}
	return nil
}

// dropped returns how many one-hot indicators the drop policy removes.
func dropped(policy string, n int) int {
	switch {
	case policy == DropFirst:
		return 1
	case policy == DropIfBinary && n == 2:
		return 1
	default:
		return 0
	}
}

// Width is the number of features the classifier consumes.
func (p *Pipeline) Width() int { return p.width }

// Summary reports the pipeline's shape.
func (p *Pipeline) Summary() Summary {
	return Summary{
		Format:       FormatV1,
		Stages:       len(p.ct.Transformers),
		InputColumns: len(p.ct.FeatureNamesIn),
		Width:        p.width,
		Trees:        len(p.gb.Trees),
	}
}

// Transform applies the column transformer to every row of f.
func (p *Pipeline) Transform(f model.Frame) ([][]float64, error) {
	idx := f.Index()
	out := make([][]float64, len(f.Rows))
	for r, row := range f.Rows {
		if len(row) != len(f.Columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells for %d columns", ErrBadValue, r, len(row), len(f.Columns))
		}
		x, err := p.transformRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r, err)
		}
		out[r] = x
	}
	return out, nil
}

func (p *Pipeline) transformRow(row []any, idx map[string]int) ([]float64, error) {
	x := make([]float64, 0, p.width)
	cell := func(col string) (any, error) {
		i, ok := idx[col]
		if !ok {
			return nil, fmt.Errorf("%w: column %q absent", ErrBadValue, col)
		}
		return row[i], nil
	}

	for _, t := range p.ct.Transformers {
		for j, col := range t.Columns {
			v, err := cell(col)
			if err != nil {
				return nil, err
			}
			switch t.Kind {
			case schema.KindScaler:
				f, err := model.AsFloat(v)
				if err != nil {
					return nil, fmt.Errorf("%w: column %q: %w", ErrBadValue, col, err)
				}
				scale := t.Scale[j]
				if scale == 0 {
					scale = 1
				}
				x = append(x, (f-t.Mean[j])/scale)
			case schema.KindOrdinal:
				label, err := model.AsLabel(v)
				if err != nil {
					return nil, fmt.Errorf("%w: column %q: %w", ErrBadValue, col, err)
				}
				k := slices.Index(t.Categories[j], label)
				switch {
				case k >= 0:
					x = append(x, float64(k))
				case t.UnknownValue != nil:
					x = append(x, *t.UnknownValue)
				default:
					return nil, fmt.Errorf("%w: %q for column %q", ErrUnknownCategory, label, col)
				}
			case schema.KindOneHot:
				label, err := model.AsLabel(v)
				if err != nil {
					return nil, fmt.Errorf("%w: column %q: %w", ErrBadValue, col, err)
				}
				cats := t.Categories[j]
				k := slices.Index(cats, label)
				if k < 0 {
					return nil, fmt.Errorf("%w: %q for column %q", ErrUnknownCategory, label, col)
				}
				for c := dropped(t.Drop, len(cats)); c < len(cats); c++ {
					if c == k {
						x = append(x, 1)
					} else {
						x = append(x, 0)
					}
				}
			}
		}
	}

	for _, col := range p.remainder {
		v, err := cell(col)
		if err != nil {
			return nil, err
		}
		f, err := model.AsFloat(v)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: %w", ErrBadValue, col, err)
		}
		x = append(x, f)
	}
	return x, nil
}

// DecisionFunction returns the raw log-odds of the positive class per row.
func (p *Pipeline) DecisionFunction(f model.Frame) ([]float64, error) {
	xs, err := p.Transform(f)
	if err != nil {
		return nil, err
	}
	raw := make([]float64, len(xs))
	for i, x := range xs {
		sum := 0.0
		for _, t := range p.gb.Trees {
			sum += t.eval(x)
		}
		raw[i] = p.gb.InitRaw + p.gb.LearningRate*sum
	}
	return raw, nil
}

// PredictProba returns [P(class 0), P(class 1)] per row.
func (p *Pipeline) PredictProba(f model.Frame) ([][2]float64, error) {
	raw, err := p.DecisionFunction(f)
	if err != nil {
		return nil, err
	}
	out := make([][2]float64, len(raw))
	for i, r := range raw {
		p1 := sigmoid(r)
		out[i] = [2]float64{1 - p1, p1}
	}
	return out, nil
}

// Predict returns the predicted class per row: the positive class when its
// probability exceeds one half.
func (p *Pipeline) Predict(f model.Frame) ([]int, error) {
	raw, err := p.DecisionFunction(f)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(raw))
	for i, r := range raw {
		if sigmoid(r) > 0.5 {
			out[i] = p.gb.Classes[1]
		} else {
			out[i] = p.gb.Classes[0]
		}
	}
	return out, nil
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// FeatureNamesIn implements schema.Introspectable.
func (p *Pipeline) FeatureNamesIn() ([]string, bool) {
	if len(p.ct.FeatureNamesIn) == 0 {
		return nil, false
	}
	return slices.Clone(p.ct.FeatureNamesIn), true
}

// TransformerAt implements schema.Introspectable.
func (p *Pipeline) TransformerAt(i int) (schema.Stage, bool) {
	if i < 0 || i >= len(p.ct.Transformers) {
		return schema.Stage{}, false
	}
	return stageOf(p.ct.Transformers[i]), true
}

// NamedTransformer implements schema.Introspectable.
func (p *Pipeline) NamedTransformer(name string) (schema.Stage, bool) {
	i, ok := p.byName[name]
	if !ok {
		return schema.Stage{}, false
	}
	return stageOf(p.ct.Transformers[i]), true
}

func stageOf(t Transformer) schema.Stage {
	cats := make([][]string, len(t.Categories))
	for i, c := range t.Categories {
		cats[i] = slices.Clone(c)
	}
	return schema.Stage{
		Name:       t.Name,
		Kind:       t.Kind,
		Columns:    slices.Clone(t.Columns),
		Categories: cats,
	}
}

// Columns returns the input columns the transformer reads, in fitted order.
// It fails when the artifact did not record them.
func (p *Pipeline) Columns() ([]string, error) {
	names, ok := p.FeatureNamesIn()
	if !ok {
		return nil, ErrFeatureNamesUnavailable
	}
	return names, nil
}
