package artifact

import "github.com/okian/fraudlens/internal/domain/schema"

// FormatV1 is the only artifact format this package reads.
const FormatV1 = "fraudlens.pipeline/v1"

// Remainder policies of the column transformer.
const (
	RemainderPassthrough = "passthrough"
	RemainderDrop        = "drop"
)

// One-hot drop policies.
const (
	DropNone     = ""
	DropIfBinary = "if_binary"
	DropFirst    = "first"
)

// Document is the on-disk JSON layout of an exported pipeline.
type Document struct {
	Format string `json:"format"`
	Steps  []Step `json:"steps"`
}

// Step is one named pipeline step. Exactly one of the payload fields is set.
type Step struct {
	Name              string             `json:"name"`
	ColumnTransformer *ColumnTransformer `json:"column_transformer,omitempty"`
	GradientBoosting  *GradientBoosting  `json:"gradient_boosting,omitempty"`
}

// ColumnTransformer routes input columns through fitted stages.
type ColumnTransformer struct {
	// FeatureNamesIn is optional. Without it the remainder cannot be
	// resolved and the pipeline cannot be introspected.
	FeatureNamesIn []string      `json:"feature_names_in,omitempty"`
	Transformers   []Transformer `json:"transformers"`
	Remainder      string        `json:"remainder"`
}

// Transformer is one fitted stage of the column transformer.
type Transformer struct {
	Name    string      `json:"name"`
	Kind    schema.Kind `json:"kind"`
	Columns []string    `json:"columns"`

	// standard_scaler
	Mean  []float64 `json:"mean,omitempty"`
	Scale []float64 `json:"scale,omitempty"`

	// ordinal_encoder, onehot_encoder
	Categories [][]string `json:"categories,omitempty"`

	// onehot_encoder
	Drop string `json:"drop,omitempty"`

	// ordinal_encoder; nil means unknown categories are an error.
	UnknownValue *float64 `json:"unknown_value,omitempty"`
}

// GradientBoosting is a fitted binary gradient-boosted tree ensemble.
type GradientBoosting struct {
	Classes      []int   `json:"classes"`
	LearningRate float64 `json:"learning_rate"`
	InitRaw      float64 `json:"init_raw"`
	Trees        []Tree  `json:"trees"`
}

// Tree is a regression tree in flat array form. A node is a leaf when its
// left child is -1.
type Tree struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

func (t Tree) eval(x []float64) float64 {
	node := 0
	for t.ChildrenLeft[node] != -1 {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}
