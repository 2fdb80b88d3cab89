// Package testutil holds fixtures shared by package tests: a small fitted
// pipeline and a labelled CSV split.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/fraudlens/internal/adapters/dataset"
	"github.com/okian/fraudlens/internal/domain/artifact"
	"github.com/okian/fraudlens/internal/domain/model"
	"github.com/okian/fraudlens/internal/domain/schema"
)

// ScenarioColumns is the fitted input order of the scenario pipeline.
var ScenarioColumns = []string{"amount", "age", "risk_tier", "is_weekend", "Transaction_Hour"} //nolint:gochecknoglobals // fixture

// ScenarioDocument returns a pipeline fit on amount and age (scaled),
// risk_tier (ordinal low < medium < high), is_weekend (one-hot, no/yes) and
// Transaction_Hour (passthrough).
//
// Transformed features: 0 amount, 1 age, 2 risk_tier, 3 is_weekend=yes,
// 4 Transaction_Hour. The ensemble raises the fraud log-odds for large
// scaled amounts and for the high risk tier.
func ScenarioDocument() artifact.Document {
	return artifact.Document{
		Format: artifact.FormatV1,
		Steps: []artifact.Step{
			{
				Name: "transformer",
				ColumnTransformer: &artifact.ColumnTransformer{
					FeatureNamesIn: append([]string(nil), ScenarioColumns...),
					Transformers: []artifact.Transformer{
						{
							Name:    "num",
							Kind:    schema.KindScaler,
							Columns: []string{"amount", "age"},
							Mean:    []float64{50, 40},
							Scale:   []float64{50, 10},
						},
						{
							Name:       schema.OrdinalStageName,
							Kind:       schema.KindOrdinal,
							Columns:    []string{"risk_tier"},
							Categories: [][]string{{"low", "medium", "high"}},
						},
						{
							Name:       schema.OneHotStageName,
							Kind:       schema.KindOneHot,
							Columns:    []string{"is_weekend"},
							Categories: [][]string{{"no", "yes"}},
							Drop:       artifact.DropIfBinary,
						},
					},
					Remainder: artifact.RemainderPassthrough,
				},
			},
			{
				Name: "classifier",
				GradientBoosting: &artifact.GradientBoosting{
					Classes:      []int{model.Legitimate, model.Fraud},
					LearningRate: 0.5,
					InitRaw:      -1.5,
					Trees: []artifact.Tree{
						stump(0, 1.0, -0.5, 2.0),
						stump(2, 1.5, -0.3, 1.5),
					},
				},
			},
		},
	}
}

// stump is a depth-one tree: feature <= threshold goes left.
func stump(feature int, threshold, left, right float64) artifact.Tree {
	return artifact.Tree{
		ChildrenLeft:  []int{1, -1, -1},
		ChildrenRight: []int{2, -1, -1},
		Feature:       []int{feature, -2, -2},
		Threshold:     []float64{threshold, -2, -2},
		Value:         []float64{0, left, right},
	}
}

// ScenarioRecord is the reference submission for the scenario pipeline.
func ScenarioRecord() model.Record {
	return model.Record{
		"amount":           100.0,
		"age":              30.0,
		"risk_tier":        "medium",
		"is_weekend":       "no",
		"Transaction_Hour": 14.0,
	}
}

// ScenarioPipeline builds the scenario pipeline or fails the test.
func ScenarioPipeline(t testing.TB) *artifact.Pipeline {
	t.Helper()
	p, err := artifact.New(ScenarioDocument())
	if err != nil {
		t.Fatalf("scenario pipeline: %v", err)
	}
	return p
}

// WriteArtifact encodes doc as JSON under dir and returns its path.
func WriteArtifact(t testing.TB, dir string, doc artifact.Document) string {
	t.Helper()
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("encode artifact: %v", err)
	}
	path := filepath.Join(dir, "model.json")
	if err := os.WriteFile(path, b, 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

// WriteSplit writes a split for the scenario columns under dir. The train
// partition has 20 rows; the test partition has legit + fraud rows,
// legitimate rows first. Fraud rows carry large amounts and the high risk
// tier; every fifth row of each class is made ambiguous so the classifier
// is good but not perfect.
func WriteSplit(t testing.TB, dir string, legit, fraud int) dataset.Paths {
	t.Helper()
	paths := dataset.Paths{
		TrainFeatures: filepath.Join(dir, "X_train.csv"),
		TrainLabels:   filepath.Join(dir, "y_train.csv"),
		TestFeatures:  filepath.Join(dir, "X_test.csv"),
		TestLabels:    filepath.Join(dir, "y_test.csv"),
	}
	writePartition(t, paths.TrainFeatures, paths.TrainLabels, 16, 4)
	writePartition(t, paths.TestFeatures, paths.TestLabels, legit, fraud)
	return paths
}

func writePartition(t testing.TB, featuresPath, labelsPath string, legit, fraud int) {
	t.Helper()
	var xs, ys strings.Builder
	xs.WriteString(strings.Join(ScenarioColumns, ",") + "\n")
	ys.WriteString("is_fraud\n")
	for i := range legit + fraud {
		isFraud := i >= legit
		ambiguous := i%5 == 4
		amount, tier := 20.0+float64(i%7), "low"
		if isFraud != ambiguous {
			amount, tier = 400.0+float64(i%11), "high"
		}
		weekend := "no"
		if i%2 == 0 {
			weekend = "yes"
		}
		fmt.Fprintf(&xs, "%.2f,%d,%s,%s,%d\n", amount, 25+i%40, tier, weekend, i%24)
		if isFraud {
			ys.WriteString("1\n")
		} else {
			ys.WriteString("0\n")
		}
	}
	if err := os.WriteFile(featuresPath, []byte(xs.String()), 0o600); err != nil {
		t.Fatalf("write features: %v", err)
	}
	if err := os.WriteFile(labelsPath, []byte(ys.String()), 0o600); err != nil {
		t.Fatalf("write labels: %v", err)
	}
}
