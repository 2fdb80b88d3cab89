// Package types contains the JSON shapes served by the API.
package types

import (
	"math"

	"github.com/okian/fraudlens/internal/domain/evaluation"
	"github.com/okian/fraudlens/internal/domain/model"
	"github.com/okian/fraudlens/internal/domain/scoring"
)

// PredictRequest is the body of POST /api/v1/predict.
type PredictRequest struct {
	Record model.Record `json:"record"`
}

// Prediction is the scored outcome of one record.
type Prediction struct {
	ID               string  `json:"id"`
	PredictedLabel   int     `json:"predicted_label"`
	FraudProbability float64 `json:"fraud_probability"`
	Verdict          string  `json:"verdict"`
	Threshold        float64 `json:"threshold"`
	Risky            bool    `json:"risky"`
}

// NewPrediction converts a scoring result.
func NewPrediction(r scoring.Result) Prediction {
	return Prediction{
		ID:               r.ID,
		PredictedLabel:   r.Label,
		FraudProbability: r.Probability,
		Verdict:          string(r.Verdict),
		Threshold:        r.Threshold,
		Risky:            r.Risky(),
	}
}

// ReportRow is one line of the classification report.
type ReportRow struct {
	Name      string  `json:"name"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
	Support   int     `json:"support"`
}

// ROC is a JSON-safe curve. Infinite thresholds and an undefined AUC
// are encoded as null.
type ROC struct {
	Defined    bool       `json:"defined"`
	AUC        *float64   `json:"auc"`
	FPR        []float64  `json:"fpr"`
	TPR        []float64  `json:"tpr"`
	Thresholds []*float64 `json:"thresholds"`
}

// Evaluation is the test split summary.
type Evaluation struct {
	Rows      int         `json:"rows"`
	Classes   []string    `json:"classes"`
	Accuracy  float64     `json:"accuracy"`
	Report    []ReportRow `json:"report"`
	Confusion [2][2]int   `json:"confusion_matrix"`
	ROC       ROC         `json:"roc"`
}

// NewEvaluation converts an evaluation result.
func NewEvaluation(r *evaluation.Result) Evaluation {
	out := Evaluation{
		Rows:      r.Rows,
		Classes:   model.ClassNames[:],
		Accuracy:  r.Report.Accuracy,
		Confusion: r.Confusion.Counts(),
		ROC:       NewROC(r.ROC),
	}
	for _, row := range r.Report.Rows() {
		out.Report = append(out.Report, ReportRow{
			Name:      row.Name,
			Precision: row.Precision,
			Recall:    row.Recall,
			F1:        row.F1,
			Support:   row.Support,
		})
	}
	return out
}

// NewROC converts a curve, replacing non-finite values with null.
func NewROC(c evaluation.Curve) ROC {
	out := ROC{
		Defined:    c.Defined,
		AUC:        finite(c.AUC),
		FPR:        nonNil(c.FPR),
		TPR:        nonNil(c.TPR),
		Thresholds: make([]*float64, len(c.Thresholds)),
	}
	for i, t := range c.Thresholds {
		out.Thresholds[i] = finite(t)
	}
	return out
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nonNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}

// ResourceState is the load state of one backing file.
type ResourceState struct {
	Path      string `json:"path"`
	Loaded    bool   `json:"loaded"`
	LoadedAt  string `json:"loaded_at,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// Stats is the body of GET /stats.
type Stats struct {
	Model     ResourceState `json:"model"`
	Split     ResourceState `json:"split"`
	Sessions  int           `json:"sessions"`
	Threshold float64       `json:"threshold"`
	Uptime    string        `json:"uptime"`
}

// Health is the body of GET /healthz.
type Health struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}
