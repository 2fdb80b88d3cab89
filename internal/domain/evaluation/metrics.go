package evaluation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/fraudlens/internal/domain/model"
)

// ClassMetrics holds precision, recall, F1 and support for one row of the
// classification report.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
	Support   int     `json:"support"`
}

// Report is a binary classification report.
type Report struct {
	Classes     [2]ClassMetrics `json:"classes"`
	Accuracy    float64         `json:"accuracy"`
	MacroAvg    ClassMetrics    `json:"macro_avg"`
	WeightedAvg ClassMetrics    `json:"weighted_avg"`
}

// ReportRow is one printable line of the report.
type ReportRow struct {
	Name string
	ClassMetrics
}

// Rows returns the report in display order: each class, accuracy, macro
// average, weighted average. The accuracy row repeats the accuracy in every
// score column.
func (r Report) Rows() []ReportRow {
	total := r.Classes[0].Support + r.Classes[1].Support
	return []ReportRow{
		{Name: model.ClassNames[model.Legitimate], ClassMetrics: r.Classes[0]},
		{Name: model.ClassNames[model.Fraud], ClassMetrics: r.Classes[1]},
		{Name: "accuracy", ClassMetrics: ClassMetrics{Precision: r.Accuracy, Recall: r.Accuracy, F1: r.Accuracy, Support: total}},
		{Name: "macro avg", ClassMetrics: r.MacroAvg},
		{Name: "weighted avg", ClassMetrics: r.WeightedAvg},
	}
}

// ConfusionMatrix counts outcomes; rows are actual classes, columns are
// predicted classes, both ordered Legitimate, Fraud.
type ConfusionMatrix struct {
	counts *mat.Dense
}

// NewConfusionMatrix tallies predicted against actual labels.
func NewConfusionMatrix(actual, predicted []int) (*ConfusionMatrix, error) {
	if len(actual) != len(predicted) {
		return nil, fmt.Errorf("%w: %d actual, %d predicted", ErrLengthMismatch, len(actual), len(predicted))
	}
	counts := mat.NewDense(2, 2, nil)
	for i := range actual {
		a, p := actual[i], predicted[i]
		if !binary(a) || !binary(p) {
			return nil, fmt.Errorf("%w: row %d actual %d predicted %d", ErrBadLabel, i, a, p)
		}
		counts.Set(a, p, counts.At(a, p)+1)
	}
	return &ConfusionMatrix{counts: counts}, nil
}

func binary(l int) bool { return l == model.Legitimate || l == model.Fraud }

// At returns the count of rows with the given actual and predicted class.
func (c *ConfusionMatrix) At(actual, predicted int) int {
	return int(c.counts.At(actual, predicted))
}

// RowSums returns the number of rows per actual class.
func (c *ConfusionMatrix) RowSums() []int {
	out := make([]int, 2)
	for i := range out {
		out[i] = int(floats.Sum(mat.Row(nil, i, c.counts)))
	}
	return out
}

// Total returns the number of counted rows.
func (c *ConfusionMatrix) Total() int {
	return int(mat.Sum(c.counts))
}

// Counts returns the matrix as nested slices, [actual][predicted].
func (c *ConfusionMatrix) Counts() [2][2]int {
	return [2][2]int{
		{c.At(0, 0), c.At(0, 1)},
		{c.At(1, 0), c.At(1, 1)},
	}
}

// Dense returns a copy of the underlying matrix.
func (c *ConfusionMatrix) Dense() *mat.Dense {
	return mat.DenseCopyOf(c.counts)
}

// ClassificationReport derives per-class and averaged scores from a
// confusion matrix. Undefined ratios (no predicted or no actual rows) are
// reported as zero.
func ClassificationReport(cm *ConfusionMatrix) Report {
	var r Report
	precisions := make([]float64, 2)
	recalls := make([]float64, 2)
	f1s := make([]float64, 2)
	supports := make([]float64, 2)

	for k := range 2 {
		tp := float64(cm.At(k, k))
		predicted := floats.Sum(mat.Col(nil, k, cm.counts))
		actual := floats.Sum(mat.Row(nil, k, cm.counts))

		p, rc := ratio(tp, predicted), ratio(tp, actual)
		f1 := ratio(2*p*rc, p+rc)
		r.Classes[k] = ClassMetrics{Precision: p, Recall: rc, F1: f1, Support: int(actual)}
		precisions[k], recalls[k], f1s[k], supports[k] = p, rc, f1, actual
	}

	total := floats.Sum(supports)
	r.Accuracy = ratio(float64(cm.At(0, 0)+cm.At(1, 1)), total)
	r.MacroAvg = ClassMetrics{
		Precision: stat.Mean(precisions, nil),
		Recall:    stat.Mean(recalls, nil),
		F1:        stat.Mean(f1s, nil),
		Support:   int(total),
	}
	r.WeightedAvg = ClassMetrics{Support: int(total)}
	if total > 0 {
		r.WeightedAvg.Precision = stat.Mean(precisions, supports)
		r.WeightedAvg.Recall = stat.Mean(recalls, supports)
		r.WeightedAvg.F1 = stat.Mean(f1s, supports)
	}
	return r
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Curve is a receiver operating characteristic curve.
type Curve struct {
	FPR []float64
	TPR []float64
	// Thresholds[i] is the score cutoff giving (FPR[i], TPR[i]). The ends
	// may be infinite.
	Thresholds []float64
	// AUC is NaN when Defined is false.
	AUC     float64
	Defined bool
}

// ROC computes the curve of scores against actual labels. Points run from
// (0, 0) to (1, 1) with non-decreasing FPR. With a single class present the
// curve is undefined.
func ROC(actual []int, scores []float64) (Curve, error) {
	if len(actual) != len(scores) {
		return Curve{}, fmt.Errorf("%w: %d labels, %d scores", ErrLengthMismatch, len(actual), len(scores))
	}
	y := make([]float64, len(scores))
	classes := make([]bool, len(actual))
	positives := 0
	copy(y, scores)
	for i, a := range actual {
		if !binary(a) {
			return Curve{}, fmt.Errorf("%w: row %d label %d", ErrBadLabel, i, a)
		}
		classes[i] = a == model.Fraud
		if classes[i] {
			positives++
		}
	}
	if positives == 0 || positives == len(actual) {
		return Curve{AUC: math.NaN()}, nil
	}

	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, thresh := stat.ROC(nil, y, classes, nil)
	return Curve{
		FPR:        fpr,
		TPR:        tpr,
		Thresholds: thresh,
		AUC:        integrate.Trapezoidal(fpr, tpr),
		Defined:    true,
	}, nil
}
