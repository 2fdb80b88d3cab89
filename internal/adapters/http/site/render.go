package site

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/fraudlens/internal/domain/evaluation"
	"github.com/okian/fraudlens/internal/domain/form"
	"github.com/okian/fraudlens/internal/domain/scoring"
	"github.com/okian/fraudlens/internal/domain/shell"
)

var pages = template.Must(template.New("").Funcs(template.FuncMap{ //nolint:gochecknoglobals // parsed once
	"f2":   twoDecimals,
	"join": strings.Join,
}).ParseFS(templateFS, "templates/*.html"))

// page is the data of one rendered view.
type page struct {
	Title   string
	View    shell.View
	Notice  string
	Actions []action

	Form   *formView
	Result *resultView

	Evaluation *evaluationView
}

type action struct {
	Value string
	Label string
}

type formView struct {
	Sections  []sectionView
	Unhandled []string
}

type sectionView struct {
	Title  string
	Fields []fieldView
}

type fieldView struct {
	form.Field
	Value string
	Step  string
	Error string
}

type resultView struct {
	Fraud       bool
	Risky       bool
	Probability string
}

type evaluationView struct {
	Rows       int
	ROCDefined bool
	AUC        float64
	Report     []evaluation.ReportRow
}

func newPage(v shell.View) *page {
	p := &page{Title: v.Title(), View: v}
	for _, a := range shell.Actions(v) {
		p.Actions = append(p.Actions, action{Value: string(a), Label: a.Label()})
	}
	return p
}

// newFormView fills every field from values, falling back to the field
// default, and attaches per-field messages.
func newFormView(f *form.Form, values url.Values, problems map[string]string) *formView {
	fv := &formView{Unhandled: f.Unhandled}
	for _, sec := range f.Groups() {
		sv := sectionView{Title: sec.Title}
		for _, fl := range sec.Fields {
			v := values.Get(fl.Name)
			if _, ok := values[fl.Name]; !ok {
				v = defaultValue(fl)
			}
			sv.Fields = append(sv.Fields, fieldView{
				Field: fl,
				Value: v,
				Step:  step(fl.Precision),
				Error: problems[fl.Name],
			})
		}
		fv.Sections = append(fv.Sections, sv)
	}
	return fv
}

func newResultView(r *scoring.Result) *resultView {
	return &resultView{
		Fraud:       r.Verdict == scoring.VerdictFraud,
		Risky:       r.Risky(),
		Probability: fmt.Sprintf("%.2f%%", r.Probability*100),
	}
}

func newEvaluationView(r *evaluation.Result) *evaluationView {
	return &evaluationView{
		Rows:       r.Rows,
		ROCDefined: r.ROC.Defined,
		AUC:        r.ROC.AUC,
		Report:     r.Report.Rows(),
	}
}

func defaultValue(fl form.Field) string {
	switch v := fl.Default.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if fl.Control == form.ControlNumber {
			return strconv.FormatFloat(v, 'f', fl.Precision, 64)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func step(precision int) string {
	if precision <= 0 {
		return "1"
	}
	return strconv.FormatFloat(math.Pow10(-precision), 'f', precision, 64)
}

func twoDecimals(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case int:
		return strconv.FormatFloat(float64(x), 'f', 2, 64)
	default:
		return fmt.Sprint(v)
	}
}

// render executes the layout into a buffer first so a template failure
// never leaves a half-written page.
func render(w http.ResponseWriter, status int, p *page) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, "layout", p); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}
