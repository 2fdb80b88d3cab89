// Package site serves the server-rendered console: a page shell switching
// between the home, prediction and results views.
package site

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/okian/fraudlens/internal/adapters/http/api"
	"github.com/okian/fraudlens/internal/adapters/repository"
	"github.com/okian/fraudlens/internal/adapters/session"
	"github.com/okian/fraudlens/internal/domain/evaluation"
	"github.com/okian/fraudlens/internal/domain/form"
	"github.com/okian/fraudlens/internal/domain/scoring"
	"github.com/okian/fraudlens/internal/domain/shell"
	"github.com/okian/fraudlens/pkg/logger"
)

// CookieName holds the session id.
const CookieName = "fraudlens_session"

// Dependencies required by the site handlers.
type Dependencies interface {
	Form(ctx context.Context) (*form.Form, error)
	PredictValues(ctx context.Context, values url.Values) (scoring.Result, error)
	Evaluate(ctx context.Context) (*evaluation.Result, error)
	ROCChart(ctx context.Context) ([]byte, error)
	ConfusionChart(ctx context.Context) ([]byte, error)

	Session(ctx context.Context, id string) session.Session
	Navigate(ctx context.Context, sess session.Session, act shell.Action) (session.Session, error)
	Remember(ctx context.Context, sess session.Session, values url.Values, res *scoring.Result) session.Session
}

// Site renders the console pages.
type Site struct {
	deps   Dependencies
	logger logger.Logger
}

// New creates the site over deps.
func New(deps Dependencies, l logger.Logger) *Site {
	if l == nil {
		l = logger.Get()
	}
	return &Site{deps: deps, logger: l}
}

// Register attaches the page routes to mux.
func (s *Site) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/", api.MetricsMiddleware(s.HandleRoot, "page"))
	mux.HandleFunc("/nav", api.MetricsMiddleware(s.HandleNav, "nav"))
	mux.HandleFunc("/predict", api.MetricsMiddleware(s.HandlePredict, "page_predict"))
	mux.HandleFunc("/charts/roc.svg", api.MetricsMiddleware(s.chart(s.deps.ROCChart), "chart_roc"))
	mux.HandleFunc("/charts/confusion.svg", api.MetricsMiddleware(s.chart(s.deps.ConfusionChart), "chart_confusion"))
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(FS())))
}

// session loads the browser's session and refreshes its cookie.
func (s *Site) session(w http.ResponseWriter, r *http.Request) session.Session {
	var id string
	if c, err := r.Cookie(CookieName); err == nil {
		id = c.Value
	}
	sess := s.deps.Session(r.Context(), id)
	if sess.ID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// HandleRoot handles GET / and renders the session's current view.
func (s *Site) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	sess := s.session(w, r)
	s.renderView(w, r, sess, http.StatusOK, "", nil)
}

// HandleNav handles POST /nav: it applies the posted action and redirects
// back to /.
func (s *Site) HandleNav(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	sess := s.session(w, r)
	if err := r.ParseForm(); err != nil {
		s.renderView(w, r, sess, http.StatusBadRequest, ErrBadPost.Error(), nil)
		return
	}
	if _, err := s.deps.Navigate(r.Context(), sess, shell.Action(r.PostForm.Get("action"))); err != nil {
		s.renderView(w, r, sess, http.StatusBadRequest, err.Error(), nil)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandlePredict handles POST /predict from the prediction view. A valid
// submission is scored and the browser is redirected to /; an invalid one
// keeps the form with the messages.
func (s *Site) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	sess := s.session(w, r)
	if sess.View != shell.Prediction {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderView(w, r, sess, http.StatusBadRequest, ErrBadPost.Error(), nil)
		return
	}
	values := r.PostForm

	res, err := s.deps.PredictValues(r.Context(), values)
	if err != nil {
		sess = s.deps.Remember(r.Context(), sess, values, nil)
		status := http.StatusUnprocessableEntity
		if fatal(err) {
			status = http.StatusInternalServerError
		}
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			s.renderView(w, r, sess, status, "Please correct the highlighted fields.", verr.Fields)
			return
		}
		s.renderView(w, r, sess, status, "Error processing: "+err.Error(), nil)
		return
	}
	s.deps.Remember(r.Context(), sess, values, &res)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// renderView renders sess's view. Fatal load or schema failures replace the
// view content with an error panel and a 500.
func (s *Site) renderView(w http.ResponseWriter, r *http.Request, sess session.Session, status int, notice string, problems map[string]string) {
	ctx := r.Context()
	p := newPage(sess.View)
	p.Notice = notice

	switch sess.View {
	case shell.Prediction:
		f, err := s.deps.Form(ctx)
		if err != nil {
			s.logger.Error(ctx, "prediction view unavailable", logger.Error(err))
			p.Notice = "Error loading the model: " + err.Error()
			status = http.StatusInternalServerError
			break
		}
		p.Form = newFormView(f, sess.Values, problems)
		if sess.Last != nil && problems == nil && notice == "" {
			p.Result = newResultView(sess.Last)
		}
	case shell.Results:
		res, err := s.deps.Evaluate(ctx)
		if err != nil {
			s.logger.Error(ctx, "results view unavailable", logger.Error(err))
			p.Notice = "Error loading resources: " + err.Error()
			status = http.StatusInternalServerError
			break
		}
		p.Evaluation = newEvaluationView(res)
	}

	if err := render(w, status, p); err != nil {
		s.logger.Error(ctx, "page render failed", logger.String("view", string(sess.View)), logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// chart serves an SVG produced by fn.
func (s *Site) chart(fn func(context.Context) ([]byte, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		b, err := fn(r.Context())
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, repository.ErrResourceUnavailable) {
				status = http.StatusServiceUnavailable
			}
			s.logger.Warn(r.Context(), "chart unavailable", logger.String("path", r.URL.Path), logger.Error(err))
			http.Error(w, err.Error(), status)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(b)
	}
}

// fatal reports whether err means the prediction view cannot work at all,
// as opposed to a problem with this submission.
func fatal(err error) bool {
	return errors.Is(err, repository.ErrResourceUnavailable) ||
		!(errors.Is(err, form.ErrInvalidInput) ||
			errors.Is(err, scoring.ErrMissingColumn) ||
			errors.Is(err, scoring.ErrScoringFailed) ||
			errors.Is(err, scoring.ErrInvalidOutput))
}
