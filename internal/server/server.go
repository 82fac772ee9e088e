// Package server serves the browser interview page.
package server

import (
	"context"
	_ "embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/conversation"
	"github.com/spigell/interview-coach/internal/document"
	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/prompts"
)

const (
	cookieName      = "interview_session"
	shutdownTimeout = 10 * time.Second
	// Upload limit: the document itself plus the other form fields.
	maxFormBytes = document.MaxDocumentBytes + 1<<20
)

//go:embed templates/index.html
var indexTemplate string

var page = template.Must(template.New("index").Parse(indexTemplate))

type Server struct {
	service *interview.Service
	store   *Store
	logger  *zap.Logger
	mux     *http.ServeMux

	// SecureCookie marks the session cookie as https only.
	SecureCookie bool
}

type pageData struct {
	Companies    []string
	Designations []string
	Rounds       []prompts.RoundType
	Started      bool
	Display      []conversation.Entry
	Evaluation   string
	Notice       string
}

func New(service *interview.Service, store *Store, log *zap.Logger) *Server {
	s := &Server{
		service: service,
		store:   store,
		logger:  logger.WithFields(log),
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /{$}", s.index)
	s.mux.HandleFunc("POST /start", s.start)
	s.mux.HandleFunc("POST /answer", s.answer)
	s.mux.HandleFunc("POST /evaluate", s.evaluate)
	s.mux.HandleFunc("POST /reset", s.reset)
	s.mux.HandleFunc("GET /healthz", s.healthz)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves until ctx is cancelled and then shuts down gracefully.
// The session janitor runs for the lifetime of the server.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.store.Janitor(ctx, 0)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// slotFor returns the caller's interview, creating one and setting the cookie
// when there is none or it has expired.
func (s *Server) slotFor(w http.ResponseWriter, r *http.Request) (string, *slot) {
	if c, err := r.Cookie(cookieName); err == nil {
		if sl, ok := s.store.get(c.Value); ok {
			return c.Value, sl
		}
	}

	id, sl := s.store.create()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	return id, sl
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	_, sl := s.slotFor(w, r)

	sl.mu.Lock()
	data := pageData{
		Companies:    prompts.Companies,
		Designations: prompts.Designations,
		Rounds:       prompts.RoundTypes(),
		Started:      sl.session.Started(),
		Display:      sl.session.Display(),
		Evaluation:   sl.evaluation,
		Notice:       sl.notice,
	}
	sl.notice = ""
	sl.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, data); err != nil {
		s.logger.Error("rendering page", zap.Error(err))
	}
}

func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	id, sl := s.slotFor(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.fail(w, r, sl, id, "reading the form", err)
		return
	}

	setup, err := decodeSetup(r.Form)
	if err != nil {
		s.fail(w, r, sl, id, "reading the interview setup", err)
		return
	}

	setup.Resume, err = readResume(r.MultipartForm)
	if err != nil {
		s.fail(w, r, sl, id, "reading the resume", err)
		return
	}

	sl.mu.Lock()
	_, err = s.service.Start(r.Context(), sl.session, setup)
	if err == nil {
		sl.evaluation = ""
	}
	sl.mu.Unlock()

	s.finish(w, r, sl, id, "starting the interview", err)
}

func (s *Server) answer(w http.ResponseWriter, r *http.Request) {
	id, sl := s.slotFor(w, r)

	sl.mu.Lock()
	_, err := s.service.Answer(r.Context(), sl.session, r.PostFormValue("answer"))
	sl.mu.Unlock()

	s.finish(w, r, sl, id, "getting the next question", err)
}

func (s *Server) evaluate(w http.ResponseWriter, r *http.Request) {
	id, sl := s.slotFor(w, r)

	sl.mu.Lock()
	evaluation, err := s.service.Evaluate(r.Context(), sl.session)
	if err == nil {
		sl.evaluation = evaluation
	}
	sl.mu.Unlock()

	s.finish(w, r, sl, id, "evaluating the interview", err)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(cookieName); err == nil {
		s.store.remove(c.Value)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// finish redirects back to the page. Refusals are silent no-ops; failures are
// shown to the user once.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, sl *slot, id, action string, err error) {
	switch {
	case err == nil:
	case interview.IsRefusal(err):
		s.logger.Debug("action refused",
			zap.String(logger.FieldSession, id),
			zap.String("action", action),
			zap.String("reason", err.Error()),
		)
	default:
		s.fail(w, r, sl, id, action, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, sl *slot, id, action string, err error) {
	s.logger.Error(action, zap.String(logger.FieldSession, id), zap.Error(err))

	sl.mu.Lock()
	sl.notice = "Failed " + action + ": " + err.Error()
	sl.mu.Unlock()

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
