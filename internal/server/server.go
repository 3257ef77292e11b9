// Package server exposes the hand-history pipeline over HTTP and WebSocket.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/lox/handreplay/internal/equity"
	"github.com/lox/handreplay/internal/phh"
	"github.com/lox/handreplay/internal/pipeline"
	"github.com/lox/handreplay/poker"
)

const (
	defaultMaxBodyBytes = 8 << 20
	shutdownTimeout     = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	Pipeline     *pipeline.Pipeline
	Equity       equity.Options
	Range        string // default opponent range for equity requests
	MaxBodyBytes int64
	Logger       *log.Logger
}

// Server serves replay, export and equity requests.
type Server struct {
	pipeline *pipeline.Pipeline
	equity   equity.Options
	rng      string
	maxBody  int64
	logger   *log.Logger
	upgrader websocket.Upgrader
	router   chi.Router
}

// New creates a server and its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		pipeline: opts.Pipeline,
		equity:   opts.Equity,
		rng:      opts.Range,
		maxBody:  opts.MaxBodyBytes,
		logger:   logger.WithPrefix("server"),
		upgrader: websocket.Upgrader{
			// Collaborators run their own tooling against this service.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if s.pipeline == nil {
		s.pipeline = pipeline.New(pipeline.Options{Logger: logger})
	}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBodyBytes
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/replay", s.handleReplay)
		r.Post("/phh", s.handleExport)
		r.Post("/equity", s.handleEquity)
		r.Get("/stream", s.handleStream)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler for all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("Listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readBody(w, r)
	if !ok {
		return
	}
	batch, err := s.pipeline.Run(r.Context(), text)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

// handleExport replays the body and returns every hand that replayed
// cleanly as a PHH session. Rejected fragments are counted in a header.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readBody(w, r)
	if !ok {
		return
	}
	batch, err := s.pipeline.Run(r.Context(), text)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	var hands []*phh.HandHistory
	skipped := batch.Failed()
	for _, res := range batch.Results {
		if !res.OK() {
			continue
		}
		h, err := phh.FromHand(res.Hand, res.Snapshots)
		if err != nil {
			s.logger.Warn("Skipping hand", "hand", res.Hand.HandID, "error", err)
			skipped++
			continue
		}
		hands = append(hands, h)
	}
	if len(hands) == 0 {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("no exportable hands in %d fragments", len(batch.Results)))
		return
	}

	var buf bytes.Buffer
	if err := phh.EncodeSession(&buf, hands); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/toml")
	w.Header().Set("X-Batch-Id", batch.ID.String())
	w.Header().Set("X-Skipped-Hands", fmt.Sprint(skipped))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// EquityRequest is the JSON body of POST /v1/equity.
type EquityRequest struct {
	Hero       string `json:"hero"`
	Board      string `json:"board,omitempty"`
	Opponents  int    `json:"opponents,omitempty"`
	Range      string `json:"range,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
}

func (s *Server) handleEquity(w http.ResponseWriter, r *http.Request) {
	var body EquityRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, s.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	req := equity.Request{Opponents: body.Opponents}
	var err error
	if req.Hero, err = poker.ParseCards(body.Hero); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Board, err = poker.ParseCards(body.Board); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	text := body.Range
	if text == "" {
		text = s.rng
	}
	if req.Range, err = equity.ParseRange(text); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	opts := s.equity
	if body.Iterations > 0 && (opts.Iterations == 0 || body.Iterations < opts.Iterations) {
		opts.Iterations = body.Iterations
	}
	res, err := equity.Estimate(r.Context(), req, opts)
	switch {
	case errors.Is(err, equity.ErrHoleCards), errors.Is(err, equity.ErrBoard),
		errors.Is(err, equity.ErrOpponents), errors.Is(err, poker.ErrDuplicateCard):
		writeError(w, http.StatusBadRequest, err)
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("body exceeds %d bytes", tooLarge.Limit))
			return "", false
		}
		writeError(w, http.StatusBadRequest, err)
		return "", false
	}
	return string(b), true
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
