package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	rkerrors "github.com/vango-dev/routekit/internal/errors"
	"github.com/vango-dev/routekit/pkg/dom"
	"github.com/vango-dev/routekit/pkg/routepath"
	"github.com/vango-dev/routekit/pkg/router"
)

// Server exposes a router over HTTP for inspection and drives navigations
// from websocket clients.
type Server struct {
	router   *router.Router
	doc      dom.Document
	gatherer prometheus.Gatherer
	hub      *Hub
	mux      chi.Router
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithDocument sets the document that inbound transitionend messages are
// dispatched on.
func WithDocument(doc dom.Document) Option {
	return func(s *Server) { s.doc = doc }
}

// WithMetrics mounts /metrics for the given gatherer.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a server for r. Every completed navigation is broadcast to
// websocket clients.
func New(r *router.Router, opts ...Option) *Server {
	s := &Server{
		router: r,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "devserver")
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.hub = NewHub(s.logger, s.handleMessage)

	r.Observe(func(res router.Result) {
		s.hub.Broadcast(navigationMessage(res))
	})

	s.mux = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	mux := chi.NewRouter()
	mux.Use(chimw.RealIP)
	mux.Use(chimw.Recoverer)

	mux.Route("/api", func(api chi.Router) {
		api.Get("/routes", s.handleRoutes)
		api.Get("/routes/{selector}", s.handleRoute)
		api.Get("/uri", s.handleURI)
		api.Get("/current", s.handleCurrent)
		api.Get("/document", s.handleDocument)
		api.Post("/navigate", s.handleNavigate)
		api.Post("/back", s.handleHistory(s.router.Back))
		api.Post("/forward", s.handleHistory(s.router.Forward))
	})
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	mux.Get("/ws", s.hub.HandleWebSocket)
	return mux
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspector listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return rkerrors.New("E081").Wrap(err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return rkerrors.New("E081").Wrap(err)
	}
	return nil
}

// Close cancels websocket driven navigations and disconnects clients.
func (s *Server) Close() {
	s.cancel()
	s.hub.Close()
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	list := s.router.RouteList()
	records := make([]*router.Record, 0, len(list))
	for _, path := range list {
		if rec := s.router.Route(path); rec != nil {
			records = append(records, rec)
		}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	selector := chi.URLParam(r, "selector")
	rec := s.router.Route(selector)
	if rec == nil {
		// Paths arrive without their leading slash.
		rec = s.router.Route("/" + selector)
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no route " + selector})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleURI(w http.ResponseWriter, r *http.Request) {
	var raw []string
	if v := r.URL.Query().Get("url"); v != "" {
		raw = append(raw, v)
	}
	u, err := s.router.URI(raw...)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.router.CurrentRoute())
}

type bodyRenderer interface {
	Body() (string, error)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.doc.(bodyRenderer)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no document loaded"})
		return
	}
	body, err := doc.Body()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

type navigateRequest struct {
	URL     string         `json:"url"`
	Replace bool           `json:"replace"`
	Query   map[string]any `json:"query"`
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, rkerrors.New("E080").WithDetail("invalid JSON body").Wrap(err))
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, rkerrors.New("E080").WithDetail("url is required"))
		return
	}
	target, err := clientTarget(req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.router.Navigate(r.Context(), target, navigateOptions(req.Replace, req.Query)...)
	s.writeResult(w, res, err)
}

func (s *Server) handleHistory(fn func(context.Context) (router.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := fn(r.Context())
		s.writeResult(w, res, err)
	}
}

func (s *Server) writeResult(w http.ResponseWriter, res router.Result, err error) {
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:  err.Error(),
			Code:   rkerrors.Code(err),
			Status: res.Status.String(),
		})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMessage(conn *websocket.Conn, msg Message) {
	switch msg.Type {
	case TypeTransitionEnd:
		if err := s.dispatchTransitionEnd(msg.Target); err != nil {
			s.hub.Send(conn, Message{Type: TypeError, Error: err.Error(), Target: msg.Target})
		}
	case TypeNavigate, TypeBack, TypeForward:
		// Navigations may wait on transitionend messages from this same
		// connection, so they must not block the read loop.
		go s.navigateFromClient(conn, msg)
	default:
		s.hub.Send(conn, Message{Type: TypeError, Error: "unknown message type " + string(msg.Type)})
	}
}

func (s *Server) dispatchTransitionEnd(target string) error {
	if s.doc == nil {
		return errors.New("no document loaded")
	}
	event := s.doc.TransitionEvent()
	if event == "" {
		return errors.New("document does not support transitions")
	}
	elements, err := s.doc.QuerySelectorAll(target)
	if err != nil {
		return err
	}
	for _, el := range elements {
		el.Dispatch(event)
	}
	s.logger.Debug("dispatched transition end", "target", target, "elements", len(elements))
	return nil
}

func (s *Server) navigateFromClient(conn *websocket.Conn, msg Message) {
	var err error
	switch msg.Type {
	case TypeBack:
		_, err = s.router.Back(s.ctx)
	case TypeForward:
		_, err = s.router.Forward(s.ctx)
	default:
		var target string
		if target, err = clientTarget(msg.URL); err == nil {
			_, err = s.router.Navigate(s.ctx, target, navigateOptions(msg.Replace, msg.Query)...)
		}
	}
	if err != nil {
		s.hub.Send(conn, Message{Type: TypeError, Error: err.Error(), URL: msg.URL})
	}
}

// clientTarget accepts only in-app paths from clients.
func clientTarget(raw string) (string, error) {
	target, err := routepath.CanonicalizeAndValidateNavPath(raw)
	if err != nil {
		return "", rkerrors.New("E042").WithDetail(fmt.Sprintf("%q is not an in-app path", raw)).Wrap(err)
	}
	return target, nil
}

func navigateOptions(replace bool, query map[string]any) []router.NavigateOption {
	var opts []router.NavigateOption
	if replace {
		opts = append(opts, router.WithReplace())
	}
	if len(query) > 0 {
		opts = append(opts, router.WithQuery(query))
	}
	return opts
}

func navigationMessage(res router.Result) Message {
	msg := Message{
		Type:   TypeNavigation,
		Status: res.Status.String(),
		Route:  res.Route,
	}
	if res.From != nil {
		msg.From = res.From.Full
	}
	return msg
}

type errorBody struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Status string `json:"status,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error(), Code: rkerrors.Code(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Debug("response encode failed", "error", err)
	}
}
