// Package server exposes charts over HTTP as JSON.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/litescript/ls-natal/internal/astro"
	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/logging"
	"github.com/litescript/ls-natal/internal/metrics"
	"github.com/litescript/ls-natal/internal/natal"
	"github.com/litescript/ls-natal/internal/state"
)

// RequestIDHeader carries the id assigned to each request.
const RequestIDHeader = "X-Request-ID"

// Computer produces charts. natal.Service satisfies it.
type Computer interface {
	Compute(ctx context.Context, req natal.Request) (*natal.Chart, error)
	Provider() string
}

// CacheStats reports cache counters. state.Manager satisfies it.
type CacheStats interface {
	Stats() state.Stats
}

// Options configures the server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Used when a request omits them.
	Observer    astro.Observer
	HouseSystem chart.HouseSystem
}

// Server serves the chart API.
type Server struct {
	opts    Options
	svc     Computer
	cache   CacheStats
	metrics *metrics.Collector
	log     *logging.Logger

	httpServer *http.Server
	newID      func() string
}

// New creates a server. cache and collector may be nil.
func New(svc Computer, opts Options, cache CacheStats, collector *metrics.Collector, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 60 * time.Second
	}
	return &Server{
		opts:    opts,
		svc:     svc,
		cache:   cache,
		metrics: collector,
		log:     log.WithComponent("server"),
		newID:   uuid.NewString,
	}
}

// Handler returns the routed handler with request ids, logging and metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /api/chart", s.instrument("/api/chart", http.HandlerFunc(s.handleChart)))
	mux.Handle("GET /healthz", s.instrument("/healthz", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening on %s", s.opts.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type ctxKey struct{}

// RequestID returns the id assigned to the request, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = s.newID()
		}
		w.Header().Set(RequestIDHeader, id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))

		d := time.Since(start)
		s.metrics.ObserveHTTP(route, rec.status, d)
		s.log.WithFields(logging.Fields{
			"request_id": id,
			"status":     rec.status,
			"route":      route,
		}).Debug("%s %s in %v", r.Method, r.URL.RequestURI(), d)
	})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRequest(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	c, err := s.svc.Compute(r.Context(), req)
	if s.cache != nil {
		s.metrics.SetCacheEntries(s.cache.Stats().Entries)
	}
	switch {
	case errors.Is(err, natal.ErrInvalidRequest):
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	case errors.Is(err, natal.ErrEphemeris):
		s.writeError(w, r, http.StatusBadGateway, err)
		return
	case err != nil:
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "text") {
		var buf bytes.Buffer
		natal.WriteSummaryTable(&buf, c)
		buf.WriteByte('\n')
		natal.WriteAspectTable(&buf, c)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := buf.WriteTo(w); err != nil {
			s.log.WithError(err).Warn("writing chart response")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := natal.ExportChart(c).WriteJSON(w); err != nil {
		s.log.WithError(err).Warn("writing chart response")
	}
}

// parseRequest reads date, time, lat, lon, house and label query parameters.
// Times are UTC.
func (s *Server) parseRequest(r *http.Request) (natal.Request, error) {
	q := r.URL.Query()

	t, err := natal.ParseMoment(q.Get("date"), q.Get("time"), time.UTC)
	if err != nil {
		return natal.Request{}, err
	}

	obs := s.opts.Observer
	if v := q.Get("lat"); v != "" {
		if obs.LatDeg, err = strconv.ParseFloat(v, 64); err != nil {
			return natal.Request{}, badParam("lat", v)
		}
		obs.Name = ""
	}
	if v := q.Get("lon"); v != "" {
		if obs.LonDeg, err = strconv.ParseFloat(v, 64); err != nil {
			return natal.Request{}, badParam("lon", v)
		}
		obs.Name = ""
	}
	if v := q.Get("place"); v != "" {
		obs.Name = v
	}

	hs := s.opts.HouseSystem
	if v := q.Get("house"); v != "" {
		var ok bool
		if hs, ok = chart.ParseHouseSystem(v); !ok {
			return natal.Request{}, badParam("house", v)
		}
	}

	req := natal.Request{
		Time:        t,
		Observer:    obs,
		HouseSystem: hs,
		Label:       q.Get("label"),
	}
	return req, req.Validate()
}

func badParam(name, value string) error {
	return &paramError{name: name, value: value}
}

type paramError struct {
	name, value string
}

func (e *paramError) Error() string {
	return "invalid " + e.name + " " + strconv.Quote(e.value)
}

func (e *paramError) Unwrap() error { return natal.ErrInvalidRequest }

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	id := RequestID(r.Context())
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).WithFields(logging.Fields{"request_id": id}).Error("chart request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: id})
}

type healthResponse struct {
	Status   string      `json:"status"`
	Provider string      `json:"provider"`
	Cache    *cacheStats `json:"cache,omitempty"`
}

type cacheStats struct {
	Entries   int `json:"entries"`
	Hits      int `json:"hits"`
	Misses    int `json:"misses"`
	Evictions int `json:"evictions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Provider: s.svc.Provider()}
	if s.cache != nil {
		st := s.cache.Stats()
		resp.Cache = &cacheStats{Entries: st.Entries, Hits: st.Hits, Misses: st.Misses, Evictions: st.Evictions}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
