// Package server exposes the aggregation API over HTTP. It only reads;
// every write to the store happens in the pipeline before the server
// starts.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/petar-djukic/courier/internal/metrics"
	"github.com/petar-djukic/courier/internal/sqlite"
)

const apiPrefix = "/api/v1.0"

var errMissingBorough = errors.New("borough query parameter is required")

// Metadata frames every response so clients can tell what they asked
// for and how much came back.
type Metadata struct {
	CurrentRoute string            `json:"current_route"`
	HomeRoute    string            `json:"home_route"`
	DataPoints   int               `json:"data_points"`
	Info         string            `json:"info"`
	Params       map[string]string `json:"params"`
	Format       string            `json:"format"`
}

// Envelope is the uniform response shape of the API.
type Envelope struct {
	Metadata Metadata `json:"metadata"`
	Results  any      `json:"results"`
}

// Server is the HTTP API over one opened store.
type Server struct {
	router *chi.Mux
	store  *sqlite.Store
	log    *slog.Logger
	srv    *http.Server
}

// New builds the server and its routes.
func New(addr string, store *sqlite.Store, log *slog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		store:  store,
		log:    log,
	}
	s.routes()

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route(apiPrefix, func(r chi.Router) {
		r.Get("/map", s.handleMap)
		r.Get("/top-cuisines", s.handleTopCuisines)
		r.Get("/cuisine-distributions", s.handleCuisineDistributions)
		r.Get("/borough-summaries", s.handleBoroughSummaries)
	})
}

// requestLogger logs one line per request after it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request handled",
			"method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration", time.Since(start))
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	routes := []string{
		apiPrefix + "/map",
		apiPrefix + "/top-cuisines?borough=<name>",
		apiPrefix + "/cuisine-distributions",
		apiPrefix + "/borough-summaries",
	}
	s.writeEnvelope(w, r, "restaurant aggregation API", nil, len(routes), routes)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	defer s.observe("map")()
	markers, err := s.store.Markers()
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.writeEnvelope(w, r, "all restaurants with coordinates and dimensions", nil, len(markers), markers)
}

func (s *Server) handleTopCuisines(w http.ResponseWriter, r *http.Request) {
	defer s.observe("top-cuisines")()
	borough := r.URL.Query().Get("borough")
	if borough == "" {
		s.writeError(w, r, http.StatusBadRequest, errMissingBorough)
		return
	}
	counts, err := s.store.TopCuisines(borough)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	params := map[string]string{"borough": borough}
	s.writeEnvelope(w, r, "cuisine counts for one borough, most common first", params, len(counts), counts)
}

func (s *Server) handleCuisineDistributions(w http.ResponseWriter, r *http.Request) {
	defer s.observe("cuisine-distributions")()
	shares, err := s.store.CuisineDistribution()
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.writeEnvelope(w, r, "citywide share of each cuisine", nil, len(shares), shares)
}

func (s *Server) handleBoroughSummaries(w http.ResponseWriter, r *http.Request) {
	defer s.observe("borough-summaries")()
	summaries, err := s.store.BoroughSummaries()
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.writeEnvelope(w, r, "restaurant count and population per borough", nil, len(summaries), summaries)
}

// observe times one endpoint invocation.
func (s *Server) observe(endpoint string) func() {
	start := time.Now()
	return func() {
		metrics.QueryDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}

func (s *Server) writeEnvelope(w http.ResponseWriter, r *http.Request, info string,
	params map[string]string, points int, results any) {

	if params == nil {
		params = map[string]string{}
	}
	env := Envelope{
		Metadata: Metadata{
			CurrentRoute: r.URL.Path,
			HomeRoute:    "/",
			DataPoints:   points,
			Info:         info,
			Params:       params,
			Format:       "json",
		},
		Results: results,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(env); err != nil {
		s.log.Error("encoding response failed", "path", r.URL.Path, "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.log.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("http server shutting down")
	return s.srv.Shutdown(ctx)
}
