package rpc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/config"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/node"
)

var Logger zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	Logger = zerolog.New(out).With().Timestamp().Str("component", "rpc").Logger()
}

// SetLogger allows setting a custom logger
func SetLogger(l zerolog.Logger) {
	Logger = l.With().Str("component", "rpc").Logger()
}

// Server wraps the HTTP server and provides lifecycle management
type Server struct {
	config       *config.ServerConfig
	httpServer   *http.Server
	mux          *chi.Mux
	otelShutdown func(context.Context) error
}

// NewServer builds the HTTP API in front of n. metrics should be the same
// instance whose ObserveTransition was handed to the router.
func NewServer(ctx context.Context, cfg *config.ServerConfig, n *node.Node, metrics *Metrics) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server config is required")
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	var otelShutdown func(context.Context) error
	if otelCfg := OTelConfigFrom(cfg); otelCfg.enabled() {
		shutdown, err := NewOTelSDK(ctx, otelCfg)
		if err != nil {
			// the API still works without telemetry
			Logger.Error().Err(err).Msg("Failed to initialize OpenTelemetry")
		} else {
			otelShutdown = shutdown
		}
	}

	mux := chi.NewMux()
	mux.Use(zerologMiddleware)
	mux.Use(zerologRecoverer)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Compress(5))
	mux.Use(middleware.Timeout(60 * time.Second))

	if cfg.RatePerMinute > 0 {
		mux.Use(httprate.LimitByIP(cfg.RatePerMinute, time.Minute))
	}
	if cfg.MaxConcurrentRequests > 0 {
		mux.Use(middleware.Throttle(cfg.MaxConcurrentRequests))
	}

	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": cfg.ServiceName})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	mux.Mount("/v1", newHandlers(n, metrics).routes())

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           h2c.NewHandler(newCORSHandler(cfg.AllowedOrigins, mux), &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{
		config:       cfg,
		httpServer:   httpServer,
		mux:          mux,
		otelShutdown: otelShutdown,
	}, nil
}

// Handler returns the routed handler without CORS or h2c, for tests.
func (s *Server) Handler() http.Handler { return s.mux }

func zerologMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		Logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func zerologRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				Logger.Error().
					Interface("panic", rvr).
					Str("path", r.URL.Path).
					Msg("Recovered from panic")
				writeError(w, fmt.Errorf("internal error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func newCORSHandler(allowedOrigins []string, next http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	// wildcard origins cannot be combined with credentials
	allowCredentials := !(len(allowedOrigins) == 1 && allowedOrigins[0] == "*")

	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
		},
		AllowedHeaders: []string{
			"Accept",
			"Accept-Encoding",
			"Content-Encoding",
			"Content-Type",
			"X-Request-Id",
		},
		ExposedHeaders:   []string{"Content-Encoding"},
		AllowCredentials: allowCredentials,
		MaxAge:           int(2 * time.Hour / time.Second),
	}).Handler(next)
}

// Start begins serving without TLS
func (s *Server) Start() error {
	s.logServerInfo("http")
	return s.httpServer.ListenAndServe()
}

// StartTLS begins serving with TLS
func (s *Server) StartTLS(certFile, keyFile string) error {
	s.logServerInfo("https")
	return s.httpServer.ListenAndServeTLS(certFile, keyFile)
}

func (s *Server) logServerInfo(protocol string) {
	Logger.Info().
		Str("address", s.httpServer.Addr).
		Str("protocol", protocol).
		Msg("DEX router API starting")

	Logger.Info().Msg("Available endpoints:")
	Logger.Info().Msg("\tSwap: POST /v1/swap")
	Logger.Info().Msg("\tQuote: POST /v1/quote")
	Logger.Info().Msg("\tVenues: GET /v1/venues")
	Logger.Info().Msg("\tPools: GET /v1/pools")
	Logger.Info().Msg("\tEvents: GET /v1/events")
	Logger.Info().Msg("\tBalances: GET /v1/balances/{account}/{asset}")
	Logger.Info().Msg("\tHealth: /health")
	Logger.Info().Msg("\tReady: /ready")
	Logger.Info().Msg("\tMetrics: /metrics")
}

// Shutdown stops the HTTP server first and then flushes telemetry.
func (s *Server) Shutdown(ctx context.Context) error {
	Logger.Info().Msg("Shutting down API server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		Logger.Error().Err(err).Msg("Error shutting down HTTP server")
	}

	if s.otelShutdown != nil {
		if err := s.otelShutdown(ctx); err != nil {
			Logger.Error().Err(err).Msg("Error shutting down OpenTelemetry")
			return err
		}
	}

	Logger.Info().Msg("Server shutdown complete")
	return nil
}
