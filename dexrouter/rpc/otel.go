package rpc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/config"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
)

const tracerName = "github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/rpc"

// OTelConfig configures the OpenTelemetry exporters
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	EnableTracing bool
	UseOTLPTraces bool
	OTLPTracesURL string

	EnableMetrics  bool
	UsePrometheus  bool // bridge OTel metrics into the /metrics registry
	UseOTLPMetrics bool
	OTLPMetricsURL string

	EnableLogs  bool
	UseOTLPLogs bool
	OTLPLogsURL string

	// InsecureOTLP sends telemetry over plain HTTP. Local development only.
	InsecureOTLP bool
	// Optional TLS material used when connecting to the collector
	OTLPClientCertFile string
	OTLPClientKeyFile  string
	OTLPCACertFile     string

	// DevelopmentMode writes every signal to stdout
	DevelopmentMode bool
}

// OTelConfigFrom copies the telemetry settings out of the server config.
func OTelConfigFrom(c *config.ServerConfig) *OTelConfig {
	return &OTelConfig{
		ServiceName:        c.ServiceName,
		ServiceVersion:     c.ServiceVersion,
		Environment:        c.Environment,
		EnableTracing:      c.EnableTracing,
		UseOTLPTraces:      c.UseOTLPTraces,
		OTLPTracesURL:      c.OTLPTracesURL,
		EnableMetrics:      c.EnableMetrics,
		UsePrometheus:      c.UsePrometheus,
		UseOTLPMetrics:     c.UseOTLPMetrics,
		OTLPMetricsURL:     c.OTLPMetricsURL,
		EnableLogs:         c.EnableLogs,
		UseOTLPLogs:        c.UseOTLPLogs,
		OTLPLogsURL:        c.OTLPLogsURL,
		InsecureOTLP:       c.InsecureOTLP,
		OTLPClientCertFile: c.OTLPClientCertFile,
		OTLPClientKeyFile:  c.OTLPClientKeyFile,
		OTLPCACertFile:     c.OTLPCACertFile,
		DevelopmentMode:    c.DevelopmentMode,
	}
}

func (c *OTelConfig) enabled() bool {
	return c != nil && (c.EnableTracing || c.EnableMetrics || c.EnableLogs)
}

// NewOTelSDK installs the global tracer, meter and logger providers. The
// returned function flushes and stops all of them.
func NewOTelSDK(ctx context.Context, cfg *OTelConfig) (shutdown func(context.Context) error, err error) {
	var stops []func(context.Context) error
	shutdown = func(ctx context.Context) error {
		var errs error
		for _, stop := range stops {
			errs = errors.Join(errs, stop(ctx))
		}
		stops = nil
		return errs
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, shutdown(ctx))
		}
	}()

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentName(cfg.Environment),
		),
	)
	if err != nil {
		return shutdown, fmt.Errorf("failed to create resource: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if cfg.EnableTracing {
		tp, err := newTracerProvider(ctx, res, cfg)
		if err != nil {
			return shutdown, err
		}
		stops = append(stops, tp.Shutdown)
		otel.SetTracerProvider(tp)
	}
	if cfg.EnableMetrics {
		mp, err := newMeterProvider(ctx, res, cfg)
		if err != nil {
			return shutdown, err
		}
		stops = append(stops, mp.Shutdown)
		otel.SetMeterProvider(mp)
	}
	if cfg.EnableLogs {
		lp, err := newLoggerProvider(ctx, res, cfg)
		if err != nil {
			return shutdown, err
		}
		stops = append(stops, lp.Shutdown)
		global.SetLoggerProvider(lp)
	}
	return shutdown, nil
}

// clientTLS returns nil when the collector is reached over plain HTTP.
func clientTLS(cfg *OTelConfig) (*tls.Config, error) {
	if cfg.InsecureOTLP {
		return nil, nil
	}
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.OTLPCACertFile != "" {
		pem, err := os.ReadFile(cfg.OTLPCACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("failed to append CA certificate")
		}
		tlsConfig.RootCAs = pool
	}
	if cfg.OTLPClientCertFile != "" && cfg.OTLPClientKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.OTLPClientCertFile, cfg.OTLPClientKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	return tlsConfig, nil
}

func newTracerProvider(ctx context.Context, res *resource.Resource, cfg *OTelConfig) (*trace.TracerProvider, error) {
	var exporter trace.SpanExporter
	var err error
	switch {
	case cfg.DevelopmentMode:
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case cfg.UseOTLPTraces:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPTracesURL)}
		if cfg.InsecureOTLP {
			opts = append(opts, otlptracehttp.WithInsecure())
		} else if tlsConfig, tlsErr := clientTLS(cfg); tlsErr != nil {
			return nil, fmt.Errorf("failed to build TLS config for traces: %w", tlsErr)
		} else {
			opts = append(opts, otlptracehttp.WithTLSClientConfig(tlsConfig))
		}
		exporter, err = otlptracehttp.New(ctx, opts...)
	default:
		return trace.NewTracerProvider(trace.WithResource(res)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	return trace.NewTracerProvider(
		trace.WithBatcher(exporter, trace.WithBatchTimeout(5*time.Second)),
		trace.WithResource(res),
	), nil
}

func newMeterProvider(ctx context.Context, res *resource.Resource, cfg *OTelConfig) (*metric.MeterProvider, error) {
	opts := []metric.Option{metric.WithResource(res)}

	if cfg.UsePrometheus {
		exporter, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		opts = append(opts, metric.WithReader(exporter))
	}

	if cfg.UseOTLPMetrics {
		var exporter metric.Exporter
		var err error
		interval := 60 * time.Second
		if cfg.DevelopmentMode {
			exporter, err = stdoutmetric.New()
			interval = 10 * time.Second
		} else {
			mopts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.OTLPMetricsURL)}
			if cfg.InsecureOTLP {
				mopts = append(mopts, otlpmetrichttp.WithInsecure())
			} else if tlsConfig, tlsErr := clientTLS(cfg); tlsErr != nil {
				return nil, fmt.Errorf("failed to build TLS config for metrics: %w", tlsErr)
			} else {
				mopts = append(mopts, otlpmetrichttp.WithTLSClientConfig(tlsConfig))
			}
			exporter, err = otlpmetrichttp.New(ctx, mopts...)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create metric exporter: %w", err)
		}
		opts = append(opts, metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(interval))))
	}

	return metric.NewMeterProvider(opts...), nil
}

func newLoggerProvider(ctx context.Context, res *resource.Resource, cfg *OTelConfig) (*log.LoggerProvider, error) {
	var exporter log.Exporter
	var err error
	switch {
	case cfg.DevelopmentMode:
		exporter, err = stdoutlog.New()
	case cfg.UseOTLPLogs:
		opts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.OTLPLogsURL)}
		if cfg.InsecureOTLP {
			opts = append(opts, otlploghttp.WithInsecure())
		} else if tlsConfig, tlsErr := clientTLS(cfg); tlsErr != nil {
			return nil, fmt.Errorf("failed to build TLS config for logs: %w", tlsErr)
		} else {
			opts = append(opts, otlploghttp.WithTLSClientConfig(tlsConfig))
		}
		exporter, err = otlploghttp.New(ctx, opts...)
	default:
		return log.NewLoggerProvider(log.WithResource(res)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create log exporter: %w", err)
	}
	return log.NewLoggerProvider(
		log.WithProcessor(log.NewBatchProcessor(exporter)),
		log.WithResource(res),
	), nil
}

// startSwapSpan opens a span around one swap call. The global tracer provider
// is a no-op unless tracing is enabled.
func startSwapSpan(ctx context.Context, name string, req models.SwapRequest) (context.Context, oteltrace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, oteltrace.WithAttributes(
		attribute.String("dex.who", req.Who),
		attribute.StringSlice("dex.path", req.Path),
		attribute.String("dex.amount_in", req.AmountIn),
	))
}

func endSpan(span oteltrace.Span, err error, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrorKind(err))
	}
	span.End()
}
