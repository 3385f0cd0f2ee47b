package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stock-advisor/internal/chart"
)

const defaultRequestTimeout = 20 * time.Second

type ServerConfig struct {
	RequestTimeout time.Duration
	Version        string
	// Renderer enables the chart_render tool when set.
	Renderer *chart.Renderer
}

func NewServer(tracer trace.Tracer, stocks StockService, cfg ServerConfig) *sdkmcp.Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}

	srv := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "stock-advisor-mcp",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: "Use these tools/resources to analyze Indian equities: indicators, realtime quotes and BUY/HOLD/SELL recommendations. Output is informational, not financial advice.",
		Logger:       slog.Default(),
	})
	srv.AddReceivingMiddleware(requestMiddleware(tracer, cfg.RequestTimeout))

	registerTools(srv, stocks, cfg.Renderer)
	registerResources(srv, stocks)
	return srv
}

func NewHTTPTransportHandler(server *sdkmcp.Server, cfg HTTPHandlerConfig) http.Handler {
	base := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, &sdkmcp.StreamableHTTPOptions{})
	return wrapHTTPHandler(base, cfg)
}

// requestMiddleware bounds every incoming request by timeout, wraps it in a
// span when a tracer is set and logs its outcome.
func requestMiddleware(tracer trace.Tracer, timeout time.Duration) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			name := mcpSpanName(method, req)
			var span trace.Span
			if tracer != nil {
				ctx, span = tracer.Start(ctx, name, trace.WithAttributes(requestAttrs(method, req)...))
				defer span.End()
			}

			start := time.Now()
			result, err := next(ctx, method, req)
			took := time.Since(start)

			if err != nil {
				if span != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, err.Error())
				}
				log.Warn().Err(err).Str("op", name).Dur("took", took).Msg("mcp request failed")
				return result, err
			}
			log.Debug().Str("op", name).Dur("took", took).Msg("mcp request")
			return result, nil
		}
	}
}

func requestAttrs(method string, req sdkmcp.Request) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("mcp.method", method)}
	switch r := req.(type) {
	case *sdkmcp.CallToolRequest:
		if r.Params != nil {
			attrs = append(attrs, attribute.String("mcp.tool", strings.TrimSpace(r.Params.Name)))
		}
	case *sdkmcp.ReadResourceRequest:
		if r.Params != nil {
			attrs = append(attrs, attribute.String("mcp.resource.uri", strings.TrimSpace(r.Params.URI)))
		}
	}
	return attrs
}

func mcpSpanName(method string, req sdkmcp.Request) string {
	switch method {
	case "tools/call":
		if r, ok := req.(*sdkmcp.CallToolRequest); ok && r.Params != nil {
			if name := strings.TrimSpace(r.Params.Name); name != "" {
				return "mcp.tool." + strings.ReplaceAll(name, "/", ".")
			}
		}
		return "mcp.tool.call"
	case "resources/read":
		return "mcp.resource.read"
	}
	return "mcp." + strings.ReplaceAll(method, "/", ".")
}
