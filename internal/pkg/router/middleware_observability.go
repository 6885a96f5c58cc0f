package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/portal/internal/pkg/config"
	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// maxLoggedBodyBytes caps what is buffered for the request and response logs.
const maxLoggedBodyBytes = 16 * 1024

// responseRecorder captures the status, the size and, for JSON replies, the
// first maxLoggedBodyBytes of the body.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	written int
	body    *bytes.Buffer
	capped  bool
	err     error
}

func (w *responseRecorder) WriteHeader(code int) {
	w.status = code
	if w.body != nil && !isJSON(w.Header().Get("Content-Type")) {
		w.body = nil
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}

	if w.body != nil && !w.capped {
		room := maxLoggedBodyBytes - w.body.Len()
		if len(p) > room {
			w.body.Write(p[:room])
			w.capped = true
		} else {
			w.body.Write(p)
		}
	}

	n, err := w.ResponseWriter.Write(p)
	w.written += n
	return n, err
}

// SetError keeps the handler error for the span.
func (w *responseRecorder) SetError(err error) {
	w.err = err
}

func (w *responseRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *responseRecorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && (mt == "application/json" || mt == "application/problem+json")
}

// logBody renders a captured body for slog. JSON is decoded so the log
// handler can mask sensitive keys inside it; anything else is summarised.
func logBody(contentType string, body []byte, truncated bool) any {
	if len(body) == 0 {
		return nil
	}
	if truncated || !isJSON(contentType) {
		return map[string]any{"bytes": len(body), "truncated": truncated}
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return map[string]any{"bytes": len(body), "invalid_json": true}
	}
	return v
}

// peekBody reads up to maxLoggedBodyBytes of the request body and puts the
// bytes back so the handler still sees the whole stream.
func peekBody(r *http.Request) ([]byte, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, false
	}

	//nolint:errcheck // best effort, the handler reports read errors
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes+1))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(head), r.Body))

	if len(head) > maxLoggedBodyBytes {
		return head[:maxLoggedBodyBytes], true
	}
	return head, false
}

// flatten turns headers and query values into map[string]any so the log
// handler masks them by key.
func flatten(values map[string][]string) map[string]any {
	if len(values) == 0 {
		return nil
	}

	out := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) == 1 {
			out[k] = v[0]
		} else {
			out[k] = v
		}
	}
	return out
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

type httpObserver struct {
	tracer    trace.Tracer
	requests  metric.Int64Counter
	duration  metric.Float64Histogram
	logBodies bool
}

func newHTTPObserver(cfg config.Config, ins instrument.Instrumentation) *httpObserver {
	o := &httpObserver{
		tracer:    ins.Tracer("http.server"),
		logBodies: cfg == nil || !cfg.GetBool("instrument.omit_http_bodies"),
	}

	meter := ins.Meter("http.server")

	var err error
	o.requests, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests received"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}

	o.duration, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration"), metric.WithUnit("ms"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return o
}

func (o *httpObserver) record(r *http.Request, span trace.Span, rec *responseRecorder, route string, elapsed time.Duration) {
	status := rec.statusCode()
	attrs := []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String(route),
		semconv.HTTPResponseStatusCodeKey.Int(status),
	}

	if rec.err != nil {
		span.RecordError(rec.err)
	}
	switch {
	case status < http.StatusInternalServerError:
		span.SetStatus(codes.Ok, "")
	case rec.err != nil:
		span.SetStatus(codes.Error, rec.err.Error())
	default:
		span.SetStatus(codes.Error, http.StatusText(status))
	}

	span.SetAttributes(attrs...)
	span.SetAttributes(
		semconv.NetworkProtocolVersionKey.String(r.Proto),
		semconv.ServerAddressKey.String(r.Host),
		semconv.UserAgentOriginal(r.UserAgent()),
		attribute.Int("http.response_content_length", rec.written),
	)

	ctx := r.Context()
	if o.requests != nil {
		o.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if o.duration != nil {
		o.duration.Record(ctx, float64(elapsed.Microseconds())/1000, metric.WithAttributes(attrs...))
	}
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	o := newHTTPObserver(cfg, ins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := matchedRoutePath(r)

			parent := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := o.tracer.Start(parent, r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
				),
			)
			defer span.End()
			r = r.WithContext(ctx)

			reqAttrs := []any{
				"method", r.Method,
				"route", route,
				"path", r.URL.Path,
				"query", flatten(r.URL.Query()),
				"headers", flatten(r.Header),
			}
			if o.logBodies {
				body, truncated := peekBody(r)
				reqAttrs = append(reqAttrs, "body", logBody(r.Header.Get("Content-Type"), body, truncated))
			}
			slog.InfoContext(ctx, "request received", reqAttrs...)

			rec := &responseRecorder{ResponseWriter: w}
			if o.logBodies {
				rec.body = &bytes.Buffer{}
			}
			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			o.record(r, span, rec, route, elapsed)

			status := rec.statusCode()
			respAttrs := []any{
				"method", r.Method,
				"route", route,
				"status", status,
				"bytes", rec.written,
				"latency_ms", elapsed.Milliseconds(),
			}
			if rec.body != nil {
				respAttrs = append(respAttrs, "body", logBody(rec.Header().Get("Content-Type"), rec.body.Bytes(), rec.capped))
			}
			slog.Log(ctx, levelFor(status), "response sent", respAttrs...)
		})
	}
}
