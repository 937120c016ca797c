package httppresentation

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bookmesh/bookledger/internal/identity"
	"github.com/bookmesh/bookledger/internal/observability"
	"github.com/bookmesh/bookledger/internal/observability/logctx"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	headerActorID   = "X-Actor-ID"
	headerRequestID = "X-Request-ID"
)

// Identity attests the caller identity from the X-Actor-ID header and attaches
// it to the request context. A missing header leaves the caller anonymous;
// authorization decisions stay with the ledger service.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := identity.Actor(r.Header.Get(headerActorID))
		next.ServeHTTP(w, r.WithContext(identity.WithActor(r.Context(), actor)))
	})
}

// Observability combines:
// - W3C trace context extraction
// - request-scoped logger injection (dynamic fields only)
// - X-Request-ID generation + echo
// - HTTP metrics and a single access log line per request
func Observability(base observability.Logger, metrics observability.Metrics) mux.MiddlewareFunc {
	if base == nil {
		base = observability.NopLogger()
	}
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	prop := otel.GetTextMapPropagator() // W3C by default

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			sc := trace.SpanContextFromContext(ctx)

			rid := r.Header.Get(headerRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set(headerRequestID, rid)

			fields := []observability.Field{observability.F("request_id", rid)}
			if actor := identity.ActorFromContext(ctx); !actor.IsAnonymous() {
				fields = append(fields, observability.F("actor", actor.String()))
			}
			if sc.IsValid() {
				fields = append(fields,
					observability.F("trace_id", sc.TraceID().String()),
					observability.F("span_id", sc.SpanID().String()),
				)
			}
			reqLogger := base.With(fields...)
			ctx = logctx.With(ctx, reqLogger)

			start := time.Now()
			lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(lrw, r.WithContext(ctx))

			route := routeTemplate(r)
			statusLabel := strconv.Itoa(lrw.status)

			metrics.Counter(observability.MHTTPRequests).Add(1,
				observability.L("method", r.Method),
				observability.L("route", route),
				observability.L("status", statusLabel),
			)
			metrics.Histogram(observability.MHTTPRequestDuration).Observe(time.Since(start).Seconds(),
				observability.L("method", r.Method),
				observability.L("route", route),
			)

			reqLogger.Info("http_access",
				observability.F("method", r.Method),
				observability.F("route", route),
				observability.F("path", r.URL.Path),
				observability.F("status", lrw.status),
				observability.F("latency_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

// routeTemplate returns the matched route pattern for low-cardinality labels.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unknown"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
