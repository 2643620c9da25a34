package httpapi

import (
	"context"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/unkn0wn-root/menucache"
	"github.com/unkn0wn-root/menucache/deferred"
	"github.com/unkn0wn-root/menucache/internal/coordinator"
)

// requestLogger logs one line per request once the handler returns.
func requestLogger(log menucache.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			fields := menucache.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": chimiddleware.GetReqID(r.Context()),
			}
			if ww.Status() >= http.StatusInternalServerError {
				log.Warn("request", fields)
				return
			}
			log.Debug("request", fields)
		})
	}
}

// deferTasks collects the tasks handlers register during a request and hands
// them to q after the response has been written and flushed.
func deferTasks(q coordinator.Submitter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, batch := deferred.WithBatch(r.Context())
			next.ServeHTTP(w, r.WithContext(ctx))

			if batch.Len() == 0 {
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
			if q == nil {
				// nowhere to send them; run in place
				for _, t := range batch.Tasks() {
					_ = t.Run(context.WithoutCancel(ctx))
				}
				return
			}
			q.Submit(batch.Tasks()...)
		})
	}
}
