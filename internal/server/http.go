// Package server composes the HTTP router from the per-domain handlers.
package server

import (
	"log"
	"net/http"
	"time"
)

// Registrar mounts a handler's routes on a mux.
type Registrar interface {
	Register(mux *http.ServeMux)
}

// NewRouter builds the admin/query router from the given handlers.
func NewRouter(handlers ...Registrar) http.Handler {
	mux := http.NewServeMux()
	for _, h := range handlers {
		h.Register(mux)
	}
	return logRequests(mux)
}

// New returns an http.Server with sane timeouts for the given address.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[http] %s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
