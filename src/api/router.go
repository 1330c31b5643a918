// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query parameter names.
const (
	ParamDomain     = "domain"
	ParamArrayName  = "array_name"
	ParamLengthName = "length_name"
	ParamGuardName  = "guard_name"
)

// NewRouter serves svc over HTTP. A nil gatherer leaves /metrics out.
func NewRouter(svc *Service, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/cert", svc.operation(OpCertificates))
	r.Get("/root", svc.operation(OpRootCertificates))
	r.Get("/header", svc.operation(OpHeader))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		write(w, newResponse(http.StatusOK, []byte(`{"status":"ok"}`)))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		write(w, errorResponse())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		write(w, errorResponse())
	})
	return r
}

// NewServer builds an HTTP server for handler.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (s *Service) operation(op Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := s.Handle(r.Context(), op, parseRequest(r))
		write(w, resp)
		s.log.Printf("%s %s -> %d in %s (request %s)",
			r.Method, r.URL.Path, resp.Status, time.Since(start), middleware.GetReqID(r.Context()))
	}
}

// parseRequest maps query parameters to a [Request]. A missing domain
// parameter leaves Domains nil.
func parseRequest(r *http.Request) Request {
	q := r.URL.Query()

	var req Request
	if domains, ok := q[ParamDomain]; ok {
		req.Domains = append([]string{}, domains...)
	}
	req.Params = Params{
		ArrayName:  q.Get(ParamArrayName),
		LengthName: q.Get(ParamLengthName),
		GuardName:  q.Get(ParamGuardName),
	}
	return req
}

func write(w http.ResponseWriter, resp Response) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}
