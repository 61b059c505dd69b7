package gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"talentpass/settlement"
)

// Server exposes the settlement service over HTTP. The gateway is an
// embedding, not the protocol: every contract and failure mode lives at the
// library boundary and is preserved here verbatim.
type Server struct {
	svc     *settlement.Service
	auth    *Authenticator
	metrics *Metrics
	log     *slog.Logger
}

// New creates a gateway server.
func New(svc *settlement.Service, auth *Authenticator, metrics *Metrics, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Server{svc: svc, auth: auth, metrics: metrics, log: log}
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware)

		r.With(s.metrics.Middleware("profiles")).Route("/v1/profiles", func(r chi.Router) {
			r.Post("/", s.handleCreateProfile)
			r.Get("/{id}", s.handleGetProfile)
			r.Put("/{id}/tiers", s.handleUpdateTiers)
			r.Put("/{id}/response-time", s.handleSetResponseTime)
			r.Put("/{id}/visibility", s.handleSetVisibility)
		})

		r.With(s.metrics.Middleware("contacts")).Route("/v1/contacts", func(r chi.Router) {
			r.Post("/", s.handleSendContact)
			r.Get("/{id}", s.handleGetContact)
			r.Post("/{id}/respond", s.handleRespondContact)
			r.Post("/{id}/reclaim", s.handleReclaimContact)
		})

		r.With(s.metrics.Middleware("pools")).Route("/v1/pools", func(r chi.Router) {
			r.Post("/", s.handleCreatePool)
			r.Get("/{id}", s.handleGetPool)
			r.Post("/{id}/deposits", s.handleDepositPool)
			r.Post("/{id}/withdrawals", s.handleWithdrawPool)
		})

		r.With(s.metrics.Middleware("referrals")).Route("/v1/referrals", func(r chi.Router) {
			r.Post("/", s.handleCreateReferral)
			r.Get("/{id}", s.handleGetReferral)
		})

		r.With(s.metrics.Middleware("jobs")).Route("/v1/jobs", func(r chi.Router) {
			r.Post("/", s.handleCreateJob)
			r.Get("/{id}", s.handleGetJob)
			r.Post("/{id}/applications", s.handleApply)
		})

		r.With(s.metrics.Middleware("applications")).Route("/v1/applications", func(r chi.Router) {
			r.Get("/{id}", s.handleGetApplication)
			r.Post("/{id}/hire", s.handleHire)
			r.Post("/{id}/reject", s.handleReject)
		})

		r.With(s.metrics.Middleware("balances")).
			Get("/v1/balances/{token}/{address}", s.handleBalance)
	})

	return r
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", w.Header().Get("X-Request-Id"),
		)
	})
}
