package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	appAuth "github.com/barterhub/barterhub/internal/application/auth"
	appDelivery "github.com/barterhub/barterhub/internal/application/delivery"
	appMessage "github.com/barterhub/barterhub/internal/application/message"
	appObject "github.com/barterhub/barterhub/internal/application/object"
	appTrade "github.com/barterhub/barterhub/internal/application/trade"
	appUser "github.com/barterhub/barterhub/internal/application/user"
	domainTrade "github.com/barterhub/barterhub/internal/domain/trade"
	domainUser "github.com/barterhub/barterhub/internal/domain/user"
	"github.com/barterhub/barterhub/internal/infrastructure/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	tradeSvc            *appTrade.Service
	messageSvc          *appMessage.Service
	deliverySvc         *appDelivery.Service
	objectSvc           *appObject.Service
	userSvc             *appUser.Service
	authSvc             *appAuth.Service
	sseHub              *sse.Hub
	sessionCookieName   string
	sessionCookieSecure bool
	webhookToken        string
}

func NewServer(
	tradeSvc *appTrade.Service,
	messageSvc *appMessage.Service,
	deliverySvc *appDelivery.Service,
	objectSvc *appObject.Service,
	userSvc *appUser.Service,
	authSvc *appAuth.Service,
	sseHub *sse.Hub,
	sessionCookieName string,
	sessionCookieSecure bool,
	webhookToken string,
) *Server {
	return &Server{
		tradeSvc:            tradeSvc,
		messageSvc:          messageSvc,
		deliverySvc:         deliverySvc,
		objectSvc:           objectSvc,
		userSvc:             userSvc,
		authSvc:             authSvc,
		sseHub:              sseHub,
		sessionCookieName:   sessionCookieName,
		sessionCookieSecure: sessionCookieSecure,
		webhookToken:        webhookToken,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.register)
			r.Post("/login", s.login)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Post("/logout", s.logout)
				r.Get("/me", s.me)
			})
		})

		// Carrier webhook, authenticated out of band by the gateway.
		r.Put("/trades/{tradeId}/delivery/tracking", s.updateTracking)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Route("/trades", func(r chi.Router) {
				r.Post("/", s.proposeTrade)
				r.Get("/", s.listTrades)
				r.Get("/{tradeId}", s.getTrade)
				r.Post("/{tradeId}/counter-proposal", s.counterPropose)
				r.Post("/{tradeId}/ask-different", s.askDifferent)
				r.Post("/{tradeId}/accept", s.acceptTrade)
				r.Post("/{tradeId}/refuse", s.refuseTrade)
				r.Post("/{tradeId}/cancel", s.cancelTrade)
				r.Post("/{tradeId}/complete", s.completeTrade)

				r.Post("/{tradeId}/delivery", s.configureDelivery)
				r.Get("/{tradeId}/delivery/tracking", s.getTracking)

				r.Post("/{tradeId}/messages", s.postMessage)
				r.Get("/{tradeId}/messages", s.listMessages)
			})

			r.Route("/objects", func(r chi.Router) {
				r.Post("/", s.createObject)
				r.Get("/", s.listMyObjects)
				r.Get("/{objectId}", s.getObject)
			})

			r.Route("/users", func(r chi.Router) {
				r.With(s.requireRole(string(domainUser.RoleAdmin))).Get("/", s.listUsers)
				r.Get("/{userId}", s.getUser)
				r.Patch("/{userId}", s.updateUser)
				r.Put("/{userId}/password", s.setUserPassword)
			})

			r.Get("/events", s.sseEndpoint)
		})
	})

	return r
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondEngineError maps the negotiation error taxonomy to HTTP statuses.
func respondEngineError(w http.ResponseWriter, err error) {
	var engineErr *domainTrade.Error
	if !errors.As(err, &engineErr) {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	switch engineErr.Kind {
	case domainTrade.KindValidation:
		respondError(w, http.StatusBadRequest, string(engineErr.Kind), engineErr.Message)
	case domainTrade.KindNotFound:
		respondError(w, http.StatusNotFound, string(engineErr.Kind), engineErr.Message)
	case domainTrade.KindForbidden:
		respondError(w, http.StatusForbidden, string(engineErr.Kind), engineErr.Message)
	case domainTrade.KindConflict:
		respondError(w, http.StatusConflict, string(engineErr.Kind), engineErr.Message)
	case domainTrade.KindQuotaExceeded:
		respondError(w, http.StatusBadRequest, string(engineErr.Kind), engineErr.Message)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", engineErr.Message)
	}
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			offset = o
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
