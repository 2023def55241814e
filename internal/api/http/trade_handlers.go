package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	appDelivery "github.com/barterhub/barterhub/internal/application/delivery"
	appTrade "github.com/barterhub/barterhub/internal/application/trade"
	"github.com/barterhub/barterhub/internal/domain/notification"
	domainTrade "github.com/barterhub/barterhub/internal/domain/trade"
)

type tradeProposeRequest struct {
	ProposedObjects  []uuid.UUID `json:"proposed_objects"`
	RequestedObjects []uuid.UUID `json:"requested_objects"`
	Message          string      `json:"message,omitempty"`
}

type counterProposeRequest struct {
	Objects []uuid.UUID `json:"objects"`
}

type deliveryConfigureRequest struct {
	Carrier          string              `json:"carrier"`
	SenderAddress    domainTrade.Address `json:"sender_address"`
	RecipientAddress domainTrade.Address `json:"recipient_address"`
}

type trackingUpdateRequest struct {
	Status string `json:"status"`
}

type messagePostRequest struct {
	Content string `json:"content"`
}

func (s *Server) proposeTrade(w http.ResponseWriter, r *http.Request) {
	u := authUserFromContext(r.Context())
	var req tradeProposeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	t, err := s.tradeSvc.Propose(r.Context(), appTrade.ProposeInput{
		ProposerID:       u.UserID,
		ProposedObjects:  req.ProposedObjects,
		RequestedObjects: req.RequestedObjects,
		Message:          req.Message,
	})
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, t)
}

func (s *Server) listTrades(w http.ResponseWriter, r *http.Request) {
	u := authUserFromContext(r.Context())
	var role *domainTrade.Role
	if v := r.URL.Query().Get("role"); v != "" {
		rv := domainTrade.Role(v)
		role = &rv
	}
	var status *domainTrade.Status
	if v := r.URL.Query().Get("status"); v != "" {
		sv := domainTrade.Status(v)
		status = &sv
	}
	limit, offset := parseLimitOffset(r, 50, 200)
	trades, err := s.tradeSvc.List(r.Context(), u.UserID, role, status, limit, offset)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"trades": trades})
}

func (s *Server) getTrade(w http.ResponseWriter, r *http.Request) {
	u := authUserFromContext(r.Context())
	id, err := parseUUIDParam(r, "tradeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid tradeId")
		return
	}
	t, err := s.tradeSvc.Get(r.Context(), id, u.UserID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) counterPropose(w http.ResponseWriter, r *http.Request) {
	u := authUserFromContext(r.Context())
	id, err := parseUUIDParam(r, "tradeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid tradeId")
		return
	}
	var req counterProposeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	t, err := s.tradeSvc.CounterPropose(r.Context(), id, u.UserID, req.Objects)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) askDifferent(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.tradeSvc.AskDifferent)
}

func (s *Server) acceptTrade(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.tradeSvc.Accept)
}

func (s *Server) refuseTrade(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.tradeSvc.Refuse)
}

func (s *Server) cancelTrade(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.tradeSvc.Cancel)
}

func (s *Server) completeTrade(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.tradeSvc.Complete)
}

type transitionFunc func(ctx context.Context, tradeID, actorID uuid.UUID) (*domainTrade.Trade, error)

func (s *Server) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	u := authUserFromContext(r.Context())
	id, err := parseUUIDParam(r, "tradeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid tradeId")
		return
	}
	t, err := fn(r.Context(), id, u.UserID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// Delivery handlers

func (s *Server) configureDelivery(w http.ResponseWriter, r *http.Request) {
	u := authUserFromContext(r.Context())
	id, err := parseUUIDParam(r, "tradeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid tradeId")
		return
	}
	var req deliveryConfigureRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	t, err := s.deliverySvc.Configure(r.Context(), id, u.UserID, appDelivery.ConfigureInput{
		Carrier:          domainTrade.Carrier(req.Carrier),
		SenderAddress:    req.SenderAddress,
		RecipientAddress: req.RecipientAddress,
	})
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) getTracking(w http.ResponseWriter, r *http.Request) {
	u := authUserFromContext(r.Context())
	id, err := parseUUIDParam(r, "tradeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid tradeId")
		return
	}
	status, err := s.deliverySvc.Tracking(r.Context(), id, u.UserID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"trade_id": id, "tracking_status": status})
}

func (s *Server) updateTracking(w http.ResponseWriter, r *http.Request) {
	// The carrier pushes through the gateway; a configured shared token keeps
	// the endpoint closed when the service runs without one.
	if s.webhookToken != "" {
		got := r.Header.Get("X-Webhook-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.webhookToken)) != 1 {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid webhook token")
			return
		}
	}
	id, err := parseUUIDParam(r, "tradeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid tradeId")
		return
	}
	var req trackingUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	t, err := s.deliverySvc.UpdateTracking(r.Context(), id, req.Status)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"trade_id": t.TradeID, "tracking_status": t.Delivery.TrackingStatus})
}

// Message handlers

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	u := authUserFromContext(r.Context())
	id, err := parseUUIDParam(r, "tradeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid tradeId")
		return
	}
	var req messagePostRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	m, err := s.messageSvc.Append(r.Context(), id, u.UserID, req.Content)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	u := authUserFromContext(r.Context())
	id, err := parseUUIDParam(r, "tradeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid tradeId")
		return
	}
	limit, offset := parseLimitOffset(r, 100, 500)
	messages, err := s.messageSvc.ListByTrade(r.Context(), id, u.UserID, limit, offset)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"trade_id": id, "messages": messages})
}

// SSE endpoint

func (s *Server) sseEndpoint(w http.ResponseWriter, r *http.Request) {
	u := authUserFromContext(r.Context())
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.New().String()
	}
	userID := u.UserID.String()
	client := notification.NewSSEClient(clientID, &userID)
	s.sseHub.Register(client)
	defer s.sseHub.Unregister(clientID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}
	// Send an initial comment to flush headers and keep the connection alive.
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case msg := <-client.MessageChan:
			if msg == nil {
				return
			}
			payload, _ := json.Marshal(msg)
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}
