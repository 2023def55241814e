package httpapi

import (
	"net/http"
)

type objectCreateRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
}

func (s *Server) createObject(w http.ResponseWriter, r *http.Request) {
	u := authUserFromContext(r.Context())
	var req objectCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	o, err := s.objectSvc.Register(r.Context(), u.UserID, req.Title, req.Description, req.Category)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, o)
}

func (s *Server) listMyObjects(w http.ResponseWriter, r *http.Request) {
	u := authUserFromContext(r.Context())
	limit, offset := parseLimitOffset(r, 50, 200)
	objects, err := s.objectSvc.ListByOwner(r.Context(), u.UserID, limit, offset)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"objects": objects})
}

func (s *Server) getObject(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "objectId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid objectId")
		return
	}
	o, err := s.objectSvc.Get(r.Context(), id)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}
