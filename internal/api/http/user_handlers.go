package httpapi

import (
	"net/http"
	"strings"

	appUser "github.com/barterhub/barterhub/internal/application/user"
	domainUser "github.com/barterhub/barterhub/internal/domain/user"
)

type userUpdateRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	City        *string `json:"city,omitempty"`
	Plan        *string `json:"plan,omitempty"`
	Status      *string `json:"status,omitempty"`
}

type passwordUpdateRequest struct {
	Password string `json:"password"`
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 100, 200)
	filter := domainUser.Filter{}
	if v := r.URL.Query().Get("role"); v != "" {
		role := domainUser.Role(strings.ToUpper(v))
		if err := domainUser.ValidateRole(role); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
			return
		}
		filter.Role = &role
	}
	if v := r.URL.Query().Get("plan"); v != "" {
		plan := domainUser.Plan(strings.ToUpper(v))
		if err := domainUser.ValidatePlan(plan); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
			return
		}
		filter.Plan = &plan
	}
	if v := r.URL.Query().Get("status"); v != "" {
		st := domainUser.Status(strings.ToUpper(v))
		if err := domainUser.ValidateStatus(st); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
			return
		}
		filter.Status = &st
	}
	users, err := s.userSvc.ListUsers(r.Context(), filter, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid userId")
		return
	}
	u, err := s.userSvc.GetUser(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if u == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid userId")
		return
	}
	auth := authUserFromContext(r.Context())
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth")
		return
	}
	if auth.Role != domainUser.RoleAdmin && auth.UserID != id {
		respondError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role")
		return
	}
	var req userUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	input := appUser.UpdateInput{
		DisplayName: req.DisplayName,
		City:        req.City,
	}
	// Plan and status changes are admin-side.
	if req.Plan != nil || req.Status != nil {
		if auth.Role != domainUser.RoleAdmin {
			respondError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role")
			return
		}
		if req.Plan != nil {
			plan := domainUser.Plan(strings.ToUpper(*req.Plan))
			input.Plan = &plan
		}
		if req.Status != nil {
			st := domainUser.Status(strings.ToUpper(*req.Status))
			input.Status = &st
		}
	}
	u, err := s.userSvc.Update(r.Context(), id, input)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (s *Server) setUserPassword(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid userId")
		return
	}
	auth := authUserFromContext(r.Context())
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth")
		return
	}
	if auth.Role != domainUser.RoleAdmin && auth.UserID != id {
		respondError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role")
		return
	}
	var req passwordUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if err := s.userSvc.SetPassword(r.Context(), id, req.Password); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "OK"})
}
