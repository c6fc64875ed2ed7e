package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dom/league-inhouse-server/internal/service"
)

type SettingsHandler struct {
	specialUsers *service.SpecialUserService
}

func NewSettingsHandler(specialUsers *service.SpecialUserService) *SettingsHandler {
	return &SettingsHandler{specialUsers: specialUsers}
}

// GetSpecialUsers handles GET /settings/special-users.
func (h *SettingsHandler) GetSpecialUsers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"specialUsers": h.specialUsers.List(),
	})
}

type PutSpecialUsersRequest struct {
	SpecialUsers []string `json:"specialUsers"`
}

// PutSpecialUsers handles PUT /settings/special-users.
func (h *SettingsHandler) PutSpecialUsers(w http.ResponseWriter, r *http.Request) {
	var req PutSpecialUsersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid_body")
		return
	}

	if err := h.specialUsers.Set(r.Context(), req.SpecialUsers); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, map[string]any{"count": len(req.SpecialUsers)})
}
