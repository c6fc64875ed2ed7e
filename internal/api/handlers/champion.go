package handlers

import (
	"net/http"

	"github.com/dom/league-inhouse-server/internal/service"
)

type ChampionHandler struct {
	championService *service.ChampionService
}

func NewChampionHandler(championService *service.ChampionService) *ChampionHandler {
	return &ChampionHandler{championService: championService}
}

// GetAll handles GET /champions.
func (h *ChampionHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	champions, err := h.championService.GetAllChampions(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"champions": champions,
		"count":     len(champions),
	})
}

// Sync handles POST /champions/sync.
func (h *ChampionHandler) Sync(w http.ResponseWriter, r *http.Request) {
	count, version, err := h.championService.SyncFromDataDragon(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, map[string]any{
		"count":   count,
		"version": version,
	})
}
