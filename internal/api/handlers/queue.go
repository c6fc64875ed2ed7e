package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dom/league-inhouse-server/internal/domain"
	"github.com/dom/league-inhouse-server/internal/service"
)

type QueueHandler struct {
	queueService   *service.QueueService
	restoreService *service.RestoreService
	draftService   *service.DraftService
}

func NewQueueHandler(queueService *service.QueueService, restoreService *service.RestoreService, draftService *service.DraftService) *QueueHandler {
	return &QueueHandler{
		queueService:   queueService,
		restoreService: restoreService,
		draftService:   draftService,
	}
}

type JoinQueueRequest struct {
	SummonerName  string `json:"summonerName"`
	PrimaryLane   string `json:"primaryLane"`
	SecondaryLane string `json:"secondaryLane"`
	MMR           int    `json:"mmr"`
}

// Join handles POST /queue/join.
func (h *QueueHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid_body")
		return
	}
	if req.SummonerName == "" {
		respondBadRequest(w, "missing_summoner_name")
		return
	}

	match, err := h.queueService.Join(r.Context(), req.SummonerName, domain.Lane(req.PrimaryLane), domain.Lane(req.SecondaryLane), req.MMR)
	if err != nil {
		respondError(w, err)
		return
	}

	extra := map[string]any{}
	if match != nil {
		extra["matchId"] = match.ID
	}
	respondSuccess(w, extra)
}

type LeaveQueueRequest struct {
	SummonerName string `json:"summonerName"`
}

// Leave handles POST /queue/leave.
func (h *QueueHandler) Leave(w http.ResponseWriter, r *http.Request) {
	var req LeaveQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid_body")
		return
	}

	if err := h.queueService.Leave(req.SummonerName); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, nil)
}

// Status handles GET /queue/status.
func (h *QueueHandler) Status(w http.ResponseWriter, r *http.Request) {
	entries, coverage := h.queueService.Status()
	respondJSON(w, http.StatusOK, map[string]any{
		"players":      entries,
		"count":        len(entries),
		"laneCoverage": coverage,
	})
}

// MyActiveMatch handles GET /queue/my-active-match?summonerName=...
func (h *QueueHandler) MyActiveMatch(w http.ResponseWriter, r *http.Request) {
	summonerName := r.URL.Query().Get("summonerName")
	if summonerName == "" {
		respondBadRequest(w, "missing_summoner_name")
		return
	}

	match, err := h.restoreService.GetMyActiveMatch(r.Context(), summonerName)
	if err != nil {
		respondError(w, err)
		return
	}

	body := map[string]any{
		"match": match,
	}
	if update := h.draftService.SnapshotFor(match.ID); update != nil {
		body["draft"] = update
	}
	respondJSON(w, http.StatusOK, body)
}
