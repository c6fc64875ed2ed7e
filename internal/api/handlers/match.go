package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dom/league-inhouse-server/internal/service"
	"github.com/go-chi/chi/v5"
)

type MatchHandler struct {
	draftService *service.DraftService
	gameService  *service.GameService
	voteService  *service.VoteService
}

func NewMatchHandler(draftService *service.DraftService, gameService *service.GameService, voteService *service.VoteService) *MatchHandler {
	return &MatchHandler{
		draftService: draftService,
		gameService:  gameService,
		voteService:  voteService,
	}
}

func matchIDParam(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

type DraftActionRequest struct {
	MatchID     uint   `json:"matchId"`
	ActionIndex int    `json:"actionIndex"`
	ChampionID  string `json:"championId"`
	PlayerID    string `json:"playerId"`
}

// DraftAction handles POST /match/draft-action.
func (h *MatchHandler) DraftAction(w http.ResponseWriter, r *http.Request) {
	var req DraftActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid_body")
		return
	}

	if err := h.draftService.ProcessAction(r.Context(), req.MatchID, req.ActionIndex, req.ChampionID, req.PlayerID); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, nil)
}

type ChangePickRequest struct {
	ActionIndex int    `json:"actionIndex"`
	ChampionID  string `json:"championId"`
	PlayerID    string `json:"playerId"`
}

// ChangePick handles POST /match/{id}/change-pick.
func (h *MatchHandler) ChangePick(w http.ResponseWriter, r *http.Request) {
	matchID, ok := matchIDParam(r)
	if !ok {
		respondBadRequest(w, "invalid_match_id")
		return
	}
	var req ChangePickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid_body")
		return
	}

	if err := h.draftService.ChangePick(r.Context(), matchID, req.ActionIndex, req.ChampionID, req.PlayerID); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, nil)
}

type ConfirmRequest struct {
	PlayerID string `json:"playerId"`
}

// Confirm handles POST /match/{id}/confirm-final-draft.
func (h *MatchHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	matchID, ok := matchIDParam(r)
	if !ok {
		respondBadRequest(w, "invalid_match_id")
		return
	}
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid_body")
		return
	}

	result, err := h.draftService.ConfirmPlayer(r.Context(), matchID, req.PlayerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, map[string]any{
		"allConfirmed":   result.AllConfirmed,
		"confirmedCount": result.ConfirmedCount,
		"totalPlayers":   result.TotalPlayers,
	})
}

type VoteRequest struct {
	PlayerID  string `json:"playerId"`
	LCUGameID string `json:"lcuGameId"`
}

// Vote handles POST /match/{id}/vote.
func (h *MatchHandler) Vote(w http.ResponseWriter, r *http.Request) {
	matchID, ok := matchIDParam(r)
	if !ok {
		respondBadRequest(w, "invalid_match_id")
		return
	}
	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid_body")
		return
	}
	if req.PlayerID == "" || req.LCUGameID == "" {
		respondBadRequest(w, "missing_fields")
		return
	}

	result, err := h.voteService.Vote(r.Context(), matchID, req.PlayerID, req.LCUGameID)
	if err != nil && result == nil {
		respondError(w, err)
		return
	}

	body := map[string]any{
		"voteCount":       result.VoteCount,
		"lcuGameId":       result.LCUGameID,
		"shouldLink":      result.ShouldLink,
		"specialUserVote": result.SpecialUserVote,
		"voterName":       result.VoterName,
	}
	if err != nil {
		// The vote stuck, the link did not; surface why.
		_, tag := classify(err)
		body["linkError"] = tag
	}
	respondSuccess(w, body)
}

// Votes handles GET /match/{id}/votes.
func (h *MatchHandler) Votes(w http.ResponseWriter, r *http.Request) {
	matchID, ok := matchIDParam(r)
	if !ok {
		respondBadRequest(w, "invalid_match_id")
		return
	}
	counts, err := h.voteService.Votes(r.Context(), matchID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, counts)
}

// RetractVote handles DELETE /match/{id}/vote.
func (h *MatchHandler) RetractVote(w http.ResponseWriter, r *http.Request) {
	matchID, ok := matchIDParam(r)
	if !ok {
		respondBadRequest(w, "invalid_match_id")
		return
	}
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid_body")
		return
	}

	if err := h.voteService.Retract(r.Context(), matchID, req.PlayerID); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, nil)
}

// Cancel handles POST /match/{id}/cancel for both draft-phase and in-game
// matches.
func (h *MatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	matchID, ok := matchIDParam(r)
	if !ok {
		respondBadRequest(w, "invalid_match_id")
		return
	}
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid_body")
		return
	}

	var err error
	if h.draftService.HasDraft(matchID) {
		err = h.draftService.Cancel(r.Context(), matchID, "cancelled_by_player")
	} else {
		err = h.gameService.Cancel(r.Context(), matchID, req.PlayerID)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, nil)
}

// Simulate handles POST /debug/simulate-last-match.
func (h *MatchHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var payload json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondBadRequest(w, "invalid_body")
		return
	}

	match, err := h.gameService.SimulateFromPayload(r.Context(), payload)
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, map[string]any{"matchId": match.ID, "status": match.Status})
}
