package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dom/league-inhouse-server/internal/domain"
	"github.com/dom/league-inhouse-server/internal/lcu"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondSuccess writes {success:true, ...extra}.
func respondSuccess(w http.ResponseWriter, extra map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	respondJSON(w, http.StatusOK, body)
}

// respondError maps a service error to {success:false, error:"<tag>"} with
// the matching status code.
func respondError(w http.ResponseWriter, err error) {
	status, tag := classify(err)
	respondJSON(w, status, map[string]any{"success": false, "error": tag})
}

func respondBadRequest(w http.ResponseWriter, tag string) {
	respondJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": tag})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMatchNotFound):
		return http.StatusNotFound, "match_not_found"
	case errors.Is(err, domain.ErrVoteNotFound):
		return http.StatusNotFound, "vote_not_found"
	case errors.Is(err, domain.ErrDraftNotActive):
		return http.StatusConflict, "draft_not_active"
	case errors.Is(err, domain.ErrDraftComplete):
		return http.StatusConflict, "draft_complete"
	case errors.Is(err, domain.ErrOutOfOrder):
		return http.StatusConflict, "out_of_order"
	case errors.Is(err, domain.ErrWrongStatus):
		return http.StatusConflict, "wrong_status"
	case errors.Is(err, domain.ErrChampionTaken):
		return http.StatusConflict, "champion_taken"
	case errors.Is(err, domain.ErrAlreadyLinked):
		return http.StatusConflict, "already_linked"
	case errors.Is(err, domain.ErrAlreadyQueued):
		return http.StatusConflict, "already_queued"
	case errors.Is(err, domain.ErrNotQueued):
		return http.StatusConflict, "not_queued"
	case errors.Is(err, domain.ErrActionNotPlayed):
		return http.StatusConflict, "action_not_played"
	case errors.Is(err, domain.ErrNotAPick):
		return http.StatusBadRequest, "not_a_pick"
	case errors.Is(err, domain.ErrUnknownChampion):
		return http.StatusBadRequest, "unknown_champion"
	case errors.Is(err, domain.ErrInvalidLane):
		return http.StatusBadRequest, "invalid_lane"
	case errors.Is(err, domain.ErrNotOnTeam):
		return http.StatusForbidden, "not_on_team"
	case errors.Is(err, domain.ErrNotSlotOwner):
		return http.StatusForbidden, "not_slot_owner"
	case errors.Is(err, domain.ErrNotOnRoster):
		return http.StatusForbidden, "not_on_roster"
	case errors.Is(err, lcu.ErrLCUUnreachable):
		return http.StatusBadGateway, "lcu_unreachable"
	case errors.Is(err, lcu.ErrLCUTimeout):
		return http.StatusGatewayTimeout, "lcu_timeout"
	case errors.Is(err, lcu.ErrLCUBadPayload):
		return http.StatusBadGateway, "lcu_bad_payload"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
