package domain

import "errors"

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrVoteNotFound  = errors.New("vote not found")

	// Draft flow
	ErrDraftNotActive   = errors.New("draft is not active")
	ErrOutOfOrder       = errors.New("action index does not match current action")
	ErrDraftComplete    = errors.New("draft is already complete")
	ErrChampionTaken    = errors.New("champion is already picked or banned")
	ErrUnknownChampion  = errors.New("unknown champion reference")
	ErrNotOnTeam        = errors.New("player is not on the acting team")
	ErrNotSlotOwner     = errors.New("action belongs to a different player")
	ErrNotAPick         = errors.New("only pick actions can be edited")
	ErrActionNotPlayed  = errors.New("action has not been played yet")
	ErrWrongStatus      = errors.New("operation not valid for current match status")
	ErrNotOnRoster      = errors.New("player is not on the match roster")

	// Voting / linking
	ErrAlreadyLinked = errors.New("match is already linked to a real game")

	// Queue
	ErrAlreadyQueued = errors.New("player is already in the queue")
	ErrNotQueued     = errors.New("player is not in the queue")
	ErrInvalidLane   = errors.New("invalid lane preference")
)
