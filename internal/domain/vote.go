package domain

import "time"

// MatchVote records one player's pick of which real game matches a custom
// match. A player has at most one live vote per match; re-voting supersedes.
type MatchVote struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	MatchID   uint      `json:"matchId" gorm:"not null;uniqueIndex:idx_match_votes_match_player,priority:1"`
	PlayerID  string    `json:"playerId" gorm:"column:player_id;type:varchar(100);not null;uniqueIndex:idx_match_votes_match_player,priority:2"`
	LCUGameID string    `json:"lcuGameId" gorm:"column:lcu_game_id;type:varchar(64);not null"`
	VotedAt   time.Time `json:"votedAt"`
}

func (MatchVote) TableName() string {
	return "match_votes"
}
