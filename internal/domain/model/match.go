package model

import (
	"time"

	"github.com/ivankudzin/crush/internal/domain/enums"
)

// Match links an unordered pair of profiles. UserAID is always the smaller id.
type Match struct {
	ID                string            `json:"id"`
	UserAID           string            `json:"user_a_id"`
	UserBID           string            `json:"user_b_id"`
	Status            enums.MatchStatus `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
	LastInteractionAt time.Time         `json:"last_interaction_at"`
	UnmatchedAt       *time.Time        `json:"unmatched_at,omitempty"`
	UnmatchedBy       string            `json:"unmatched_by,omitempty"`
}

func OrderedPair(a, b string) (string, string) {
	if a <= b {
		return a, b
	}
	return b, a
}

// PairKey identifies the unordered pair independent of argument order.
func PairKey(a, b string) string {
	first, second := OrderedPair(a, b)
	return first + ":" + second
}

func (m Match) HasParticipant(profileID string) bool {
	return m.UserAID == profileID || m.UserBID == profileID
}

func (m Match) Counterpart(profileID string) string {
	if m.UserAID == profileID {
		return m.UserBID
	}
	return m.UserAID
}

func (m Match) Active() bool {
	return m.Status == enums.MatchStatusActive
}
