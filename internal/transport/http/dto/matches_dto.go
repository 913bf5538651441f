package dto

import (
	"time"

	"github.com/ivankudzin/crush/internal/domain/enums"
)

type MatchedProfileResponse struct {
	PublicProfileResponse
	MatchID     string            `json:"match_id"`
	Status      enums.MatchStatus `json:"status"`
	MatchedAt   time.Time         `json:"matched_at"`
	UnmatchedAt *time.Time        `json:"unmatched_at,omitempty"`
}

type MatchDetailResponse struct {
	ID                string                  `json:"id"`
	Status            enums.MatchStatus       `json:"status"`
	CreatedAt         time.Time               `json:"created_at"`
	LastInteractionAt time.Time               `json:"last_interaction_at"`
	UnmatchedAt       *time.Time              `json:"unmatched_at,omitempty"`
	UnmatchedBy       string                  `json:"unmatched_by,omitempty"`
	Users             []PublicProfileResponse `json:"users"`
}
