package dto

type LikeResponse struct {
	Match   bool                  `json:"match"`
	Profile PublicProfileResponse `json:"profile"`
	MatchID string                `json:"match_id,omitempty"`
}
