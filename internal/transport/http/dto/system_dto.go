package dto

type SystemStatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
