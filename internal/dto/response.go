package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error" example:"missing required fields: id, timestamp"`
}

// EventProcessedResponse represents a successful event ingestion response
type EventProcessedResponse struct {
	Message string `json:"message" example:"Event processed successfully"`
	EventID string `json:"event_id" example:"evt_1a2b3c4d5e6f"`
}
