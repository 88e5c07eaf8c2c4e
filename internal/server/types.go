package server

import "time"

// HealthStatus is the reported service state
type HealthStatus string

const (
	Healthy HealthStatus = "healthy"
)

// Error codes returned in ErrorResponse.Error
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeInput           = "INPUT_ERROR"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	CodeConversion      = "CONVERSION_ERROR"
)

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    HealthStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Uptime    *int         `json:"uptime,omitempty"`
	Version   *string      `json:"version,omitempty"`
}

// ErrorResponse is the JSON envelope of every failed request
type ErrorResponse struct {
	Error     string  `json:"error"`
	Message   string  `json:"message"`
	RequestId *string `json:"request_id,omitempty"`
}
