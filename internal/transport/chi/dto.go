package chi

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest   ErrorCode = "bad_request"
	ErrorCodeUnauthorized ErrorCode = "unauthorized"
	ErrorCodeInternal     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResponse carries the reply chunks in delivery order.
type SearchResponse struct {
	Outcome string   `json:"outcome"`
	Chunks  []string `json:"chunks"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
