package types

// SuccessEnvelope is the wrapper for every successful API response body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire form of a request failure.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope is the wrapper for every error response body.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
