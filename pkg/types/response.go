// Package types holds the JSON envelopes shared by every API response.
package types

// DataEnvelope wraps a successful payload as {"data": ...}.
type DataEnvelope struct {
	Data any `json:"data"`
}

// ErrorBody is the public shape of a failed request. RequestID echoes the
// X-Request-Id header so storefront bug reports can be matched to logs.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// ErrorEnvelope wraps an ErrorBody as {"error": ...}.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}
