package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// WebhookAck is the bare acknowledgment body the payment provider expects;
// it is deliberately not wrapped in the success envelope.
type WebhookAck struct {
	Received bool `json:"received"`
}
