package types

// SuccessEnvelope is the JSON body returned for successful requests. Message
// is populated for mutations; plain reads carry data only.
type SuccessEnvelope struct {
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

// ErrorEnvelope is the JSON body returned for failed requests.
type ErrorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
