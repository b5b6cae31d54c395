package models

// SessionRequest is the body a device posts to the sessions endpoint
type SessionRequest struct {
	SetupToken string `json:"setupToken" binding:"required"`
}

// SessionResponse carries the opaque SDK session payload back to the device
type SessionResponse struct {
	SDKData string `json:"sdkData"`
}

// ErrorResponse is returned by the sessions endpoint on failure
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// ProcessorSessionRequest represents a request to the processor's POS SDK session API
type ProcessorSessionRequest struct {
	MerchantAccount string `json:"merchantAccount"`
	SetupToken      string `json:"setupToken"`
	Store           string `json:"store,omitempty"`
}

// ProcessorSessionResponse represents the processor's POS SDK session
type ProcessorSessionResponse struct {
	ID      string `json:"id"`
	SDKData string `json:"sdkData"`
}
