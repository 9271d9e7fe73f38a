package blandai

// CallRequest is the outbound call request sent to the Bland.ai dispatch API
type CallRequest struct {
	PhoneNumber     string            `json:"phone_number"`
	Task            string            `json:"task"`
	Voice           string            `json:"voice,omitempty"`
	ReduceLatency   bool              `json:"reduce_latency"`
	MaxDuration     int               `json:"max_duration,omitempty"`
	Webhook         string            `json:"webhook,omitempty"`
	AnsweredByEnabled bool            `json:"answered_by_enabled,omitempty"`
	Record          bool              `json:"record"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// callResponse is the provider's dispatch API response body
type callResponse struct {
	Status  string `json:"status"`
	CallID  string `json:"call_id"`
	Message string `json:"message,omitempty"`
}

// InitiateResult is the tagged outcome of a dispatch attempt. The gateway
// treats every provider-side problem as a rejection rather than an error:
// rejections are expected in normal operation and callers handle them as a
// branch, not a failure.
type InitiateResult struct {
	Accepted bool
	CallID   string
	Reason   string
}

// CallStatus is the provider's view of a call, from the status polling API
type CallStatus struct {
	CallID                 string   `json:"call_id"`
	Status                 string   `json:"status"`
	Completed              bool     `json:"completed"`
	CallLength             *float64 `json:"call_length,omitempty"`
	RecordingURL           string   `json:"recording_url,omitempty"`
	ConcatenatedTranscript string   `json:"concatenated_transcript,omitempty"`
	EndAt                  string   `json:"end_at,omitempty"`
}
