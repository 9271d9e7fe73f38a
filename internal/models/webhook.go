package models

// BlandWebhookPayload is the call-completion callback posted by the voice
// provider. The provider cannot authenticate as us, so the payload shape is
// validated at the boundary instead.
type BlandWebhookPayload struct {
	CallID       string                `json:"call_id" binding:"required"`
	Status       string                `json:"status" binding:"required,oneof=completed failed in-progress"`
	Duration     *int                  `json:"duration,omitempty"`
	RecordingURL string                `json:"recording_url,omitempty"`
	Transcript   string                `json:"transcript,omitempty"`
	CompletedAt  string                `json:"completed_at,omitempty"`
	Analysis     *BlandWebhookAnalysis `json:"analysis,omitempty"`
}

// BlandWebhookAnalysis is the provider's post-call analysis block.
// Outcome classification only runs when this block is present.
type BlandWebhookAnalysis struct {
	Sentiment            string `json:"sentiment,omitempty"`
	Outcome              string `json:"outcome,omitempty"`
	Qualified            bool   `json:"qualified,omitempty"`
	CallbackRequested    bool   `json:"callback_requested,omitempty"`
	AppointmentScheduled bool   `json:"appointment_scheduled,omitempty"`
}
