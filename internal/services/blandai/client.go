package blandai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/voicereachhq/voicereach-backend/internal/config"
)

// VoiceGateway is the dialing surface consumed by the scheduler and call
// service. Implemented by Client against the Bland.ai API.
type VoiceGateway interface {
	InitiateCall(req *CallRequest) *InitiateResult
	GetCallStatus(callID string) (*CallStatus, error)
}

// Client talks to the Bland.ai voice API
type Client struct {
	cfg        *config.BlandConfig
	httpClient *http.Client
}

// NewClient creates a Bland.ai client from config
func NewClient(cfg *config.BlandConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
	}
}

// InitiateCall dispatches an outbound call. It never returns an error:
// timeouts, non-2xx responses and malformed bodies all come back as a
// rejected InitiateResult with a reason.
func (c *Client) InitiateCall(callReq *CallRequest) *InitiateResult {
	jsonBody, err := json.Marshal(callReq)
	if err != nil {
		return &InitiateResult{Reason: fmt.Sprintf("failed to marshal call request: %v", err)}
	}

	req, err := http.NewRequest("POST", c.cfg.BaseURL+"/v1/calls", bytes.NewBuffer(jsonBody))
	if err != nil {
		return &InitiateResult{Reason: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &InitiateResult{Reason: fmt.Sprintf("failed to reach voice API: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &InitiateResult{Reason: fmt.Sprintf("failed to read response body: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logrus.Warnf("Voice API rejected call dispatch: status %d: %s", resp.StatusCode, string(body))
		return &InitiateResult{Reason: fmt.Sprintf("voice API returned status %d", resp.StatusCode)}
	}

	var callResp callResponse
	if err := json.Unmarshal(body, &callResp); err != nil {
		return &InitiateResult{Reason: fmt.Sprintf("failed to parse voice API response: %v", err)}
	}
	if callResp.CallID == "" {
		return &InitiateResult{Reason: "voice API response missing call_id"}
	}

	return &InitiateResult{Accepted: true, CallID: callResp.CallID}
}

// GetCallStatus polls the provider for a call's current state. Used as a
// fallback when the completion webhook is delayed or lost.
func (c *Client) GetCallStatus(callID string) (*CallStatus, error) {
	req, err := http.NewRequest("GET", c.cfg.BaseURL+"/v1/calls/"+callID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach voice API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voice API returned status %d: %s", resp.StatusCode, string(body))
	}

	var status CallStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to parse call status: %w", err)
	}
	return &status, nil
}
