package blandai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicereachhq/voicereach-backend/internal/config"
)

func testConfig(baseURL string) *config.BlandConfig {
	return &config.BlandConfig{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Voice:       "maya",
		HTTPTimeout: 2 * time.Second,
	}
}

func TestInitiateCallAccepted(t *testing.T) {
	var gotAuth string
	var gotReq CallRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "success", "call_id": "bl-123"})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	result := client.InitiateCall(&CallRequest{
		PhoneNumber: "+15551234567",
		Task:        "Hi John, this is a follow-up call",
	})

	assert.True(t, result.Accepted)
	assert.Equal(t, "bl-123", result.CallID)
	assert.Equal(t, "test-key", gotAuth)
	assert.Equal(t, "+15551234567", gotReq.PhoneNumber)
}

func TestInitiateCallNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	result := client.InitiateCall(&CallRequest{PhoneNumber: "+15551234567"})

	assert.False(t, result.Accepted)
	assert.Contains(t, result.Reason, "402")
}

func TestInitiateCallMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	result := client.InitiateCall(&CallRequest{PhoneNumber: "+15551234567"})

	assert.False(t, result.Accepted)
}

func TestInitiateCallMissingCallID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	result := client.InitiateCall(&CallRequest{PhoneNumber: "+15551234567"})

	assert.False(t, result.Accepted)
	assert.Contains(t, result.Reason, "call_id")
}

func TestInitiateCallUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(testConfig(server.URL))
	result := client.InitiateCall(&CallRequest{PhoneNumber: "+15551234567"})

	assert.False(t, result.Accepted)
	assert.NotEmpty(t, result.Reason)
}

func TestGetCallStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/calls/bl-123", r.URL.Path)
		length := 184.2
		json.NewEncoder(w).Encode(CallStatus{
			CallID:     "bl-123",
			Status:     "completed",
			Completed:  true,
			CallLength: &length,
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	status, err := client.GetCallStatus("bl-123")

	require.NoError(t, err)
	assert.True(t, status.Completed)
	assert.Equal(t, "completed", status.Status)
}

func TestGetCallStatusNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.GetCallStatus("bl-missing")

	assert.Error(t, err)
}
