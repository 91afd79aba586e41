package voice_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/carewave/callcare-backend/internal/voice"
)

func newTestClient(srv *httptest.Server) *voice.Client {
	return voice.NewClient(voice.ClientConfig{
		BaseURL:           srv.URL,
		APIKey:            "test-api-key",
		MaxRetries:        2,
		RequestsPerSecond: 1000, // keep tests fast
	})
}

func TestPlaceCallSendsAuthAndBody(t *testing.T) {
	var gotAuth string
	var gotReq voice.PlaceCallRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/calls" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(voice.PlaceCallResponse{CallID: "prov_1", Status: "queued"})
	}))
	defer srv.Close()

	client := newTestClient(srv)
	resp, err := client.PlaceCall(context.Background(), &voice.PlaceCallRequest{
		AgentID:     "agent_1",
		ToNumber:    "+15550100001",
		MetadataRef: "42",
		Variables:   map[string]string{"first_name": "Maria"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if resp.CallID != "prov_1" {
		t.Errorf("unexpected call id %q", resp.CallID)
	}
	if gotAuth != "Bearer test-api-key" {
		t.Errorf("missing bearer auth, got %q", gotAuth)
	}
	if gotReq.MetadataRef != "42" || gotReq.Variables["first_name"] != "Maria" {
		t.Errorf("request body not carried: %+v", gotReq)
	}
}

func TestClientRetriesOn5xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(voice.Agent{ID: "agent_1", Name: "x"})
	}))
	defer srv.Close()

	client := newTestClient(srv)
	agent, err := client.CreateAgent(context.Background(), &voice.Agent{Name: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if agent.ID != "agent_1" {
		t.Errorf("unexpected agent: %+v", agent)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
}

func TestClientDoesNotRetryOn4xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"to_number is invalid"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv)
	_, err := client.PlaceCall(context.Background(), &voice.PlaceCallRequest{AgentID: "a"})
	if err == nil {
		t.Fatal("expected an error")
	}

	var apiErr *voice.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("unexpected status %d", apiErr.StatusCode)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("client errors must not retry, got %d attempts", n)
	}
}

func TestClientExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	_, err := client.GeneratePrompt(context.Background(), &voice.GeneratePromptRequest{Description: "x"})
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}

	var apiErr *voice.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected a 429 APIError, got %v", err)
	}
}
