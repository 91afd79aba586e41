package service

import (
	"context"

	"github.com/carewave/callcare-backend/internal/voice"
)

// VoiceAPI is the slice of the provider client the services depend on.
// Tests swap in a mock.
type VoiceAPI interface {
	CreateAgent(ctx context.Context, a *voice.Agent) (*voice.Agent, error)
	UpdateAgent(ctx context.Context, a *voice.Agent) (*voice.Agent, error)
	CreatePrompt(ctx context.Context, p *voice.Prompt) (*voice.Prompt, error)
	UpdatePrompt(ctx context.Context, p *voice.Prompt) (*voice.Prompt, error)
	PlaceCall(ctx context.Context, req *voice.PlaceCallRequest) (*voice.PlaceCallResponse, error)
	GeneratePrompt(ctx context.Context, req *voice.GeneratePromptRequest) (*voice.GeneratePromptResponse, error)
}

var _ VoiceAPI = (*voice.Client)(nil)
