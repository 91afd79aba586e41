package config

import "testing"

func TestLoadVoiceTuning(t *testing.T) {
	t.Setenv("VOICE_API_MAX_RETRIES", "4")
	t.Setenv("VOICE_API_RPS", "9")

	cfg := Load()
	if cfg.VoiceAPIMaxRetries != 4 {
		t.Errorf("expected 4 retries, got %d", cfg.VoiceAPIMaxRetries)
	}
	if cfg.VoiceAPIRPS != 9 {
		t.Errorf("expected 9 rps, got %d", cfg.VoiceAPIRPS)
	}
}

func TestLoadVoiceTuningDefaults(t *testing.T) {
	t.Setenv("VOICE_API_MAX_RETRIES", "not-a-number")
	t.Setenv("VOICE_API_RPS", "")

	cfg := Load()
	if cfg.VoiceAPIMaxRetries != 2 {
		t.Errorf("garbage value should fall back to 2, got %d", cfg.VoiceAPIMaxRetries)
	}
	if cfg.VoiceAPIRPS != 5 {
		t.Errorf("unset value should fall back to 5, got %d", cfg.VoiceAPIRPS)
	}
}
