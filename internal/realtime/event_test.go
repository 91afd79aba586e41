package realtime_test

import (
	"encoding/json"
	"testing"

	"github.com/carewave/callcare-backend/internal/realtime"
)

func TestParseChannelID(t *testing.T) {
	cases := []struct {
		in   string
		kind string
		id   int
		ok   bool
	}{
		{"run:12", "run", 12, true},
		{"org:1", "org", 1, true},
		{"campaign:999", "campaign", 999, true},
		{"run", "", 0, false},
		{"run:abc", "", 0, false},
		{"", "", 0, false},
	}

	for _, c := range cases {
		kind, id, ok := realtime.ParseChannelID(c.in)
		if kind != c.kind || id != c.id || ok != c.ok {
			t.Errorf("ParseChannelID(%q) = (%q, %d, %v), want (%q, %d, %v)",
				c.in, kind, id, ok, c.kind, c.id, c.ok)
		}
	}
}

func TestChannelHelpersRoundTrip(t *testing.T) {
	if got := realtime.RunChannel(12); got != "run:12" {
		t.Errorf("RunChannel(12) = %q", got)
	}
	kind, id, ok := realtime.ParseChannelID(realtime.CampaignChannel(7))
	if !ok || kind != "campaign" || id != 7 {
		t.Errorf("round trip failed: %q %d %v", kind, id, ok)
	}
}

func TestEventOmitsEmptyFields(t *testing.T) {
	b, err := json.Marshal(realtime.Event{Type: realtime.EventRunCompleted, OrganizationID: 1, RunID: 5})
	if err != nil {
		t.Fatal(err)
	}

	var m map[string]any
	json.Unmarshal(b, &m)
	if _, present := m["call_id"]; present {
		t.Error("zero call_id should be omitted from the wire payload")
	}
	if m["type"] != realtime.EventRunCompleted {
		t.Errorf("type missing: %v", m)
	}
}
