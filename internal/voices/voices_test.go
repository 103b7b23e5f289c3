package voices

import (
	"reflect"
	"testing"
)

// TestDefaults tests that the built-in list is non-empty and copied.
func TestDefaults(t *testing.T) {
	a := Defaults()
	if len(a) == 0 {
		t.Fatal("Defaults() returned no voices")
	}

	a[0].ID = "mutated"
	if b := Defaults(); b[0].ID == "mutated" {
		t.Error("Defaults() shares its backing array with callers")
	}
}

// TestNormalize tests cleanup of voice lists loaded from config or the
// network.
func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       []Voice
		expected []Voice
	}{
		{
			name:     "nil falls back to defaults",
			in:       nil,
			expected: Defaults(),
		},
		{
			name:     "all malformed falls back to defaults",
			in:       []Voice{{ID: ""}, {ID: "   "}},
			expected: Defaults(),
		},
		{
			name: "missing label filled with id",
			in:   []Voice{{ID: "Puck"}},
			expected: []Voice{
				{ID: "Puck", Label: "Puck"},
			},
		},
		{
			name: "whitespace trimmed and empty entries dropped",
			in: []Voice{
				{ID: " Kore ", Label: " Kore (坚定) "},
				{ID: ""},
				{ID: "Puck", Label: ""},
			},
			expected: []Voice{
				{ID: "Kore", Label: "Kore (坚定)"},
				{ID: "Puck", Label: "Puck"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Normalize() = %#v, want %#v", got, tt.expected)
			}
		})
	}
}

// TestTranslateLabel tests label construction from voice metadata.
func TestTranslateLabel(t *testing.T) {
	tests := []struct {
		name        string
		voiceID     string
		description string
		langs       []string
		expected    string
	}{
		{
			name:     "no metadata keeps the id",
			voiceID:  "Puck",
			expected: "Puck",
		},
		{
			name:        "description appended",
			voiceID:     "Puck",
			description: "Upbeat",
			expected:    "Puck (Upbeat)",
		},
		{
			name:     "language codes appended",
			voiceID:  "Puck",
			langs:    []string{"en-US", "en-GB"},
			expected: "Puck (en-US, en-GB)",
		},
		{
			name:        "description and languages combined",
			voiceID:     "Kore",
			description: "Firm",
			langs:       []string{"en-US"},
			expected:    "Kore (Firm, en-US)",
		},
		{
			name:        "detail already in the id is dropped",
			voiceID:     "en-US-Standard-A",
			description: "standard",
			expected:    "en-US-Standard-A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranslateLabel(tt.voiceID, tt.description, tt.langs)
			if got != tt.expected {
				t.Errorf("TranslateLabel() = %q, want %q", got, tt.expected)
			}
		})
	}
}
