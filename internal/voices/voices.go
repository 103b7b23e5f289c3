// Package voices supplies the set of valid voice identifiers, backed by a
// remote directory with a local fallback cache.
package voices

import "strings"

// Voice is one prebuilt voice of the TTS provider.
type Voice struct {
	ID    string `json:"id" mapstructure:"id"`
	Label string `json:"label" mapstructure:"label"`
}

// defaultVoiceData is the built-in voice list used until the first
// successful remote fetch.
var defaultVoiceData = []Voice{
	{ID: "Zephyr", Label: "Zephyr (明亮)"},
	{ID: "Puck", Label: "Puck (欢快)"},
	{ID: "Charon", Label: "Charon (信息丰富)"},
	{ID: "Kore", Label: "Kore (坚定)"},
	{ID: "Fenrir", Label: "Fenrir (易激动)"},
	{ID: "Leda", Label: "Leda (年轻)"},
	{ID: "Orus", Label: "Orus (坚定)"},
	{ID: "Aoede", Label: "Aoede (轻松)"},
	{ID: "Callirrhoe", Label: "Callirrhoe (随和)"},
	{ID: "Autonoe", Label: "Autonoe (明亮)"},
	{ID: "Enceladus", Label: "Enceladus (呼吸感)"},
	{ID: "Iapetus", Label: "Iapetus (清晰)"},
	{ID: "Umbriel", Label: "Umbriel (随和)"},
	{ID: "Algieba", Label: "Algieba (平滑)"},
	{ID: "Despina", Label: "Despina (平滑)"},
	{ID: "Erinome", Label: "Erinome (清晰)"},
	{ID: "Algenib", Label: "Algenib (沙哑)"},
	{ID: "Rasalgethi", Label: "Rasalgethi (信息丰富)"},
	{ID: "Laomedeia", Label: "Laomedeia (欢快)"},
	{ID: "Achernar", Label: "Achernar (轻柔)"},
	{ID: "Alnilam", Label: "Alnilam (坚定)"},
	{ID: "Schedar", Label: "Schedar (平稳)"},
	{ID: "Gacrux", Label: "Gacrux (成熟)"},
	{ID: "Pulcherrima", Label: "Pulcherrima (向前)"},
	{ID: "Achird", Label: "Achird (友好)"},
	{ID: "Zubenelgenubi", Label: "Zubenelgenubi (休闲)"},
	{ID: "Vindemiatrix", Label: "Vindemiatrix (温柔)"},
	{ID: "Sadachbia", Label: "Sadachbia (活泼)"},
	{ID: "Sadaltager", Label: "Sadaltager (博学)"},
	{ID: "Sulafat", Label: "Sulafat (温暖)"},
}

// Defaults returns a fresh copy of the built-in voice list.
func Defaults() []Voice {
	out := make([]Voice, len(defaultVoiceData))
	copy(out, defaultVoiceData)
	return out
}

// Normalize drops malformed entries and fills missing labels with the
// voice ID. An empty result falls back to the defaults.
func Normalize(in []Voice) []Voice {
	var out []Voice
	for _, v := range in {
		id := strings.TrimSpace(v.ID)
		if id == "" {
			continue
		}
		label := strings.TrimSpace(v.Label)
		if label == "" {
			label = id
		}
		out = append(out, Voice{ID: id, Label: label})
	}
	if len(out) == 0 {
		return Defaults()
	}
	return out
}

// TranslateLabel builds a human-friendly label for a voice from its
// optional description and language codes.
func TranslateLabel(voiceID, description string, languageCodes []string) string {
	var parts []string
	if description != "" {
		parts = append(parts, description)
	}
	parts = append(parts, languageCodes...)

	detail := strings.TrimSpace(strings.Join(parts, ", "))
	if detail != "" && !strings.Contains(strings.ToLower(voiceID), strings.ToLower(detail)) {
		return voiceID + " (" + detail + ")"
	}
	return voiceID
}
