// Package gemini implements the synthesis client against the Gemini
// text-to-speech models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini TTS model used when none is configured.
const DefaultModel = "gemini-2.5-pro-preview-tts"

var (
	// ErrMissingAPIKey means no Gemini API key is configured.
	ErrMissingAPIKey = errors.New("Gemini API key missing, configure it first")

	// ErrEmptyText means there is nothing to synthesize.
	ErrEmptyText = errors.New("input text is empty")

	// ErrNoAudio means the provider response carried no audio payload.
	ErrNoAudio = errors.New("response did not include audio content")
)

// Options configures a Client. The zero value is not usable: APIKey is
// required.
type Options struct {
	APIKey  string
	BaseURL string  // optional alternative endpoint
	Model   string  // defaults to DefaultModel
	Speed   float64 // playback speed factor, clamped to 0.5–2.0
}

// Client performs blocking synthesis calls and writes the resulting audio
// as a 24 kHz mono WAV file. It satisfies the batch engine's Synthesizer
// interface.
type Client struct {
	opts Options
}

// NewClient creates a synthesis client from options. Credentials are only
// validated by Preflight or on the first call.
func NewClient(opts Options) *Client {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	return &Client{opts: opts}
}

// Preflight checks that the client is configured well enough to attempt a
// call. It never touches the network.
func (c *Client) Preflight() error {
	if strings.TrimSpace(c.opts.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Synthesize converts text spoken by voice into a WAV file at outputPath.
// The call blocks until the provider responds or fails.
func (c *Client) Synthesize(ctx context.Context, text, voice, outputPath string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if err := c.Preflight(); err != nil {
		return err
	}

	client, err := c.newAPIClient(ctx)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	log.Info("requesting speech synthesis", "voice", voice, "output", outputPath)

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, c.opts.Model, genai.Text(text), cfg)
	if err != nil {
		return fmt.Errorf("generate content: %w", err)
	}

	pcm, err := extractPCM(resp)
	if err != nil {
		return err
	}

	if err := WriteWAV(outputPath, pcm, SampleRate(c.opts.Speed)); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}

	log.Info("audio saved", "path", outputPath, "bytes", len(pcm))
	return nil
}

func (c *Client) newAPIClient(ctx context.Context) (*genai.Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(c.opts.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if base := strings.TrimSpace(c.opts.BaseURL); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	return genai.NewClient(ctx, cfg)
}

// extractPCM pulls the inline PCM payload out of a generate-content
// response.
func extractPCM(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, ErrNoAudio
	}

	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return nil, ErrNoAudio
	}

	for _, part := range candidate.Content.Parts {
		if part == nil || part.InlineData == nil {
			continue
		}
		if len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, nil
		}
	}

	return nil, ErrNoAudio
}
