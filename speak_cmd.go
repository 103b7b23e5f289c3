package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/dustin/go-humanize"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/xb0or/Gemini-TTS/internal/gemini"
)

var (
	speakVoice  string
	speakOutput string
	speakFile   string
	speakSpeed  float64

	speakCmd = &cobra.Command{
		Use:   "speak [TEXT]",
		Short: "Synthesize a single piece of text into a WAV file",
		Long: paragraph(
			fmt.Sprintf("\n%s one piece of text. The text comes from the argument, from --file, or from stdin when piped. The voice and output path you pick are remembered for next time.", keyword("Speak")),
		),
		Example: paragraph("gemini-tts speak \"hello there\"\ngemini-tts speak --file story.txt -o story.wav\necho hi | gemini-tts speak"),
		Args:    cobra.MaximumNArgs(1),
		RunE:    runSpeak,
	}
)

func runSpeak(cmd *cobra.Command, args []string) error {
	text, err := speakText(args)
	if err != nil {
		return err
	}

	voice := speakVoice
	if voice == "" {
		voice = cfg.DefaultVoice
	}
	output := speakOutput
	if output == "" {
		output = cfg.DefaultOutput
	}
	output, err = homedir.Expand(output)
	if err != nil {
		return fmt.Errorf("unable to expand output path: %w", err)
	}

	client := gemini.NewClient(gemini.Options{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Speed:   speakSpeed,
	})
	if err := client.Preflight(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := client.Synthesize(ctx, text, voice, output); err != nil {
		return err
	}

	size := ""
	if st, err := os.Stat(output); err == nil {
		size = " (" + humanize.Bytes(uint64(st.Size())) + ")" //nolint:gosec
	}
	fmt.Println(okStyle.Render("✓"), "Wrote", output+size)

	// Remember explicit choices for the next invocation.
	if cmd.Flags().Changed("voice") || cmd.Flags().Changed("output") || cmd.Flags().Changed("file") {
		if cmd.Flags().Changed("voice") {
			cfg.DefaultVoice = voice
		}
		if cmd.Flags().Changed("output") {
			cfg.DefaultOutput = speakOutput
		}
		if cmd.Flags().Changed("file") {
			cfg.InputTextPath = speakFile
		}
		saveConfig()
	}
	return nil
}

// speakText resolves the input text: the positional argument wins, then
// --file, then piped stdin.
func speakText(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		if text := strings.TrimSpace(args[0]); text != "" {
			return text, nil
		}
		return "", errors.New("the given text is empty")
	}

	if speakFile != "" {
		path, err := homedir.Expand(speakFile)
		if err != nil {
			return "", fmt.Errorf("unable to expand path: %w", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("unable to read text file: %w", err)
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			return text, nil
		}
		return "", fmt.Errorf("text file %s is empty", path)
	}

	if yes, _ := stdinIsPipe(); yes || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("unable to read from stdin: %w", err)
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			return text, nil
		}
		return "", errors.New("stdin was empty")
	}

	return "", errors.New("nothing to speak: pass TEXT, --file or pipe to stdin")
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to stat stdin: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func init() {
	speakCmd.Flags().StringVarP(&speakVoice, "voice", "v", "", "voice to speak with (default from config)")
	speakCmd.Flags().StringVarP(&speakOutput, "output", "o", "", "output WAV path (default from config)")
	speakCmd.Flags().StringVarP(&speakFile, "file", "f", "", "read the text from a file")
	speakCmd.Flags().Float64Var(&speakSpeed, "speed", 1.0, "playback speed factor, 0.5 to 2.0")
}
