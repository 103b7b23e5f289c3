// Package main provides the entry point for the Gemini-TTS CLI.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/xb0or/Gemini-TTS/internal/config"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool

	cfg config.Config

	rootCmd = &cobra.Command{
		Use:   "gemini-tts",
		Short: "Convert text to speech with Gemini, one line or a whole batch at a time",
		Long: paragraph(
			fmt.Sprintf("\nConvert text to speech with %s, one line or a whole batch at a time.", keyword("Gemini")),
		),
		SilenceErrors: false,
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadConfig()
		},
	}
)

// loadConfig reads the configuration file, creating it with defaults when
// absent, and configures logging from it.
func loadConfig() error {
	if configFile == "" {
		configFile = config.DefaultPath()
	}

	c, err := config.Load(configFile)
	if err != nil {
		return err
	}
	cfg = c
	if debug {
		cfg.DebugEnabled = true
	}

	setupLog()
	log.Debug("configuration loaded", "path", configFile)
	return nil
}

// setupLog configures the default logger: warnings only unless debug is
// enabled, with an optional log file mirror in debug mode.
func setupLog() {
	if !cfg.DebugEnabled {
		log.SetLevel(log.WarnLevel)
		return
	}

	log.SetLevel(log.DebugLevel)
	log.SetReportTimestamp(true)
	log.SetTimeFormat(time.RFC3339)

	if cfg.LogFile == "" {
		return
	}
	path, err := homedir.Expand(cfg.LogFile)
	if err != nil {
		log.Warn("unable to expand log file path", "path", cfg.LogFile, "err", err)
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Warn("unable to open log file", "path", path, "err", err)
		return
	}
	// The handle stays open for the life of the process.
	log.SetOutput(io.MultiWriter(os.Stderr, f))
}

// saveConfig persists the in-memory configuration. Failures are logged but
// never abort the command that already did its work.
func saveConfig() {
	if err := config.Save(configFile, cfg); err != nil {
		log.Warn("unable to save configuration", "err", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is the user config dir)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(speakCmd, batchCmd, voicesCmd, configCmd, manCmd)
}
