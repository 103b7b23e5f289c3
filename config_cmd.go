package main

import (
	"fmt"
	"os"
	"path"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Edit the gemini-tts config file",
	Long:    paragraph(fmt.Sprintf("\n%s the gemini-tts config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("gemini-tts config\ngemini-tts config --config path/to/config.json"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		// loadConfig already created the file with defaults when absent.
		if ext := path.Ext(configFile); ext != ".json" {
			return fmt.Errorf("'%s' is not a supported configuration type: use '%s'", ext, ".json")
		}

		c, err := editor.Cmd("Gemini-TTS", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}
