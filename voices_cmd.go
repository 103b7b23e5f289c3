package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/xb0or/Gemini-TTS/internal/voices"
)

var (
	voicesRefresh bool

	voicesCmd = &cobra.Command{
		Use:   "voices",
		Short: "List the available voices",
		Long: paragraph(
			fmt.Sprintf("\nList the %s you can speak with. The list is fetched from the API and cached for a day; when fetching fails the cached list keeps working.", keyword("voices")),
		),
		Args: cobra.NoArgs,
		RunE: runVoices,
	}
)

func runVoices(*cobra.Command, []string) error {
	dir := voices.NewDirectory(cfg.APIKey, cfg.Voices, cfg.VoicesCachedTime())

	list := dir.Cached()
	if voicesRefresh || !dir.Fresh() {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		refreshed, err := dir.Refresh(ctx)
		if err != nil {
			fmt.Println(subtleStyle.Render("Could not refresh the voice list, showing cached voices:"), err)
		} else {
			list = refreshed
			cfg.Voices = refreshed
			cfg.VoicesCachedAt = dir.CachedAt().Unix()
			saveConfig()
		}
	}

	for _, v := range list {
		mark := "  "
		if v.ID == cfg.DefaultVoice {
			mark = okStyle.Render("* ")
		}
		if v.Label != "" && v.Label != v.ID {
			fmt.Printf("%s%s  %s\n", mark, v.ID, subtleStyle.Render(v.Label))
		} else {
			fmt.Printf("%s%s\n", mark, v.ID)
		}
	}
	return nil
}

func init() {
	voicesCmd.Flags().BoolVarP(&voicesRefresh, "refresh", "r", false, "refresh the voice list even if the cache is fresh")
}
