package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/storyboard/internal/config"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storyboard",
		Short: "Compose a small batch of images into a grid storyboard preview",
		Long: `Storyboard validates a selection of up to a handful of images, decodes them
concurrently and lays them out as a grid preview.

It can serve a browser interface with click-to-browse and drag-and-drop
uploads, or compose local files from the command line.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			level, _ := config.ParseLogLevel(cfg.LogLevel)
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newComposeCmd())

	return cmd
}
