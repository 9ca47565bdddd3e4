package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/storyboard/internal/composer"
	"github.com/lehigh-university-libraries/storyboard/internal/config"
	"github.com/lehigh-university-libraries/storyboard/internal/decode"
	"github.com/lehigh-university-libraries/storyboard/internal/host"
	"github.com/lehigh-university-libraries/storyboard/internal/models"
	"github.com/lehigh-university-libraries/storyboard/internal/render"
)

// ComposeReport is the YAML summary printed by the compose command.
type ComposeReport struct {
	Accepted []string                `yaml:"accepted"`
	Message  string                  `yaml:"message,omitempty"`
	State    string                  `yaml:"state"`
	Layout   models.Layout           `yaml:"layout"`
	Previews []models.DecodedPreview `yaml:"previews"`
	Failures []models.DecodeFailure  `yaml:"failures,omitempty"`
}

func newComposeCmd() *cobra.Command {
	var htmlPath string

	cmd := &cobra.Command{
		Use:   "compose FILE...",
		Short: "Compose local image files into a storyboard",
		Long: `Runs local files through the same validation and decoding as the web
interface and prints a YAML report of the resulting storyboard.

Non-image files are skipped and only the first --max-images images are kept.
With --html the rendered storyboard card is written to the given file.`,
		Example: `  # Report on three photos
  storyboard compose a.jpg b.png c.gif

  # Write the storyboard card as HTML
  storyboard compose --html board.html *.jpg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			files, err := readLocalFiles(args)
			if err != nil {
				return err
			}

			report, batch, err := compose(cmd.Context(), cfg, files)
			if err != nil {
				return err
			}

			if htmlPath != "" {
				if err := writeStoryboardHTML(htmlPath, batch); err != nil {
					return err
				}
				slog.Info("Storyboard written", "path", htmlPath, "previews", len(batch.Previews))
			}

			return writeReport(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&htmlPath, "html", "", "Write the rendered storyboard card to this file")

	return cmd
}

func readLocalFiles(paths []string) ([]models.FileHandle, error) {
	files := make([]models.FileHandle, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		files = append(files, decode.Handle(filepath.Base(p), "", data))
	}
	return files, nil
}

func compose(ctx context.Context, cfg config.Config, files []models.FileHandle) (*ComposeReport, composer.Batch, error) {
	session := host.New("cli", host.Options{
		MaxImages: cfg.MaxImages,
		Decoder:   decode.NewLimited(int64(cfg.MaxFileSize)),
		Composer: composer.Options{
			DecodeTimeout: cfg.DecodeTimeout,
			Concurrency:   cfg.Concurrency,
		},
	})
	defer session.Close()

	session.Submit(host.SourcePicker, files)
	batch, err := session.Wait(ctx)
	if err != nil {
		return nil, composer.Batch{}, fmt.Errorf("failed to compose storyboard: %w", err)
	}

	snap := session.Snapshot()
	report := &ComposeReport{
		Accepted: make([]string, 0, len(snap.Files)),
		Message:  snap.Message,
		State:    snap.State,
		Layout:   batch.Layout,
		Previews: batch.Previews,
		Failures: batch.Failures,
	}
	for _, f := range snap.Files {
		report.Accepted = append(report.Accepted, f.Name)
	}
	return report, batch, nil
}

func writeReport(w io.Writer, report *ComposeReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}

func writeStoryboardHTML(path string, batch composer.Batch) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := render.Storyboard(f, batch); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
