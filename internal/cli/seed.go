package cli

import (
	"context"
	"fmt"

	"photosynthesis-lab/internal/config"
	"photosynthesis-lab/internal/domain"
	"photosynthesis-lab/internal/infra/postgres"
	"photosynthesis-lab/internal/infra/yamlfile"
	"photosynthesis-lab/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewSeedCmd writes the built-in content, plus any content in the configured
// YAML file, into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed lab content into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if file != "" {
				cfg.Content.File = file
			}
			log := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err := runMigrations(cmd.Context(), cfg, log); err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg, log)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML content file to seed (overrides content.file)")
	return cmd
}

func runSeed(ctx context.Context, cfg config.Config, log logrus.FieldLogger) error {
	contents := []domain.Content{domain.DefaultContent()}
	if cfg.Content.File != "" {
		fromFile, err := yamlfile.NewContentLoader(cfg.Content.File).LoadAll()
		if err != nil {
			return fmt.Errorf("read %s: %w", cfg.Content.File, err)
		}
		contents = append(contents, fromFile...)
	}

	db := postgres.OpenBun(cfg.Postgres.URL)
	defer db.Close()

	seeder := postgres.NewContentSeeder(db)
	if err := seeder.Seed(ctx, contents...); err != nil {
		return err
	}
	ids, err := seeder.IDs(ctx)
	if err != nil {
		return err
	}
	log.WithField("content_ids", ids).Info("content seeded")
	return nil
}
