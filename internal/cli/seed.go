package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"certify-service/internal/config"
	"certify-service/internal/infra/postgres"
)

// NewSeedCmd loads the default level ladder and badge catalog.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed default levels and badges",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}

			db := openBun(cfg.Postgres.URL)
			defer db.Close()

			if err := postgres.SeedCatalog(cmd.Context(), db); err != nil {
				return err
			}
			log.Printf("catalog seeded")
			return nil
		},
	}
}
