package postgres

import (
	"context"

	"github.com/uptrace/bun"

	"certify-service/internal/domain"
)

// SeedCatalog inserts the default level ladder and badge catalog. Existing
// rows win; admins may have renamed them.
func SeedCatalog(ctx context.Context, db *bun.DB) error {
	for _, level := range domain.DefaultLadder() {
		m := levelModel{
			Number:    level.Number,
			Name:      level.Name,
			MinPoints: level.MinPoints,
		}
		_, err := db.NewInsert().Model(&m).
			On("CONFLICT (number) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	for _, badge := range domain.DefaultBadges() {
		m := badgeModel{
			Code:        badge.Code,
			Name:        badge.Name,
			Description: badge.Description,
			Icon:        badge.Icon,
		}
		_, err := db.NewInsert().Model(&m).
			On("CONFLICT (code) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}
