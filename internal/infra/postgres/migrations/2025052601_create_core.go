package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_core.sql
var createCoreSQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createCoreSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`
				DROP TABLE IF EXISTS app_settings;
				DROP TABLE IF EXISTS gamification_rules;
				DROP TABLE IF EXISTS challenge_scores;
				DROP TABLE IF EXISTS team_challenges;
				DROP TABLE IF EXISTS point_events;
				DROP TABLE IF EXISTS levels;
				DROP TABLE IF EXISTS user_badges;
				DROP TABLE IF EXISTS badges;
				DROP TABLE IF EXISTS gamification_stats;
				DROP TABLE IF EXISTS attempt_answers;
				DROP TABLE IF EXISTS attempts;
				DROP TABLE IF EXISTS users;
				DROP TABLE IF EXISTS question_options;
				DROP TABLE IF EXISTS questions;
				DROP TABLE IF EXISTS assessments`)
			return err
		},
	)
}
