package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/uptrace/bun"

	"certify-service/internal/domain"
)

// RulesEnabledKey is the settings row gating the admin rule catalog.
const RulesEnabledKey = "gamification_rules_enabled"

// RuleStore reads and writes the admin rule catalog outside any attempt
// transaction. Reads go through a RuleCache in front of it.
type RuleStore struct {
	db *bun.DB
}

func NewRuleStore(db *bun.DB) *RuleStore {
	return &RuleStore{db: db}
}

func (s *RuleStore) ActiveRules(ctx context.Context, now time.Time) ([]domain.GamificationRule, error) {
	var ms []ruleModel
	err := s.db.NewSelect().Model(&ms).
		Where("gr.active").
		Where("gr.active_from IS NULL OR gr.active_from <= ?", now).
		Where("gr.active_to IS NULL OR gr.active_to >= ?", now).
		Order("priority ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	rules := make([]domain.GamificationRule, len(ms))
	for i, m := range ms {
		rules[i] = m.toDomain()
	}
	return rules, nil
}

// SaveRule inserts a new rule or replaces an existing one by ID.
func (s *RuleStore) SaveRule(ctx context.Context, rule *domain.GamificationRule) error {
	m := ruleToModel(*rule)
	if m.ID == 0 {
		if _, err := s.db.NewInsert().Model(&m).Exec(ctx); err != nil {
			return err
		}
		rule.ID = m.ID
		return nil
	}
	_, err := s.db.NewUpdate().Model(&m).WherePK().Exec(ctx)
	return err
}

// SettingsStore reads feature flags from app_settings. A missing row means
// the rule catalog is disabled; the built-in heuristics run regardless.
type SettingsStore struct {
	db *bun.DB
}

func NewSettingsStore(db *bun.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) RulesEnabled(ctx context.Context) (bool, error) {
	var m settingModel
	err := s.db.NewSelect().Model(&m).Where("st.key = ?", RulesEnabledKey).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	enabled, err := strconv.ParseBool(m.Value)
	if err != nil {
		return false, nil
	}
	return enabled, nil
}

// SetRulesEnabled upserts the flag; callers must clear the rule cache
// themselves if they want the change visible before the TTL.
func (s *SettingsStore) SetRulesEnabled(ctx context.Context, enabled bool) error {
	m := settingModel{Key: RulesEnabledKey, Value: strconv.FormatBool(enabled)}
	_, err := s.db.NewInsert().Model(&m).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(ctx)
	return err
}
