package preferences

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
	"go.uber.org/zap"
)

// MigrationResult summarizes one legacy import
type MigrationResult struct {
	Migrated int
	Failed   []string
}

// migrate copies known keys from the legacy source into prefs one at a
// time. A failing key is logged and skipped; the rest still migrate.
func (s *Store) migrate(ctx context.Context, prefs types.Preferences) MigrationResult {
	var result MigrationResult

	for _, setting := range settings {
		migrated, err := s.migrateKey(ctx, prefs, setting)
		if err != nil {
			result.Failed = append(result.Failed, setting.Key)
			s.logger.Warn("Legacy preference not migrated", zap.String("key", setting.Key), zap.Error(err))
			continue
		}
		if migrated {
			result.Migrated++
		}
	}
	return result
}

func (s *Store) migrateKey(ctx context.Context, prefs types.Preferences, setting Setting) (bool, error) {
	v, ok, err := s.legacy.Get(ctx, setting.Key)
	if err != nil {
		return false, err
	}
	if !ok || v == nil {
		return false, nil
	}

	v, _ = Unwrap(v)
	if !compatible(setting.Type, v) {
		return false, fmt.Errorf("expected %s, got %T", setting.Type, v)
	}
	prefs[setting.Key] = normalizeNumber(v)
	return true, nil
}
