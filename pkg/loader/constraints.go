package loader

import (
	"context"
	"fmt"

	"github.com/dd0wney/medgraph/pkg/backend"
	"github.com/dd0wney/medgraph/pkg/logging"
)

// SetupConstraints declares the key property unique for every label. It is
// safe to run repeatedly.
func SetupConstraints(ctx context.Context, store backend.Store, labels []string, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	for _, label := range labels {
		if err := store.EnsureUniqueConstraint(ctx, label, backend.KeyProperty); err != nil {
			return fmt.Errorf("constraint on %s.%s: %w", label, backend.KeyProperty, err)
		}
		logger.Debug("unique constraint ensured", logging.Label(label), logging.String("property", backend.KeyProperty))
	}
	return nil
}
