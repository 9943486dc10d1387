package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/strata/internal/logger"
	"github.com/mesh-intelligence/strata/pkg/backend"
	"github.com/mesh-intelligence/strata/pkg/cti"
	"github.com/mesh-intelligence/strata/pkg/things"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// session is an opened backend with the Thing hierarchy bound to it.
type session struct {
	settings settings
	log      *zap.Logger
	backend  types.Backend
	reg      *cti.Registry
	coord    *cti.Coordinator
	loader   *cti.Loader
}

// openSession resolves settings, opens the backend and, when migrate is
// set, brings the schema up to date. The caller must Close the session.
func openSession(migrate bool) (*session, error) {
	st, err := resolveSettings()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(st.logMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	b, err := backend.Open(st.backend, log)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", st.backend.Backend, err)
	}
	if migrate {
		if err := b.MigrateUp(); err != nil {
			b.Close()
			return nil, err
		}
	}
	reg, err := things.NewRegistry()
	if err != nil {
		b.Close()
		return nil, err
	}
	return &session{
		settings: st,
		log:      log,
		backend:  b,
		reg:      reg,
		coord:    cti.NewCoordinator(reg, b, log),
		loader:   cti.NewLoader(reg, b, log),
	}, nil
}

// Close releases the backend.
func (s *session) Close() error {
	_ = s.log.Sync()
	return s.backend.Close()
}
