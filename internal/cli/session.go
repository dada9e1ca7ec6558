package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/cabinet/internal/logging"
	"github.com/mesh-intelligence/cabinet/internal/paths"
	"github.com/mesh-intelligence/cabinet/internal/schemafile"
	"github.com/mesh-intelligence/cabinet/pkg/cabinet"
	"github.com/mesh-intelligence/cabinet/pkg/orm"
	"github.com/mesh-intelligence/cabinet/pkg/types"
)

// session is the state one command runs with: loaded configuration, the
// declared schemas and, when requested, an open store.
type session struct {
	v          *viper.Viper
	configDir  string
	schemaPath string
	registry   *orm.Registry
	schemas    []*orm.Schema
	store      types.Store
}

// prepare resolves the config directory, loads config.yaml and installs
// the logger. The caller must call close.
func prepare(cmd *cobra.Command, flags *rootFlags) (*session, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, sysErrorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return nil, sysErrorf("%w", err)
	}

	_ = logging.Close()
	if err := logging.Init(loggingConfig(v, cmd.ErrOrStderr())); err != nil {
		return nil, sysErrorf("init logging: %w", err)
	}

	schemaPath, err := paths.ResolveSchemaFile(flags.schemaFile, v.GetString(cfgKeySchema), configDir)
	if err != nil {
		_ = logging.Close()
		return nil, sysErrorf("resolve schema file: %w", err)
	}
	return &session{v: v, configDir: configDir, schemaPath: schemaPath}, nil
}

// openSession prepares a session and loads the entity declarations. With
// withStore it also opens the configured store.
func openSession(cmd *cobra.Command, flags *rootFlags, withStore bool) (*session, error) {
	s, err := prepare(cmd, flags)
	if err != nil {
		return nil, err
	}
	if err := s.loadSchemas(); err != nil {
		s.close()
		return nil, err
	}
	if withStore {
		if err := s.openStore(cmd.Context(), flags); err != nil {
			s.close()
			return nil, err
		}
	}
	return s, nil
}

func (s *session) loadSchemas() error {
	file, err := schemafile.Load(s.schemaPath)
	if err != nil {
		return userErrorf("load schema: %w", err)
	}
	s.registry = orm.NewRegistry()
	s.schemas, err = file.Register(s.registry)
	if err != nil {
		return userErrorf("declare entities: %w", err)
	}
	logging.Debug("schemas loaded", "file", s.schemaPath, "entities", len(s.schemas))
	return nil
}

func (s *session) openStore(ctx context.Context, flags *rootFlags) error {
	dataDir, err := paths.ResolveDataDir(flags.dataDir, s.v.GetString(cfgKeyDataDir))
	if err != nil {
		return sysErrorf("resolve data dir: %w", err)
	}
	store, err := cabinet.Open(ctx, storeConfig(s.v, dataDir))
	if err != nil {
		if isConfigError(err) {
			return userErrorf("invalid configuration: %w", err)
		}
		return sysErrorf("open store: %w", err)
	}
	s.store = store
	return nil
}

// table returns the record table for entity.
func (s *session) table(entity string) (*orm.Table[*orm.Record], error) {
	schema, ok := s.registry.Lookup(entity)
	if !ok {
		return nil, userErrorf("unknown entity %q (declared: %s)", entity, strings.Join(s.registry.Names(), ", "))
	}
	return orm.NewRecordTable(schema, s.store), nil
}

func (s *session) close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			logging.Warn("close store", "error", err)
		}
	}
	_ = logging.Close()
}

func isConfigError(err error) bool {
	for _, target := range []error{
		types.ErrBackendEmpty, types.ErrBackendUnknown, types.ErrDSNEmpty, types.ErrRateInvalid,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
