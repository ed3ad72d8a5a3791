package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/jsonc"

	"github.com/aretw0/quadrant/pkg/core"
)

// DefaultConfigPath is the vault-relative location of the configuration
// document.
const DefaultConfigPath = "PriorityMatrix/priority_matrix_data.json"

const userConfigKey = "userConfig"

// ConfigStore persists the configuration document as JSON inside the vault.
// It implements core.ConfigStore.
type ConfigStore struct {
	vault  *Vault
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

var _ core.ConfigStore = (*ConfigStore)(nil)

// NewConfigStore creates a store for the document at the vault-relative
// path, or DefaultConfigPath when path is empty.
func NewConfigStore(vault *Vault, path string) *ConfigStore {
	if path == "" {
		path = DefaultConfigPath
	}
	return &ConfigStore{
		vault:  vault,
		path:   path,
		logger: vault.logger.With("component", "config"),
	}
}

// storedConfig mirrors core.Config with the merge-over-defaults sections
// kept raw.
type storedConfig struct {
	Sections        map[string]core.Category `json:"sections"`
	Display         json.RawMessage          `json:"display"`
	Scheduling      json.RawMessage          `json:"scheduling"`
	ExcludedFolders []string                 `json:"excludedFolders"`
	UI              json.RawMessage          `json:"ui"`
}

// Load reads the document and merges it over core.DefaultConfig.
// A missing document yields the defaults. A malformed or invalid document
// is logged and also yields the defaults.
func (s *ConfigStore) Load(ctx context.Context) (core.Config, error) {
	if err := ctx.Err(); err != nil {
		return core.DefaultConfig(), err
	}
	abs, rel, err := s.vault.resolve(s.path)
	if err != nil {
		return core.DefaultConfig(), err
	}

	s.mu.Lock()
	raw, err := os.ReadFile(abs)
	s.mu.Unlock()
	if os.IsNotExist(err) {
		s.logger.Debug("no configuration document, using defaults", "path", rel)
		return core.DefaultConfig(), nil
	}
	if err != nil {
		return core.DefaultConfig(), fmt.Errorf("failed to read configuration: %w", err)
	}

	cfg, err := decodeConfig(raw)
	if err != nil {
		s.logger.Warn("ignoring malformed configuration", "path", rel, "error", err)
		return core.DefaultConfig(), nil
	}
	if err := cfg.Validate(); err != nil {
		s.logger.Warn("ignoring invalid configuration", "path", rel, "error", err)
		return core.DefaultConfig(), nil
	}
	return cfg, nil
}

func decodeConfig(raw []byte) (core.Config, error) {
	cfg := core.DefaultConfig()

	var top map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(raw), &top); err != nil {
		return cfg, err
	}
	body, ok := top[userConfigKey]
	if !ok || string(body) == "null" {
		return cfg, nil
	}

	var stored storedConfig
	if err := json.Unmarshal(body, &stored); err != nil {
		return cfg, err
	}
	for _, m := range []struct {
		raw json.RawMessage
		dst any
	}{
		{stored.Display, &cfg.Display},
		{stored.Scheduling, &cfg.Scheduling},
		{stored.UI, &cfg.UI},
	} {
		if len(m.raw) == 0 || string(m.raw) == "null" {
			continue
		}
		if err := json.Unmarshal(m.raw, m.dst); err != nil {
			return cfg, err
		}
	}
	if stored.Sections != nil {
		cfg.Sections = stored.Sections
	}
	if stored.ExcludedFolders != nil {
		cfg.ExcludedFolders = stored.ExcludedFolders
	}
	cfg.UI.SearchQuery = ""
	return cfg.Clone(), nil
}

// Save validates cfg and writes it under the "userConfig" key, preserving
// every other top-level key of an existing document.
func (s *ConfigStore) Save(ctx context.Context, cfg core.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.vault.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	abs, rel, err := s.vault.resolve(s.path)
	if err != nil {
		return err
	}

	cfg = cfg.Clone()
	cfg.UI.SearchQuery = ""
	body, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	top := map[string]json.RawMessage{}
	if existing, err := os.ReadFile(abs); err == nil {
		if err := json.Unmarshal(jsonc.ToJSON(existing), &top); err != nil {
			s.logger.Warn("overwriting malformed configuration", "path", rel, "error", err)
			top = map[string]json.RawMessage{}
		}
	}
	top[userConfigKey] = body

	out, err := json.MarshalIndent(top, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("failed to create configuration folder: %w", err)
	}
	if err := writeFileAtomic(abs, append(out, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	s.logger.Debug("configuration saved", "path", rel)
	return nil
}
