package journal

import (
	"fmt"

	"github.com/kilianp07/battsim/core/factory"
)

var storeRegistry = factory.NewRegistry[Store]()

// Config selects the journal backend. An empty Type disables the journal.
type Config struct {
	Store factory.ModuleConfig `json:"store"`
}

// Enabled reports whether a store type is configured.
func (c Config) Enabled() bool { return c.Store.Type != "" }

// RegisterStore adds a store factory identified by name.
func RegisterStore(name string, f factory.Factory[Store]) error {
	return storeRegistry.Register(name, f)
}

// StoreTypes lists the registered store type names.
func StoreTypes() []string { return storeRegistry.Names() }

// NewStore creates the configured store.
func NewStore(cfg factory.ModuleConfig) (Store, error) {
	s, err := storeRegistry.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("journal store: %w", err)
	}
	return s, nil
}

type fileConf struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

func decodeFileConf(conf map[string]any, def string) (fileConf, error) {
	c := fileConf{Path: def, MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 7}
	if err := factory.Decode(conf, &c); err != nil {
		return c, err
	}
	if c.Path == "" {
		return c, fmt.Errorf("path is required")
	}
	return c, nil
}

func init() {
	_ = RegisterStore("jsonl", func(conf map[string]any) (Store, error) {
		c, err := decodeFileConf(conf, "battery_events.jsonl")
		if err != nil {
			return nil, err
		}
		return NewJSONLStore(c.Path)
	})
	_ = RegisterStore("jsonl_rotating", func(conf map[string]any) (Store, error) {
		c, err := decodeFileConf(conf, "battery_events.jsonl")
		if err != nil {
			return nil, err
		}
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	})
	_ = RegisterStore("sqlite", func(conf map[string]any) (Store, error) {
		c, err := decodeFileConf(conf, "battery_events.db")
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	})
}
