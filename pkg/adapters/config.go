package adapters

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"scanhub/pkg/findings"
	"scanhub/pkg/logger"
)

// ToolsConfig is the top-level shape of the tool definition file.
type ToolsConfig struct {
	Tools []ToolConfig `yaml:"tools" mapstructure:"tools"`
}

var log = logger.NewLogger(logrus.InfoLevel)

// LoadToolsConfig reads and unmarshals the tool definition file.
func LoadToolsConfig(path string) (*ToolsConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(strings.TrimPrefix(filepath.Ext(path), "."))
	v.SetEnvPrefix("SCANHUB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read tool config %s: %w", path, err)
	}

	var cfg ToolsConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tool config %s: %w", path, err)
	}
	if len(cfg.Tools) == 0 {
		return nil, fmt.Errorf("tool config %s defines no tools", path)
	}
	return &cfg, nil
}

// LoadRegistry builds a Registry from the tool definition file.
func LoadRegistry(path string) (*Registry, error) {
	cfg, err := LoadToolsConfig(path)
	if err != nil {
		return nil, err
	}

	r := NewRegistry()
	built, err := buildAll(cfg)
	if err != nil {
		return nil, err
	}
	r.replaceAll(built)

	log.Infof("Loaded %d tool adapters from %s", len(built), path)
	return r, nil
}

func buildAll(cfg *ToolsConfig) (map[findings.ScanKind]Adapter, error) {
	built := make(map[findings.ScanKind]Adapter, len(cfg.Tools))
	for _, tc := range cfg.Tools {
		a, err := buildAdapter(tc)
		if err != nil {
			return nil, err
		}
		built[a.Kind()] = a
	}
	return built, nil
}

// Watch reloads the registry whenever the tool definition file is written.
// A broken edit is logged and skipped; the previous adapter set stays
// active. Blocks until ctx is cancelled.
func (r *Registry) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors replace the file on save, which drops
	// a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	// Debounce bursts of write events from a single save.
	var pending bool
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				pending = true
			}

		case <-ticker.C:
			if !pending {
				continue
			}
			pending = false
			cfg, err := LoadToolsConfig(path)
			if err != nil {
				log.WithError(err).Error("Tool config reload failed, keeping previous adapters")
				continue
			}
			built, err := buildAll(cfg)
			if err != nil {
				log.WithError(err).Error("Tool config reload failed, keeping previous adapters")
				continue
			}
			r.replaceAll(built)
			log.Infof("Reloaded %d tool adapters from %s", len(built), path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Error("Tool config watcher error")

		case <-ctx.Done():
			return nil
		}
	}
}
