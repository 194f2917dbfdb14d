// Package talents loads talent bundles: per-talent directories of YAML
// command configurations bound to code-registered executors.
package talents

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/accordbot/accord/internal/core"
	"github.com/accordbot/accord/internal/logging"
	"gopkg.in/yaml.v3"
)

// talentManifest is the optional talent.yaml at the root of a talent dir
type talentManifest struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Clients     core.ClientList `yaml:"clients"`
}

// Registry binds command keys to their executors and talent names to
// their listeners. Configurations come from files; behavior from code.
type Registry struct {
	executors map[string]core.Executor
	listeners map[string][]core.Listener
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		executors: make(map[string]core.Executor),
		listeners: make(map[string][]core.Listener),
	}
}

// RegisterExecutor binds a command key to its executor
func (r *Registry) RegisterExecutor(key string, executor core.Executor) {
	r.executors[key] = executor
}

// RegisterListener attaches a listener to a talent name
func (r *Registry) RegisterListener(talent string, listener core.Listener) {
	r.listeners[talent] = append(r.listeners[talent], listener)
}

// Load reads every talent directory under dir. Each subdirectory is one
// talent: an optional talent.yaml manifest plus one YAML file per
// command. A bad command file, a command with no key, or a command with
// no registered executor skips that command with a warning; it never
// fails the whole load.
func (r *Registry) Load(dir string) ([]*core.Talent, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read talents dir: %w", err)
	}

	var talents []*core.Talent
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		talent, err := r.loadTalent(filepath.Join(dir, entry.Name()))
		if err != nil {
			logging.Warn("talents", "Failed to load talent %s: %v", entry.Name(), err)
			continue
		}
		talents = append(talents, talent)
		logging.Info("talents", "Loaded talent %s: %d commands, %d listeners",
			talent.Name, len(talent.Commands), len(talent.Listeners))
	}
	return talents, nil
}

func (r *Registry) loadTalent(dir string) (*core.Talent, error) {
	talent := &core.Talent{Name: filepath.Base(dir)}

	manifestPath := filepath.Join(dir, "talent.yaml")
	if data, err := os.ReadFile(manifestPath); err == nil {
		var manifest talentManifest
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			return nil, fmt.Errorf("bad manifest: %w", err)
		}
		if manifest.Name != "" {
			talent.Name = manifest.Name
		}
		talent.Clients = manifest.Clients
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob commands: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob commands: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		if filepath.Base(file) == "talent.yaml" {
			continue
		}
		command, err := r.loadCommand(file)
		if err != nil {
			logging.Warn("talents", "Skipping %s: %v", file, err)
			continue
		}
		talent.Commands = append(talent.Commands, command)
	}

	talent.Listeners = r.listeners[talent.Name]
	return talent, nil
}

func (r *Registry) loadCommand(path string) (*core.Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg core.CommandConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("bad command config: %w", err)
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("command config has no key")
	}
	executor, ok := r.executors[cfg.Key]
	if !ok {
		return nil, fmt.Errorf("no executor registered for command %s", cfg.Key)
	}
	return &core.Command{Config: cfg, Executor: executor}, nil
}
