package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// State backend names accepted in a context
const (
	BackendFile = "file"
	BackendSSM  = "ssm"
)

// Context represents a deployment context: where stacks run and where
// their records are kept
type Context struct {
	Profile string `yaml:"profile,omitempty"` // AWS profile name
	Region  string `yaml:"region,omitempty"`

	StateBackend string `yaml:"state_backend,omitempty"` // "file" or "ssm"
	StateDir     string `yaml:"state_dir,omitempty"`     // file backend root
	SSMPrefix    string `yaml:"ssm_prefix,omitempty"`    // ssm parameter prefix
}

// Defaults represents default settings
type Defaults struct {
	Output  string        `yaml:"output,omitempty"` // table, json, yaml
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// StratConfig represents the main configuration file (~/.strat.yaml)
type StratConfig struct {
	CurrentContext string              `yaml:"current_context,omitempty"`
	Contexts       map[string]*Context `yaml:"contexts,omitempty"`
	Defaults       *Defaults           `yaml:"defaults,omitempty"`
}

// GetConfigPath returns the config file path (~/.strat.yaml)
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".strat.yaml"
	}
	return filepath.Join(home, ".strat.yaml")
}

// DefaultStateDir returns the file backend root (~/.strat/state)
func DefaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".strat/state"
	}
	return filepath.Join(home, ".strat", "state")
}

// Load loads the configuration from ~/.strat.yaml
func Load() (*StratConfig, error) {
	configPath := GetConfigPath()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return &StratConfig{
				Contexts: make(map[string]*Context),
				Defaults: &Defaults{Output: "table"},
			}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg StratConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Initialize maps if nil
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	if cfg.Defaults == nil {
		cfg.Defaults = &Defaults{Output: "table"}
	}

	return &cfg, nil
}

// Save saves the configuration to ~/.strat.yaml
func Save(cfg *StratConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := GetConfigPath()
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetCurrentContext returns the current active context
func GetCurrentContext() (*Context, string, error) {
	cfg, err := Load()
	if err != nil {
		return nil, "", err
	}

	if cfg.CurrentContext == "" {
		return nil, "", nil
	}

	ctx, ok := cfg.Contexts[cfg.CurrentContext]
	if !ok {
		return nil, "", fmt.Errorf("context %q not found", cfg.CurrentContext)
	}

	return ctx, cfg.CurrentContext, nil
}

// SetCurrentContext sets the current active context
func SetCurrentContext(name string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	// Validate context exists
	if _, ok := cfg.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}

	cfg.CurrentContext = name
	return Save(cfg)
}

// AddContext adds or updates a context
func AddContext(name string, ctx *Context) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.Contexts[name] = ctx
	return Save(cfg)
}

// DeleteContext removes a context
func DeleteContext(name string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	delete(cfg.Contexts, name)

	// Clear current context if it was the deleted one
	if cfg.CurrentContext == name {
		cfg.CurrentContext = ""
	}

	return Save(cfg)
}

// ListContexts returns all configured contexts
func ListContexts() (map[string]*Context, string, error) {
	cfg, err := Load()
	if err != nil {
		return nil, "", err
	}

	return cfg.Contexts, cfg.CurrentContext, nil
}
