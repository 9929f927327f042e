package config

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/FellowTraveler/opengpts/errors"
	"gopkg.in/yaml.v3"
)

// Dir is the per-user and per-project directory holding config and checkpoints.
const Dir = ".opengpts"

// DefaultMaxSteps bounds a single run when max_steps is not configured.
const DefaultMaxSteps = 25

type FilesystemAccess struct {
	Hidden   []string `yaml:"hidden"`
	ReadOnly []string `yaml:"read_only"`
}

type MCPServer struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

type Toolset struct {
	Name  string   `yaml:"name"`
	Tools []string `yaml:"tools"`
}

// Checkpoint selects where conversations are persisted between steps.
type Checkpoint struct {
	Backend string `yaml:"backend"` // "file", "sqlite" or "memory"
	Path    string `yaml:"path"`
}

type Config struct {
	LLMClient            string           `yaml:"llm"`
	Model                string           `yaml:"model"`
	SystemMessage        string           `yaml:"system_message"`
	PromptTemplate       string           `yaml:"prompt_template"`
	MaxSteps             int              `yaml:"max_steps"`
	Checkpoint           Checkpoint       `yaml:"checkpoint"`
	Toolsets             []Toolset        `yaml:"toolsets"`
	AdditionalMCPServers []MCPServer      `yaml:"additional_mcp_servers"`
	AllowedCommands      []string         `yaml:"allowed_commands"`
	FilesystemAccess     FilesystemAccess `yaml:"filesystem_access"`
}

// LoadConfig loads configuration from the user's home directory and the current
// working directory, with the latter taking precedence.
func LoadConfig() (*Config, error) {
	cfg := defaults()

	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, Dir, "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := loadFromFile(userConfigPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectConfigPath := filepath.Join(wd, Dir, "config.yaml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := loadFromFile(projectConfigPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}

	cfg.hideStateDir()
	return cfg, cfg.Validate()
}

func defaults() *Config {
	return &Config{
		MaxSteps:   DefaultMaxSteps,
		Checkpoint: Checkpoint{Backend: "file"},
	}
}

// hideStateDir keeps the config and checkpoint directory out of reach of the
// file tools. It runs after the config files are merged, since a hidden list
// in YAML replaces the whole slice.
func (c *Config) hideStateDir() {
	for _, p := range []string{Dir, Dir + "/**"} {
		if !slices.Contains(c.FilesystemAccess.Hidden, p) {
			c.FilesystemAccess.Hidden = append(c.FilesystemAccess.Hidden, p)
		}
	}
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Unmarshal overwrites only the fields present in the file, so a project
	// config replaces user-level values key by key.
	return yaml.Unmarshal(data, cfg)
}

// Validate rejects settings the agent cannot run with.
func (c *Config) Validate() error {
	if c.MaxSteps < 0 {
		return errors.New("max_steps must not be negative, got %d", c.MaxSteps)
	}
	switch c.Checkpoint.Backend {
	case "", "file", "sqlite", "memory":
	default:
		return errors.New("unknown checkpoint backend %q", c.Checkpoint.Backend)
	}
	seen := make(map[string]bool)
	for _, s := range c.AdditionalMCPServers {
		if s.Name == "" || s.Command == "" {
			return errors.New("MCP server entries need both name and command")
		}
		if seen[s.Name] {
			return errors.New("duplicate MCP server name %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// LoadPromptTemplate returns the configured template file's contents, or
// "" when none is configured.
func (c *Config) LoadPromptTemplate() (string, error) {
	if c.PromptTemplate == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.PromptTemplate)
	if err != nil {
		return "", errors.Wrapf(err, "could not read prompt template %s", c.PromptTemplate)
	}
	return string(data), nil
}

// GetToolset finds a toolset by name. Returns the "default" toolset if the
// named one is not found or if an empty name is provided.
func (c *Config) GetToolset(name string) (*Toolset, error) {
	if name == "" {
		name = "default"
	}
	for _, ts := range c.Toolsets {
		if ts.Name == name {
			return &ts, nil
		}
	}
	if name == "default" {
		return nil, errors.New("mandatory 'default' toolset not found in configuration")
	}
	return c.GetToolset("default")
}
