package tools

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/FellowTraveler/opengpts/config"
	"github.com/FellowTraveler/opengpts/errors"
	"github.com/FellowTraveler/opengpts/tools/mcp"
	"github.com/bmatcuk/doublestar/v4"
)

// Tool defines the interface for any action the agent can take. Input and
// output are plain text; a tool interprets its own input.
type Tool interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, input string) (string, error)
}

// ToolRegistry holds every tool that could be offered to the model.
type ToolRegistry struct {
	tools      map[string]Tool
	order      []string
	mcpClients map[string]*mcp.MCPClient
	log        *slog.Logger
}

// NewToolRegistry registers the built-in tools and starts every configured
// MCP server. Call Close to stop the servers.
func NewToolRegistry(ctx context.Context, cfg *config.Config, log *slog.Logger) (*ToolRegistry, error) {
	if log == nil {
		log = slog.Default()
	}
	r := &ToolRegistry{
		tools:      make(map[string]Tool),
		mcpClients: make(map[string]*mcp.MCPClient),
		log:        log,
	}

	r.Register(&ReadFileTool{fsAccess: &cfg.FilesystemAccess})
	r.Register(&WriteFileTool{fsAccess: &cfg.FilesystemAccess})
	r.Register(&ExecuteCommandTool{allowedCommands: cfg.AllowedCommands, log: log})

	for _, server := range cfg.AdditionalMCPServers {
		client, err := mcp.NewMCPClient(ctx, server.Name, server.Command, server.Args, log)
		if err != nil {
			r.Close()
			return nil, errors.Wrapf(err, "failed to start MCP server '%s'", server.Name)
		}
		r.mcpClients[server.Name] = client
		for _, t := range client.Tools() {
			r.Register(t)
		}
	}

	return r, nil
}

// Register adds t, replacing any earlier tool of the same name.
func (r *ToolRegistry) Register(t Tool) {
	if _, ok := r.tools[t.Name()]; !ok {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

func (r *ToolRegistry) GetTool(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// GetActiveTools resolves a toolset into a catalog. Entries are exact tool
// names or glob patterns such as "gopls.*" selecting every tool of an MCP
// server. Tools keep the order in which the toolset names them.
func (r *ToolRegistry) GetActiveTools(ts *config.Toolset) (*Catalog, error) {
	var active []Tool
	picked := make(map[string]bool)
	for _, entry := range ts.Tools {
		if t, ok := r.GetTool(entry); ok {
			if !picked[entry] {
				active = append(active, t)
				picked[entry] = true
			}
			continue
		}
		if !doublestar.ValidatePattern(entry) {
			return nil, errors.New("invalid tool pattern '%s' in toolset '%s'", entry, ts.Name)
		}
		matched := false
		for _, name := range r.order {
			ok, err := doublestar.Match(entry, name)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid tool pattern '%s'", entry)
			}
			if !ok {
				continue
			}
			matched = true
			if !picked[name] {
				active = append(active, r.tools[name])
				picked[name] = true
			}
		}
		if !matched {
			return nil, errors.New("tool '%s' from toolset '%s' is not registered", entry, ts.Name)
		}
	}
	return NewCatalog(active...)
}

// Close stops every MCP server started by the registry.
func (r *ToolRegistry) Close() {
	for name, c := range r.mcpClients {
		if err := c.Stop(); err != nil {
			r.log.Warn("failed to stop MCP server", "server", name, "error", err)
		}
	}
}

// isPathRestricted checks if a path matches any of the glob patterns.
func isPathRestricted(path string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		match, err := doublestar.PathMatch(pattern, path)
		if err != nil {
			return false, fmt.Errorf("invalid glob pattern '%s': %w", pattern, err)
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

// isCommandAllowed checks if a command is in the allowlist (with regex support).
func isCommandAllowed(command string, allowed []string, log *slog.Logger) bool {
	if len(strings.Fields(command)) == 0 {
		return false
	}

	for _, pattern := range allowed {
		re, err := regexp.Compile(pattern)
		if err != nil {
			log.Warn("invalid regex in allowed_commands", "pattern", pattern, "error", err)
			// Fall back to an exact comparison.
			if command == pattern {
				return true
			}
			continue
		}
		if re.MatchString(command) {
			return true
		}
	}
	return false
}
