package tools

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/FellowTraveler/opengpts/errors"
)

// ExecuteCommandTool implements the tool for running OS commands.
type ExecuteCommandTool struct {
	allowedCommands []string
	log             *slog.Logger
}

func (t *ExecuteCommandTool) Name() string { return "execute_command" }
func (t *ExecuteCommandTool) Description() string {
	if len(t.allowedCommands) == 0 {
		return "Executes a shell command. No commands are currently allowed. Input: the command line."
	}
	return fmt.Sprintf("Executes a shell command. Input: the command line. Allowed command patterns: %s",
		strings.Join(t.allowedCommands, ", "))
}

func (t *ExecuteCommandTool) Invoke(ctx context.Context, input string) (string, error) {
	command := strings.TrimSpace(input)
	if command == "" {
		return "", errors.New("missing command")
	}

	log := t.log
	if log == nil {
		log = slog.Default()
	}
	if !isCommandAllowed(command, t.allowedCommands, log) {
		return "", errors.New("command '%s' is not in the list of allowed commands", command)
	}

	parts := strings.Fields(command)
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", errors.Wrapf(err, "command execution failed. Output:\n%s", string(output))
	}

	return fmt.Sprintf("Command executed successfully. Output:\n%s", string(output)), nil
}
