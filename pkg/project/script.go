package project

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/shell"

	rberrors "github.com/rubyelders/rb/pkg/errors"
)

// ScriptDefinition is one entry of the [scripts] table. It is written
// either as a bare string or as a table with command and description:
//
//	test = "rspec"
//	lint = { command = "rubocop -a", description = "Fix style offenses" }
type ScriptDefinition struct {
	command     string
	description string
	detailed    bool
}

// Simple returns the bare-string form.
func Simple(command string) ScriptDefinition {
	return ScriptDefinition{command: command}
}

// Detailed returns the table form.
func Detailed(command, description string) ScriptDefinition {
	return ScriptDefinition{command: command, description: description, detailed: true}
}

// Command returns the command line for either form.
func (s ScriptDefinition) Command() string { return s.command }

// Description returns the description, empty for the simple form.
func (s ScriptDefinition) Description() string { return s.description }

// IsDetailed reports whether the script was written in table form.
func (s ScriptDefinition) IsDetailed() bool { return s.detailed }

// UnmarshalTOML decodes either form.
func (s *ScriptDefinition) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case string:
		*s = Simple(v)
	case map[string]any:
		cmd, ok := v["command"].(string)
		if !ok {
			return fmt.Errorf("script table needs a string \"command\" key")
		}
		var desc string
		if raw, present := v["description"]; present {
			if desc, ok = raw.(string); !ok {
				return fmt.Errorf("script \"description\" must be a string")
			}
		}
		*s = Detailed(cmd, desc)
	default:
		return fmt.Errorf("script must be a string or a table, got %T", data)
	}
	if strings.TrimSpace(s.command) == "" {
		return fmt.Errorf("script command is empty")
	}
	return nil
}

// Argv splits the command into words the way a POSIX shell would.
// Quotes are honored and $VAR references are expanded through env; a nil
// env expands against the current process environment. Command
// substitution and globbing are not performed.
func (s ScriptDefinition) Argv(env func(string) string) ([]string, error) {
	words, err := shell.Fields(s.command, env)
	if err != nil {
		return nil, rberrors.Wrap(rberrors.ErrCodeInvalidScript, err, "cannot parse script command %q", s.command)
	}
	if len(words) == 0 {
		return nil, rberrors.New(rberrors.ErrCodeInvalidScript, "script command %q is empty", s.command)
	}
	return words, nil
}
