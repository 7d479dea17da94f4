package errors

import (
	"strings"
	"unicode"
)

// ValidateScriptName validates a script name declared in rbproject.toml.
// Names are used as command-line arguments and completion candidates, so
// they must be non-empty and free of whitespace and control characters.
func ValidateScriptName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidScript, "script name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidScript, "script name too long (max 128 characters): %q", name)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidScript, "script name contains control characters: %q", name)
		}
		if unicode.IsSpace(r) {
			return New(ErrCodeInvalidScript, "script name contains whitespace: %q", name)
		}
	}

	if strings.HasPrefix(name, "-") {
		return New(ErrCodeInvalidScript, "script name cannot start with '-': %q", name)
	}

	return nil
}

// ValidateProgramName validates a program name handed to the command
// wrapper before it is resolved against PATH.
func ValidateProgramName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "no program specified")
	}

	if strings.ContainsRune(name, '\x00') {
		return New(ErrCodeInvalidInput, "program name contains a null byte")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "program name contains control characters: %q", name)
		}
	}

	return nil
}
