package cli

import "fmt"

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ReloadError is returned when a running relay could not be asked to
// reload. PID is zero when the PID file could not be read.
type ReloadError struct {
	PIDFile string
	PID     int
	Err     error
}

func (e *ReloadError) Error() string {
	if e.PID == 0 {
		return fmt.Sprintf("reload via %s failed: %v", e.PIDFile, e.Err)
	}
	return fmt.Sprintf("reload of process %d (%s) failed: %v", e.PID, e.PIDFile, e.Err)
}

func (e *ReloadError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}
