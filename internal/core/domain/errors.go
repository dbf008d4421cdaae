package domain

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Taxonomy sentinels. Every structured error below matches exactly one
	// of these through errors.Is.
	ErrConfig       = errors.New("configuration error")
	ErrReference    = errors.New("unknown reference")
	ErrState        = errors.New("invalid state")
	ErrExternalTool = errors.New("external tool failed")
	ErrIO           = errors.New("i/o error")
	ErrCycle        = errors.New("dependency cycle")

	// Descriptor errors
	ErrEmptyDescriptor = errors.New("workspace descriptor is empty")
	ErrMissingContext  = errors.New("required context variable missing")

	// Registry errors
	ErrNoActiveProject  = errors.New("active project is not set")
	ErrProjectExists    = errors.New("project already exists")
	ErrProjectNotFound  = errors.New("project not found")
	ErrWorkspaceMissing = errors.New("workspace path does not exist")
)

// ConfigError reports a malformed or missing workspace descriptor, or a
// component whose configuration cannot produce a usable context.
type ConfigError struct {
	Path    string // descriptor file or component name
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, msg)
	}
	return msg
}

func (e *ConfigError) Unwrap() error        { return e.Err }
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// NewConfigError creates a new ConfigError.
func NewConfigError(path, message string, err error) *ConfigError {
	return &ConfigError{Path: path, Message: message, Err: err}
}

// ReferenceError reports a name that does not resolve: an extends target,
// a dependency, a service requested by a caller or a registry project.
type ReferenceError struct {
	Op    string // e.g. "extending component web"
	Kind  string // component, service, project
	Name  string
	Known []string
}

func (e *ReferenceError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s %q is not defined", e.Kind, e.Name)
	if len(e.Known) > 0 {
		fmt.Fprintf(&b, ". Known %ss: %s", e.Kind, strings.Join(e.Known, ", "))
	}
	return b.String()
}

func (e *ReferenceError) Is(target error) bool { return target == ErrReference }

// NewReferenceError creates a new ReferenceError.
func NewReferenceError(op, kind, name string, known []string) *ReferenceError {
	return &ReferenceError{Op: op, Kind: kind, Name: name, Known: known}
}

// StateError reports an operation that is not allowed in the current state,
// such as executing on a template or having no active project.
type StateError struct {
	Op      string
	Name    string
	Message string
	Err     error
}

func (e *StateError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Name, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *StateError) Unwrap() error        { return e.Err }
func (e *StateError) Is(target error) bool { return target == ErrState }

// NewStateError creates a new StateError.
func NewStateError(op, name, message string, err error) *StateError {
	return &StateError{Op: op, Name: name, Message: message, Err: err}
}

// ExternalToolError reports a subprocess that exited non-zero.
type ExternalToolError struct {
	Args     []string // full argument vector, program first
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExternalToolError) Error() string {
	msg := fmt.Sprintf("%s: exit code %d", strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExternalToolError) Unwrap() error        { return e.Err }
func (e *ExternalToolError) Is(target error) bool { return target == ErrExternalTool }

// NewExternalToolError creates a new ExternalToolError.
func NewExternalToolError(args []string, exitCode int, stderr string, err error) *ExternalToolError {
	return &ExternalToolError{Args: args, ExitCode: exitCode, Stderr: stderr, Err: err}
}

// IOError reports a filesystem access failure.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error        { return e.Err }
func (e *IOError) Is(target error) bool { return target == ErrIO }

// NewIOError creates a new IOError.
func NewIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}

// CycleError reports a dependency path that revisits a component.
type CycleError struct {
	Path []string // first and last element are the same component
}

func (e *CycleError) Error() string {
	return "dependency cycle detected: " + strings.Join(e.Path, " -> ")
}

func (e *CycleError) Is(target error) bool { return target == ErrCycle }
