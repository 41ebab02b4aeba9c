package sync

import "fmt"

// The error taxonomy below mirrors the failure containment design: all of
// these are fatal to a single entity or format only, except EnvironmentError
// which aborts the whole run before the loop starts. The driver loop is the
// single boundary where per-entity errors are caught.

// ConfigurationError marks invalid driver-supplied configuration, such as an
// unknown hostgroup format token. It is raised before any external call.
type ConfigurationError struct {
	msg string
}

func (e *ConfigurationError) Error() string { return e.msg }

func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...)}
}

// PreconditionError marks an entity that cannot be synced in its current
// state: no primary IP, no link custom field, no resolvable template or
// hostgroup, or a target record needing manual intervention.
type PreconditionError struct {
	msg string
}

func (e *PreconditionError) Error() string { return e.msg }

func preconditionErrorf(format string, args ...any) *PreconditionError {
	return &PreconditionError{msg: fmt.Sprintf(format, args...)}
}

// ExternalError wraps a rejected call to one of the two external systems.
type ExternalError struct {
	msg string
	err error
}

func (e *ExternalError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *ExternalError) Unwrap() error { return e.err }

func externalError(msg string, err error) *ExternalError {
	return &ExternalError{msg: msg, err: err}
}

// EnvironmentError marks missing run-level requirements such as connection
// credentials. It terminates the process before any entity is touched.
type EnvironmentError struct {
	msg string
}

func (e *EnvironmentError) Error() string { return e.msg }
