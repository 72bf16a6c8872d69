package llm

import "fmt"

// ConfigError reports missing or invalid backend settings. It is returned
// before any network I/O takes place.
type ConfigError struct {
	Provider string
	Reason   string
}

func (e *ConfigError) Error() string {
	if e.Provider == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s provider not configured: %s", displayName(e.Provider), e.Reason)
}

// BackendError wraps a failed call to a text-generation service.
type BackendError struct {
	Provider string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s API error: %v", displayName(e.Provider), e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
