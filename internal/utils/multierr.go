package utils

import "strings"

// MultiError collects failures from multi-step teardown and reporting
// paths where later steps must still run.
type MultiError struct {
	Errors []error
}

func (m *MultiError) Error() string {
	parts := make([]string, 0, len(m.Errors))
	for _, err := range m.Errors {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, "; ")
}

// Add records err unless it is nil.
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// ErrorOrNil returns the collection as an error, or nil when nothing
// was added.
func (m *MultiError) ErrorOrNil() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}
