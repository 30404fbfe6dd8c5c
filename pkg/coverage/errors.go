package coverage

import "fmt"

// SchemaError is returned when a report is not valid JSON or does not match
// the selected schema.
type SchemaError struct {
	Format Format
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid %s coverage report: %v", e.Format, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ReadError is returned when a report file cannot be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("cannot read coverage report %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
