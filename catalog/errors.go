package catalog

import (
	"fmt"
	"strings"
)

// SchemaError indicates an artifact that exists but does not match the
// expected shape (missing required columns, or a score table that is not a
// flat JSON object).
//
// The underlying decode error (if any) can be accessed via errors.Unwrap.
type SchemaError struct {
	Artifact string
	Missing  []string
	cause    error
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("catalog: artifact %q missing required columns: %s",
			e.Artifact, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("catalog: artifact %q has unexpected shape: %v", e.Artifact, e.cause)
}

func (e *SchemaError) Unwrap() error { return e.cause }

// RecordError indicates a single bad row in the polygon table. One bad row
// fails the whole build; no partial catalog is ever committed.
//
// The geometry decode error can be accessed via errors.Unwrap / errors.As.
type RecordError struct {
	Row      int
	RegionID string
	cause    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("catalog: polygon record %d (region %q): %v", e.Row, e.RegionID, e.cause)
}

func (e *RecordError) Unwrap() error { return e.cause }
