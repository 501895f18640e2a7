package bedpe

import "fmt"

// unknownName identifies a row whose name column could not be read.
const unknownName = "unknown"

// FormatError reports a row with the wrong shape or a field of the wrong type.
type FormatError struct {
	Name    string // Record name, or "unknown"
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("bedpe format error in %s: %s", e.Name, e.Message)
}

// MissingAnnotationKeyError reports a required key absent from the annotation entry.
type MissingAnnotationKeyError struct {
	Name string
	Key  string
}

func (e *MissingAnnotationKeyError) Error() string {
	return fmt.Sprintf("bedpe record %s: annotation has no %s key", e.Name, e.Key)
}

// ParseError attaches the input line number to a normalization error.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bedpe parse error at line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
