package schema

import "strings"

// SchemaError reports that required column roles could not be found.
type SchemaError struct {
	// Missing lists what was expected, in user-facing words.
	Missing []string
}

func (e *SchemaError) Error() string {
	if e == nil || len(e.Missing) == 0 {
		return "please check your data"
	}
	return "please check your data, expected columns: " + strings.Join(e.Missing, "; ")
}
