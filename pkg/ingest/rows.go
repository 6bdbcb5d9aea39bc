package ingest

import (
	"fmt"
	"strings"
)

// nameFields and stateFields are the row keys probed, in order, when
// extracting a raw reference. Upstream parsers disagree on column naming;
// unknown extra fields are ignored, never errors.
var nameFields = []string{"institution_name", "institution", "college_name", "college", "name"}
var stateFields = []string{"state", "institution_state", "state_name"}

// SkipError records why a malformed row was skipped. The batch keeps going;
// a skip is not a failure.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("row skipped: %s", e.Reason)
}

// ExtractReference pulls the institution name and state out of an arbitrary
// key-value row. Returns a SkipError when no institution-name field is
// present or empty; a missing state is allowed, the matcher compensates.
func ExtractReference(row map[string]any) (name, state string, err error) {
	name = firstString(row, nameFields)
	if name == "" {
		return "", "", &SkipError{Reason: "missing institution name"}
	}
	return name, firstString(row, stateFields), nil
}

func firstString(row map[string]any, keys []string) string {
	for _, key := range keys {
		if v, ok := row[key]; ok {
			if s, ok := v.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					return s
				}
			}
		}
	}
	return ""
}
