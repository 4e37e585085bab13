package shared

import (
	"fmt"
	"strings"
)

// ValidationPolicy decides what happens to a malformed entry inside an
// otherwise valid meal plan document.
type ValidationPolicy string

const (
	// PolicyLenient drops malformed days, meals and snacks and keeps the rest.
	PolicyLenient ValidationPolicy = "lenient"
	// PolicyStrict rejects the whole document on the first malformed entry.
	PolicyStrict ValidationPolicy = "strict"
)

// ParseValidationPolicy maps a configuration value to a policy. Empty means lenient.
func ParseValidationPolicy(s string) (ValidationPolicy, error) {
	switch ValidationPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyLenient:
		return PolicyLenient, nil
	case PolicyStrict:
		return PolicyStrict, nil
	}
	return "", fmt.Errorf("unknown validation policy %q", s)
}
