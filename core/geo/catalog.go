package geo

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidGeography is matched by every ValidationError.
var ErrInvalidGeography = errors.New("invalid geography")

// ValidationError reports the values of one column that failed the local
// format check for their geography type.
type ValidationError struct {
	Kind    Kind
	Values  []string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidGeography
}

// Catalog validates geography values against the closed set of kinds.
type Catalog struct {
	gazetteer *Gazetteer
	states    *StateDirectory
}

// NewCatalog creates a catalog. A nil gazetteer disables membership checks
// except for kinds with a fallback pattern; a nil directory uses the
// embedded state table.
func NewCatalog(gazetteer *Gazetteer, states *StateDirectory) *Catalog {
	if states == nil {
		states = States()
	}
	return &Catalog{gazetteer: gazetteer, states: states}
}

// States returns the state directory used by the catalog.
func (c *Catalog) States() *StateDirectory {
	return c.states
}

// Validate checks a batch of values for one kind and returns whether it
// passed and, if not, a message naming every failing value.
func (c *Catalog) Validate(kind Kind, values []string) (bool, string) {
	if err := c.ValidateValues(kind, values); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return false, verr.Message
		}
		return false, err.Error()
	}
	return true, ""
}

// ValidateValues is Validate returning a *ValidationError on failure.
func (c *Catalog) ValidateValues(kind Kind, values []string) error {
	t, ok := LookupType(kind)
	if !ok {
		return &ValidationError{Kind: kind, Message: fmt.Sprintf("%q is not a supported geography type", kind)}
	}
	if !t.HasValidator() {
		return nil
	}

	seen := make(map[string]struct{})
	var invalid []string
	for _, raw := range values {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if !c.accepts(t, v) {
			invalid = append(invalid, v)
		}
	}
	if len(invalid) == 0 {
		return nil
	}
	return &ValidationError{
		Kind:    kind,
		Values:  invalid,
		Message: fmt.Sprintf("The following values are not valid %s: %s", t.Noun, strings.Join(invalid, ", ")),
	}
}

func (c *Catalog) accepts(t Type, v string) bool {
	switch t.Validation {
	case PatternMatch:
		return t.Pattern.MatchString(v)
	case GazetteerMembership:
		if c.gazetteer.Loaded(t.Kind) {
			return c.gazetteer.Contains(t.Kind, v)
		}
		if t.Fallback != nil {
			return t.Fallback.MatchString(v)
		}
		return true
	case DirectoryLookup:
		_, ok := c.states.Lookup(v)
		return ok
	default:
		return true
	}
}
