/*
errors.go - Error types for the aggregation engine

ERROR CATEGORIES:
  1. Input errors - malformed periods, unknown levels, broken rosters
  2. Lookup errors - references to organizations that do not exist

  Missing metrics are NOT errors: nodes without records get zero-valued
  placeholders so every sum stays defined.

SEE ALSO:
  - api/handlers.go: maps these errors to HTTP status codes
*/
package analytics

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned for keys that are not YYYY-MM or out of range.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrUnknownLevel is returned for an organization level outside the four ranks.
	ErrUnknownLevel = errors.New("unknown organization level")

	// ErrOrganizationNotFound is returned when an org ID does not resolve.
	ErrOrganizationNotFound = errors.New("organization not found")

	// ErrDuplicateOrganization is returned when a roster repeats an org ID.
	ErrDuplicateOrganization = errors.New("duplicate organization id")

	// ErrCycleDetected is returned when parent links form a loop.
	ErrCycleDetected = errors.New("organization hierarchy contains a cycle")

	// ErrMissingOrgID is returned for records without an organization.
	ErrMissingOrgID = errors.New("record has no organization id")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// CycleError lists the organizations that form a parent-link loop.
type CycleError struct {
	Members []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("organization hierarchy contains a cycle: %s", strings.Join(e.Members, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether err was caused by invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrUnknownLevel) ||
		errors.Is(err, ErrDuplicateOrganization) ||
		errors.Is(err, ErrCycleDetected) ||
		errors.Is(err, ErrMissingOrgID)
}

// IsNotFound reports whether err means a referenced organization is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrganizationNotFound)
}
