package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrEditRejected       = fmt.Errorf("playlist edit rejected")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Run control
	ErrStopped        = fmt.Errorf("stopped by user")
	ErrAlreadyRunning = fmt.Errorf("another run is already in progress")

	// Ordering and identity errors
	ErrSortUnverifiable        = fmt.Errorf("could not verify oldest-first sort")
	ErrSortDrift               = fmt.Errorf("sort drift detected")
	ErrReconciliationAmbiguous = fmt.Errorf("replacement entry is ambiguous")
	ErrReconciliationNotFound  = fmt.Errorf("replacement entry not found")
	ErrNoEntries               = fmt.Errorf("no playlist entries found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
