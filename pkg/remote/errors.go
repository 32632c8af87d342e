package remote

import "errors"

// Error kinds the sync engine distinguishes. Matched with errors.Is; the
// concrete gateway wraps transport failures into one of these.
var (
	// ErrNotConfigured means no remote credentials are present. Permanent
	// and expected; the engine runs local-only and never retries.
	ErrNotConfigured = errors.New("remote not configured")

	// ErrUnavailable covers network failures, timeouts and 5xx responses.
	// Transient; the current pass aborts and a later trigger retries.
	ErrUnavailable = errors.New("remote unavailable")

	// ErrAuthExpired means the session token was rejected and could not be
	// refreshed. The application must re-authenticate.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrMalformedPayload marks a response or event missing required fields.
	ErrMalformedPayload = errors.New("malformed payload")
)
