package payments

import "errors"

var (
	// ErrMissingSecret is returned when verification is attempted without a signing secret
	ErrMissingSecret = errors.New("payments: signing secret is not configured")
	// ErrMissingSignature is returned when the signature header is absent
	ErrMissingSignature = errors.New("payments: signature header is required")
	// ErrSignatureMismatch is returned when the signature does not verify against the raw body
	ErrSignatureMismatch = errors.New("payments: signature verification failed")
	// ErrMalformedEvent is returned when a verified body is not a provider event
	ErrMalformedEvent = errors.New("payments: malformed event payload")
)
