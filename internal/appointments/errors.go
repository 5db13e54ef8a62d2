package appointments

import "errors"

var (
	// ErrMissingName is returned when first or last name is blank.
	ErrMissingName = errors.New("first and last name are required")

	// ErrMissingEmail is returned when the email is blank.
	ErrMissingEmail = errors.New("email is required")

	// ErrConsentRequired is returned when the privacy consent box is unchecked.
	ErrConsentRequired = errors.New("consent is required")

	// ErrNotFound is returned when an appointment is not found.
	ErrNotFound = errors.New("appointment not found")

	// ErrInvalidStatus is returned for an unknown status value.
	ErrInvalidStatus = errors.New("invalid appointment status")
)
