package quotes

import "errors"

var (
	// ErrMissingName is returned when first or last name is blank.
	ErrMissingName = errors.New("first and last name are required")

	// ErrMissingEmail is returned when the email is blank.
	ErrMissingEmail = errors.New("email is required")

	// ErrMissingMessage is returned when the project description is blank.
	ErrMissingMessage = errors.New("project description is required")

	// ErrTermsRequired is returned when the terms checkbox is unchecked.
	ErrTermsRequired = errors.New("l'acceptation des conditions générales est obligatoire")

	// ErrNotFound is returned when a quote is not found.
	ErrNotFound = errors.New("quote not found")

	// ErrInvalidStatus is returned for an unknown status value.
	ErrInvalidStatus = errors.New("invalid quote status")

	// ErrMissingReason is returned when a rejection carries no reason.
	ErrMissingReason = errors.New("rejection reason is required")

	// ErrIllegalTransition is returned when the admin path requests a
	// transition the status machine forbids.
	ErrIllegalTransition = errors.New("illegal quote status transition")
)
