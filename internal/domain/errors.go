package domain

import "errors"

// Sentinel errors classified at the handler boundary with errors.Is.
// Storage and upstream details are wrapped around these, logged server-side,
// and never exposed to clients beyond a short message.
var (
	// ErrMissingCredential means no bearer token was supplied.
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidCredential means the bearer token is malformed, expired,
	// or carries a bad signature.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrVendorNotApproved covers both "no vendor linked to this account"
	// and "vendor exists but is not active". Callers must not be able to
	// tell the two apart.
	ErrVendorNotApproved = errors.New("not an active approved vendor")

	// ErrCategoryNotAllowed means the requested category is outside the
	// vendor's allowed set.
	ErrCategoryNotAllowed = errors.New("category not allowed for this vendor")

	// ErrNotFound covers missing resources and ownership mismatches alike,
	// so the existence of another vendor's post is never revealed.
	ErrNotFound = errors.New("not found")

	// ErrInvalid means a required field is missing or malformed.
	ErrInvalid = errors.New("invalid request")

	// ErrUpstream means the storage layer or the external image function
	// failed.
	ErrUpstream = errors.New("upstream failure")
)
