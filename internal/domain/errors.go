package domain

import "errors"

// Sentinel errors for archive and slideshow operations. Callers match with
// errors.Is so wrapped variants carry context without losing the category.
var (
	// ErrNotFound indicates the referenced item, slideshow or file no
	// longer exists.
	ErrNotFound = errors.New("item not found")

	// ErrInvalidID indicates a malformed item identifier. Callers treat
	// it like a missing item rather than failing the request.
	ErrInvalidID = errors.New("invalid item id")

	// ErrConflict indicates an operation that would violate an invariant,
	// such as deleting the last remaining slideshow.
	ErrConflict = errors.New("operation conflicts with current state")

	// ErrEmptySlideshow indicates an export target that is missing or has
	// no resolvable slides to render.
	ErrEmptySlideshow = errors.New("slideshow is missing or has nothing to render")
)
