package character

import "errors"

var (
	// ErrNotFound means no record matched the requested name.
	ErrNotFound = errors.New("character not found")
	// ErrNoData means the store holds no records at all.
	ErrNoData = errors.New("no characters registered")
	// ErrMissingName is returned when a required name is blank.
	ErrMissingName = errors.New("name is required")
	// ErrDuplicateName is returned when registering a name that exists.
	ErrDuplicateName = errors.New("character name already registered")
	// ErrRegistrationFailed wraps image upload failures during Register.
	ErrRegistrationFailed = errors.New("registration failed")
	// ErrStaleTarget means the record disappeared between the prompt and
	// the committed mutation.
	ErrStaleTarget = errors.New("character no longer exists")
)
