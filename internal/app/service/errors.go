package service

import "errors"

var (
	// ErrNotAuthenticated is returned by operations that need a live wallet session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrUnknownNetwork is returned for a network key the registry does not know.
	ErrUnknownNetwork = errors.New("unknown network")
	// ErrInvalidAction is returned when an action request fails validation.
	ErrInvalidAction = errors.New("invalid action")
	// ErrSessionChanged is returned when the network or session changed while a login ran.
	ErrSessionChanged = errors.New("session changed during login")
	// ErrListingTruncated is reported when the owned-asset listing hits its page limit.
	ErrListingTruncated = errors.New("owned asset listing truncated")
)
