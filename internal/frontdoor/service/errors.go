package service

import "errors"

var (
	// ErrUntrustedDestination is returned when a destination's origin is not
	// on the allow-list, or is not an absolute http(s) URL at all.
	ErrUntrustedDestination = errors.New("service: destination is not an allowed portal")

	// ErrNoDestination is returned by Confirm when no pending destination is
	// stored.
	ErrNoDestination = errors.New("service: no pending destination")

	// ErrNoRefreshCredential is returned when a refresh is needed but no
	// refresh credential is stored.
	ErrNoRefreshCredential = errors.New("service: no refresh credential")

	// ErrInvalidTransition is returned when a continuation step is invoked
	// from a state that does not allow it.
	ErrInvalidTransition = errors.New("service: invalid continuation transition")

	// ErrNoSession is returned by Guard when no access credential is stored.
	ErrNoSession = errors.New("service: no session")

	// ErrSessionExpired is returned when the stored access credential is
	// malformed or expired. The session has been cleared.
	ErrSessionExpired = errors.New("service: session expired")

	// ErrNoRole is returned by Guard when the credential carries no role.
	ErrNoRole = errors.New("service: credential carries no role")

	// ErrStaleRenewal is returned when a renewal finished after the watchdog
	// was stopped or the session was cleared. Its result was discarded.
	ErrStaleRenewal = errors.New("service: renewal result discarded")
)
