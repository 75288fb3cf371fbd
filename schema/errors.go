package schema

import "errors"

var (
	// ErrInvalidTab indicates an empty or malformed tab identifier.
	ErrInvalidTab = errors.New("invalid tab")
	// ErrSessionNotFound indicates no capture session exists for the tab.
	ErrSessionNotFound = errors.New("session not found")
	// ErrDebuggerUnavailable indicates no debugger backend is configured.
	ErrDebuggerUnavailable = errors.New("debugger not configured")
	// ErrDownloadsUnavailable indicates no download store is configured.
	ErrDownloadsUnavailable = errors.New("downloads not configured")
)
