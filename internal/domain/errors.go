package domain

import "errors"

// Errores de conexión. ErrAuthRejected es terminal: no se reintenta.
var (
	ErrAuthRejected         = errors.New("auth rejected")
	ErrTransportUnavailable = errors.New("transport unavailable")
)

// Errores de envío.
var (
	ErrNotConnected   = errors.New("not connected")
	ErrEmptyMessage   = errors.New("empty message")
	ErrMissingTarget  = errors.New("missing target student")
	ErrDeliveryFailed = errors.New("delivery failed")
)

// Errores del enrutador de roles.
var (
	ErrRoleChoiceRequired = errors.New("role choice required")
	ErrAccessDenied       = errors.New("access denied")
)
