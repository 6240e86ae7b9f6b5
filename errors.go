package hxbridge

import "errors"

// Sentinel errors for bridge operations.
var (
	ErrInvalidConfig      = errors.New("hxbridge: invalid component configuration")
	ErrDuplicateComponent = errors.New("hxbridge: duplicate component id")
	ErrContractViolation  = errors.New("hxbridge: behavior does not implement OnComponentUpdate")
	ErrDuplicateBehavior  = errors.New("hxbridge: behavior already registered for component type")
	ErrUnknownComponent   = errors.New("hxbridge: unknown component")
	ErrTransportClosed    = errors.New("hxbridge: transport closed")
	ErrMailboxFull        = errors.New("hxbridge: mailbox full")
	ErrDisposed           = errors.New("hxbridge: disposed")
	ErrInvalidFormat      = errors.New("hxbridge: invalid envelope format")
	ErrSignatureInvalid   = errors.New("hxbridge: envelope signature verification failed")
	ErrDecryptFailed      = errors.New("hxbridge: envelope decryption failed")
)

// IsConfigError checks if err is a construction-time configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsDropped checks if err means an envelope was not delivered. Senders in
// a fire-and-forget model log these and carry on.
func IsDropped(err error) bool {
	return errors.Is(err, ErrTransportClosed) || errors.Is(err, ErrMailboxFull)
}

// IsDecodeError checks if err is an envelope decoding or authentication error.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrSignatureInvalid) ||
		errors.Is(err, ErrDecryptFailed)
}
