package errors

// Kind tags an error with one of the gateway's internal failure categories,
// mirroring the taxonomy the observability events are named after.
type Kind string

const (
	// KindDirectoryWrite marks a failed session-directory write (put, delete,
	// set add, or put-and-members).
	// The connection proceeds but is unreachable cross-node until the write
	// succeeds again.
	KindDirectoryWrite Kind = "directory_write_failed"

	// KindCodec marks undecodable bytes from a peer or client.
	KindCodec Kind = "codec_failure"

	// KindShape marks a well-decoded value missing required fields or of
	// the wrong root type.
	KindShape Kind = "shape_failure"

	// KindNoValidator marks a validate::<event> emission with no registered
	// listener.
	KindNoValidator Kind = "no_validator"

	// KindValidatorRejected marks a validator completion with an error or
	// ok == false.
	KindValidatorRejected Kind = "validator_rejected"

	// KindPeerDelivery marks a failed HTTP PUT to a peer's broadcast
	// endpoint.
	KindPeerDelivery Kind = "peer_delivery_failure"
)

type kindError struct {
	kind  Kind
	cause error
}

func (e *kindError) Error() string {
	if e.cause == nil {
		return string(e.kind)
	}
	return string(e.kind) + ": " + e.cause.Error()
}

func (e *kindError) Unwrap() error { return e.cause }

// WithKind tags cause with kind. Returns nil if cause is nil.
func WithKind(cause error, kind Kind) error {
	if cause == nil {
		return nil
	}
	return &kindError{kind: kind, cause: cause}
}

// KindOf reports the Kind attached to err via WithKind, if any.
func KindOf(err error) (Kind, bool) {
	var ke *kindError
	if As(err, &ke) {
		return ke.kind, true
	}
	return "", false
}
