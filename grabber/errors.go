package grabber

import "errors"

var (
	// ErrConfiguration is returned when a strategy has no usable metadata.
	// It is a deployment defect, and retrying will not help
	ErrConfiguration = errors.New("broken strategy")

	// ErrEmptyResult is returned when a run recorded no exchange data at all
	ErrEmptyResult = errors.New("no exchange data produced")

	// ErrMalformedData is returned when a recorded tuple has a zero
	// currency, or a non-positive buy or sale value
	ErrMalformedData = errors.New("broken markup: no exchange")

	// ErrChecksumMismatch is returned when a recorded check token is not
	// among the known tokens of its currency
	ErrChecksumMismatch = errors.New("broken markup: check fail")
)

// Error kinds, as reported by Kind
const (
	KindNone          = "ok"
	KindConfiguration = "configuration"
	KindEmpty         = "empty"
	KindMalformed     = "malformed"
	KindChecksum      = "checksum"
	KindOther         = "other"
)

// Kind classifies the given grab error, so callers can apply
// a per-kind policy (and label metrics) without matching each sentinel
func Kind(err error) string {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrEmptyResult):
		return KindEmpty
	case errors.Is(err, ErrMalformedData):
		return KindMalformed
	case errors.Is(err, ErrChecksumMismatch):
		return KindChecksum
	default:
		return KindOther
	}
}
