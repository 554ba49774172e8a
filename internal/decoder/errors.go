package decoder

import (
	"errors"
	"fmt"
)

var (
	ErrBadBase64         = errors.New("item bytes are not valid base64")
	ErrNoItem            = errors.New("payload has no item slot i[0]")
	ErrMissingCount      = errors.New("item has no Count")
	ErrBadCount          = errors.New("item Count is not positive")
	ErrMissingAttributes = errors.New("item has no tag.ExtraAttributes")
	ErrMissingID         = errors.New("ExtraAttributes has no id")
)

// DecodeError reports a payload that could not be decoded. The entry is
// skipped; it never fails the surrounding batch.
type DecodeError struct {
	AuctionID string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode auction %s: %v", e.AuctionID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
