package codec

import (
	"errors"
	"fmt"
)

// ErrTooLarge is returned by LimitCodec.Decode for oversized payloads.
var ErrTooLarge = errors.New("codec: payload too large")

// LimitCodec refuses to decode cache entries above MaxDecode bytes, so one
// oversized listing cannot be pulled into memory on every read. The cache
// treats the error like any undecodable entry and drops it. Encode is passed
// through.
type LimitCodec[V any] struct {
	Inner     Codec[V]
	MaxDecode int // <= 0 disables the check
}

func (c LimitCodec[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }

func (c LimitCodec[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
