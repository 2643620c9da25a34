package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const version byte = 1

// Kind tags the entity shape carried in an envelope so that a value written for
// one kind is never decoded as another.
type Kind byte

const (
	KindMenu Kind = iota + 1
	KindSubmenu
	KindDish
	KindMenuList
	KindSubmenuList
	KindDishList
	KindFullList
)

func (k Kind) String() string {
	switch k {
	case KindMenu:
		return "menu"
	case KindSubmenu:
		return "submenu"
	case KindDish:
		return "dish"
	case KindMenuList:
		return "menu_list"
	case KindSubmenuList:
		return "submenu_list"
	case KindDishList:
		return "dish_list"
	case KindFullList:
		return "full_list"
	default:
		return fmt.Sprintf("kind(%d)", byte(k))
	}
}

var (
	ErrCorrupt = errors.New("menucache: corrupt entry")
	magic4     = [...]byte{'M', 'E', 'N', 'U'}
)

const hdrLen = 4 + 1 + 1 + 1 + 8 + 4

// Envelope is a decoded cache entry. Payload aliases the input buffer.
type Envelope struct {
	Kind    Kind
	Schema  byte
	Gen     uint64
	Payload []byte
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode frames a payload:
//
//	magic(4) | ver(1) | kind(1) | schema(1) | gen(u64 be) | vlen(u32 be) | payload(vlen)
func Encode(e Envelope) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(e.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(byte(e.Kind))
	buf.WriteByte(e.Schema)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], e.Gen)
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Payload)))
	buf.Write(u4[:])

	buf.Write(e.Payload)
	return buf.Bytes()
}

// Decode parses a framed entry. Trailing bytes are rejected.
func Decode(b []byte) (Envelope, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version || b[5] == 0 {
		return Envelope{}, ErrCorrupt
	}
	e := Envelope{Kind: Kind(b[5]), Schema: b[6]}

	off := 7
	e.Gen = binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off {
		return Envelope{}, ErrCorrupt
	}
	e.Payload = b[off : off+vlen]
	return e, nil
}

// DecodeAs decodes b and checks that it carries the expected kind and schema.
func DecodeAs(b []byte, kind Kind, schema byte) (gen uint64, payload []byte, err error) {
	e, err := Decode(b)
	if err != nil {
		return 0, nil, err
	}
	if e.Kind != kind || e.Schema != schema {
		return 0, nil, fmt.Errorf("%w: got %s/v%d want %s/v%d", ErrCorrupt, e.Kind, e.Schema, kind, schema)
	}
	return e.Gen, e.Payload, nil
}
