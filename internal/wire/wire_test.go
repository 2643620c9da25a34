package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func mustDecode(t *testing.T, b []byte) Envelope {
	t.Helper()
	e, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	return e
}

func TestRoundTripEmptyAndNonEmpty(t *testing.T) {
	cases := []Envelope{
		{Kind: KindMenu, Schema: 1, Gen: 0, Payload: nil},
		{Kind: KindSubmenuList, Schema: 3, Gen: 42, Payload: []byte(`[{"id":"x"}]`)},
		{Kind: KindDish, Schema: 1, Gen: math.MaxUint64, Payload: []byte{0, 1, 2, 3, 4}},
	}
	for _, tc := range cases {
		got := mustDecode(t, Encode(tc))
		if got.Kind != tc.Kind || got.Schema != tc.Schema || got.Gen != tc.Gen {
			t.Fatalf("header mismatch: got %+v want %+v", got, tc)
		}
		if !bytes.Equal(got.Payload, tc.Payload) {
			t.Fatalf("payload mismatch: got %x want %x", got.Payload, tc.Payload)
		}
	}
}

func TestRejectsTrailingBytes(t *testing.T) {
	enc := Encode(Envelope{Kind: KindMenu, Schema: 1, Gen: 7, Payload: []byte("x")})
	enc = append(enc, 0xDE, 0xAD) // add junk
	if _, err := Decode(enc); err == nil {
		t.Fatalf("expected error on trailing bytes")
	}
}

func TestCorruptHeadersAndLengths(t *testing.T) {
	enc := Encode(Envelope{Kind: KindMenu, Schema: 1, Gen: 1, Payload: []byte("abc")})

	// bad magic
	badMagic := append([]byte(nil), enc...)
	badMagic[0] = 'X'
	if _, err := Decode(badMagic); err == nil {
		t.Fatalf("expected error on bad magic")
	}

	// wrong version
	badVer := append([]byte(nil), enc...)
	badVer[4] = version + 1
	if _, err := Decode(badVer); err == nil {
		t.Fatalf("expected error on bad version")
	}

	// zero kind
	zeroKind := append([]byte(nil), enc...)
	zeroKind[5] = 0
	if _, err := Decode(zeroKind); err == nil {
		t.Fatalf("expected error on zero kind")
	}

	// vlen is at offset 15..18 (4 magic +1 ver +1 kind +1 schema +8 gen)
	tooLong := append([]byte(nil), enc...)
	binary.BigEndian.PutUint32(tooLong[15:19], uint32(len("abc")+1))
	if _, err := Decode(tooLong); err == nil {
		t.Fatalf("expected error on vlen beyond buffer")
	}

	// truncated buffer
	if _, err := Decode(enc[:len(enc)-1]); err == nil {
		t.Fatalf("expected error on truncated buffer")
	}
	if _, err := Decode(enc[:5]); err == nil {
		t.Fatalf("expected error on short header")
	}
}

func TestDecodeAsChecksKindAndSchema(t *testing.T) {
	enc := Encode(Envelope{Kind: KindSubmenu, Schema: 2, Gen: 9, Payload: []byte("{}")})

	gen, p, err := DecodeAs(enc, KindSubmenu, 2)
	if err != nil || gen != 9 || string(p) != "{}" {
		t.Fatalf("DecodeAs: gen=%d payload=%q err=%v", gen, p, err)
	}
	if _, _, err := DecodeAs(enc, KindMenu, 2); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("wrong kind must be ErrCorrupt, got %v", err)
	}
	if _, _, err := DecodeAs(enc, KindSubmenu, 1); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("old schema must be ErrCorrupt, got %v", err)
	}
}

func TestZeroCopyPayload(t *testing.T) {
	enc := Encode(Envelope{Kind: KindDish, Schema: 1, Gen: 1, Payload: []byte("Z")})
	e := mustDecode(t, enc)
	if len(e.Payload) != 1 {
		t.Fatalf("unexpected payload len")
	}
	// mutate payload slice. should mutate underlying enc bytes (zero-copy)
	e.Payload[0] = 'Q'
	if mustDecode(t, enc).Payload[0] != 'Q' {
		t.Fatalf("expected zero-copy slice into enc buffer")
	}
}

func TestKindString(t *testing.T) {
	if KindFullList.String() != "full_list" || Kind(99).String() != "kind(99)" {
		t.Fatalf("unexpected kind names: %s %s", KindFullList, Kind(99))
	}
}
