package main

import (
	"bytes"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestParseEncoding(t *testing.T) {
	cases := []struct {
		in      string
		want    Encoding
		wantErr bool
	}{
		{"msgpack", EncodingMsgpack, false},
		{"json", EncodingJSON, false},
		{"", 0, true},
		{"yaml", 0, true},
		{"Msgpack", 0, true},
	}
	for _, tc := range cases {
		got, err := parseEncoding(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseEncoding(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseEncoding(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseEncoding(%q): got %v, want %v", tc.in, got, tc.want)
		}
	}
}

// The drain frames messages from container headers alone, so the first
// record of a default run has one canonical byte sequence: every container
// and string stays inside the fix* range and the id is a positive fixint.
func TestMsgpackEncodeExactBytes(t *testing.T) {
	enc := newMsgpackEncoder()
	rec := newRecord(defaultSource, 0)
	got, err := enc.encode(&rec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	want := []byte{
		0x84,                                    // fixmap, 4 pairs
		0xa2, 'i', 'd', 0x2a,                    // "id" -> 42
		0xa6, 's', 'o', 'u', 'r', 'c', 'e',      // "source"
		0xa7, 's', 'e', 'r', 'v', 'i', 'c', 'e', // -> "service"
		0xa6, 'p', 'a', 'r', 'e', 'n', 't',      // "parent"
		0x81,                                    // -> fixmap, 1 pair
		0xa5, 'c', 'h', 'i', 'l', 'd',           //    "child"
		0xa4, 'i', 't', 'e', 'm',                //    -> "item"
		0xa7, 'm', 'e', 's', 's', 'a', 'g', 'e', // "message"
		0xae, 'l', 'e', ' ', 'm', 'e', 's', 's', 'a', 'g', 'e', ' ', '-', ' ', '0',
	}
	if !bytes.Equal(got, want) {
		t.Errorf("encoded bytes mismatch\n got % x\nwant % x", got, want)
	}
}

// Key order must match field declaration order on every record, not just
// the first one out of a fresh encoder.
func TestMsgpackKeyOrder(t *testing.T) {
	var stream bytes.Buffer
	enc := newMsgpackEncoder()
	for i := uint64(0); i < 3; i++ {
		rec := newRecord(defaultSource, i)
		data, err := enc.encode(&rec)
		if err != nil {
			t.Fatalf("encode %d: %v", i, err)
		}
		stream.Write(data)
	}

	wantKeys := []string{"id", "source", "parent", "message"}
	dec := msgpack.NewDecoder(&stream)
	for i := 0; i < 3; i++ {
		n, err := dec.DecodeMapLen()
		if err != nil {
			t.Fatalf("record %d: map len: %v", i, err)
		}
		if n != len(wantKeys) {
			t.Fatalf("record %d: got %d pairs, want %d", i, n, len(wantKeys))
		}
		for k := 0; k < n; k++ {
			key, err := dec.DecodeString()
			if err != nil {
				t.Fatalf("record %d: key %d: %v", i, k, err)
			}
			if key != wantKeys[k] {
				t.Errorf("record %d: key %d: got %q, want %q", i, k, key, wantKeys[k])
			}
			if _, err := dec.DecodeInterface(); err != nil {
				t.Fatalf("record %d: value for %q: %v", i, key, err)
			}
		}
	}
}

func TestJSONEncodeLine(t *testing.T) {
	enc := newJSONEncoder()
	rec := newRecord(defaultSource, 7)
	got, err := enc.encode(&rec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	want := `{"id":42,"source":"service","parent":{"child":"item"},"message":"le message - 7"}` + "\n"
	if string(got) != want {
		t.Errorf("encoded line mismatch\n got %q\nwant %q", got, want)
	}
}

// The encoder reuses its buffer between calls; each returned slice must be
// a complete standalone message with no residue from the previous one.
func TestEncoderBufferReuse(t *testing.T) {
	enc := newMsgpackEncoder()

	rec0 := newRecord(defaultSource, 0)
	first, err := enc.encode(&rec0)
	if err != nil {
		t.Fatalf("encode 0: %v", err)
	}
	firstCopy := append([]byte(nil), first...)

	rec1 := newRecord(defaultSource, 1)
	second, err := enc.encode(&rec1)
	if err != nil {
		t.Fatalf("encode 1: %v", err)
	}

	var out Record
	if err := msgpack.Unmarshal(firstCopy, &out); err != nil {
		t.Fatalf("unmarshal first: %v", err)
	}
	if out.Message != "le message - 0" {
		t.Errorf("first message: got %q, want %q", out.Message, "le message - 0")
	}
	if err := msgpack.Unmarshal(second, &out); err != nil {
		t.Fatalf("unmarshal second: %v", err)
	}
	if out.Message != "le message - 1" {
		t.Errorf("second message: got %q, want %q", out.Message, "le message - 1")
	}
}
