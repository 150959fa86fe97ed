package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// codec turns a raw byte stream into a sequence of records. Both supported
// formats are self-delimiting, so consecutive messages need no framing
// beyond their own container headers.
type codec interface {
	name() string
	newDecoder(r io.Reader) recordDecoder
}

// recordDecoder yields one record per call and io.EOF at a clean end of
// stream. Any other error means the stream is corrupt beyond recovery.
type recordDecoder interface {
	decode() (record, error)
}

func parseCodec(s string) (codec, error) {
	switch s {
	case "msgpack":
		return msgpackCodec{}, nil
	case "json":
		return jsonCodec{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q, expected msgpack or json", s)
}

type msgpackCodec struct{}

func (msgpackCodec) name() string { return "msgpack" }

func (msgpackCodec) newDecoder(r io.Reader) recordDecoder {
	return &msgpackDecoder{dec: msgpack.NewDecoder(bufio.NewReader(r))}
}

type msgpackDecoder struct {
	dec *msgpack.Decoder
}

func (d *msgpackDecoder) decode() (record, error) {
	var rec map[string]any
	if err := d.dec.Decode(&rec); err != nil {
		return nil, err
	}
	return record(rec), nil
}

type jsonCodec struct{}

func (jsonCodec) name() string { return "json" }

func (jsonCodec) newDecoder(r io.Reader) recordDecoder {
	dec := json.NewDecoder(r)
	// Numbers stay json.Number so template rendering does not reformat
	// integers through float64.
	dec.UseNumber()
	return &jsonDecoder{dec: dec}
}

type jsonDecoder struct {
	dec *json.Decoder
}

func (d *jsonDecoder) decode() (record, error) {
	var rec map[string]any
	if err := d.dec.Decode(&rec); err != nil {
		return nil, err
	}
	return record(rec), nil
}
