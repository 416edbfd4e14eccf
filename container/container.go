// Package container reads and writes .ps containers.
//
// A container is an ordered sequence of records with no header, padding,
// checksum or index:
//
//	tag     u8   'v', 'f', 'c' or 'm'
//	length  u32  little-endian payload length
//	payload [length]byte
//
// The GLSL path writes one record per present stage carrying SPIR-V
// bytecode. The Metal path writes a single 'm' record carrying MSL source.
package container

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Extension is the file extension of a container.
const Extension = ".ps"

// Tag identifies the payload of a record.
type Tag byte

// Record tags.
const (
	TagVertex   Tag = 'v'
	TagFragment Tag = 'f'
	TagCompute  Tag = 'c'
	TagMetal    Tag = 'm'
)

// String returns the tag character.
func (t Tag) String() string {
	if t.Valid() {
		return string(rune(t))
	}
	return fmt.Sprintf("Tag(0x%02x)", byte(t))
}

// Valid reports whether t is one of the known tags.
func (t Tag) Valid() bool {
	switch t {
	case TagVertex, TagFragment, TagCompute, TagMetal:
		return true
	}
	return false
}

// Bytecode reports whether the payload of t is SPIR-V.
func (t Tag) Bytecode() bool {
	return t == TagVertex || t == TagFragment || t == TagCompute
}

// Record is one tagged payload.
type Record struct {
	Tag     Tag
	Payload []byte
}

const recordHeaderSize = 5

var (
	// ErrUnknownTag is returned for a record whose tag is not v, f, c or m.
	ErrUnknownTag = errors.New("container: unknown record tag")

	// ErrTruncated is returned when the input ends inside a record.
	ErrTruncated = errors.New("container: truncated record")

	// ErrPayloadTooLarge is returned for payloads whose length does not fit u32.
	ErrPayloadTooLarge = errors.New("container: payload exceeds 4 GiB")
)

// Size returns the encoded size of records in bytes.
func Size(records []Record) int64 {
	var n int64
	for _, r := range records {
		n += recordHeaderSize + int64(len(r.Payload))
	}
	return n
}

// Validate checks that every record can be encoded.
func Validate(records []Record) error {
	for i, r := range records {
		if !r.Tag.Valid() {
			return fmt.Errorf("record %d: %w %s", i, ErrUnknownTag, r.Tag)
		}
		if uint64(len(r.Payload)) > math.MaxUint32 {
			return fmt.Errorf("record %d (%s): %w", i, r.Tag, ErrPayloadTooLarge)
		}
	}
	return nil
}

// Write encodes records to w in order. Nothing is written when a record is
// invalid.
func Write(w io.Writer, records []Record) error {
	if err := Validate(records); err != nil {
		return err
	}
	for _, r := range records {
		var header [recordHeaderSize]byte
		header[0] = byte(r.Tag)
		binary.LittleEndian.PutUint32(header[1:], uint32(len(r.Payload))) //nolint:gosec // G115: checked above
		if _, err := w.Write(header[:]); err != nil {
			return err
		}
		if _, err := w.Write(r.Payload); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile creates or truncates path and writes records to it. Previous
// content of the file is discarded once the records are known to be valid;
// an invalid record leaves the file untouched.
func WriteFile(path string, records []Record) (err error) {
	if err := Validate(records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644) //nolint:gosec // G302: containers are build outputs
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err := Write(bw, records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return bw.Flush()
}

// Read decodes records from r until EOF.
func Read(r io.Reader) ([]Record, error) {
	br := bufio.NewReader(r)
	var records []Record
	for {
		var header [recordHeaderSize]byte
		n, err := io.ReadFull(br, header[:])
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return records, fmt.Errorf("record %d: %w: header has %d of %d bytes", len(records), ErrTruncated, n, recordHeaderSize)
			}
			return records, err
		}

		tag := Tag(header[0])
		if !tag.Valid() {
			return records, fmt.Errorf("record %d: %w %s", len(records), ErrUnknownTag, tag)
		}
		size := binary.LittleEndian.Uint32(header[1:])

		payload, err := readPayload(br, size)
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || err == io.EOF {
				return records, fmt.Errorf("record %d (%s): %w: want %d payload bytes", len(records), tag, ErrTruncated, size)
			}
			return records, err
		}
		records = append(records, Record{Tag: tag, Payload: payload})
	}
}

// readPayload reads size bytes without trusting size for the allocation.
func readPayload(r io.Reader, size uint32) ([]byte, error) {
	const chunk = 1 << 20
	if size <= chunk {
		buf := make([]byte, size)
		_, err := io.ReadFull(r, buf)
		return buf, err
	}
	var buf bytes.Buffer
	buf.Grow(chunk)
	if _, err := io.CopyN(&buf, r, int64(size)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadFile reads the container at path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is caller-controlled
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := Read(f)
	if err != nil {
		return records, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Find returns the first record tagged t.
func Find(records []Record, t Tag) (Record, bool) {
	for _, r := range records {
		if r.Tag == t {
			return r, true
		}
	}
	return Record{}, false
}
