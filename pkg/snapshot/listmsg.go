// Package snapshot implements the binary snapshot-list message
// exchanged during cluster snapshot administration.
//
// The message enumerates the snapshots a broker node holds. Its layout
// is a bit-exact external contract: a fixed little-endian message
// header, a repeating-group count, then one block per snapshot with a
// fixed part (length, log position) followed by a length-prefixed
// UTF-8 name and a length-prefixed raw checksum. Descriptor order is
// preserved end to end; the codec assigns it no meaning.
package snapshot

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// Wire schema constants. These are part of the external contract and
// must never be re-derived per call.
const (
	templateID    uint16 = 11
	schemaID      uint16 = 5
	schemaVersion uint16 = 1

	// headerSize covers blockLength, templateID, schemaID and version,
	// each encoded as uint16.
	headerSize = 8

	// rootBlockLength is zero: the message carries no root-level
	// fields outside the repeating group.
	rootBlockLength uint16 = 0

	// groupHeaderSize covers the per-entry block length and the entry
	// count, each encoded as uint16.
	groupHeaderSize = 4

	// descriptorBlockLength is the fixed part of one descriptor:
	// length and logPosition, each int64.
	descriptorBlockLength uint16 = 16

	// varLengthPrefixSize is the uint16 byte-count prefix in front of
	// each variable-length field.
	varLengthPrefixSize = 2

	nameCharacterEncoding = "UTF-8"
)

var byteOrder = binary.LittleEndian

// Descriptor identifies one snapshot held by a node.
type Descriptor struct {
	// Name is the snapshot's identifier within its store.
	Name string

	// LogPosition is the replicated-log offset the snapshot was taken
	// at.
	LogPosition int64

	// Checksum is the integrity digest of the snapshot payload. The
	// codec treats it as opaque bytes.
	Checksum []byte

	// Length is the byte size of the snapshot payload on disk. It is
	// unrelated to the wire-encoded size of this descriptor.
	Length int64
}

// encodedLength is the wire size of this descriptor.
func (d *Descriptor) encodedLength() int {
	return int(descriptorBlockLength) +
		varLengthPrefixSize + len(d.Name) +
		varLengthPrefixSize + len(d.Checksum)
}

// List is an ordered snapshot enumeration. The zero value is an empty
// list ready for use.
type List struct {
	Snapshots []Descriptor
}

// Add appends a snapshot descriptor, preserving insertion order.
func (l *List) Add(name string, logPosition int64, checksum []byte, length int64) *List {
	l.Snapshots = append(l.Snapshots, Descriptor{
		Name:        name,
		LogPosition: logPosition,
		Checksum:    checksum,
		Length:      length,
	})
	return l
}

// Reset drops all held descriptors.
func (l *List) Reset() {
	l.Snapshots = l.Snapshots[:0]
}

// EncodedLength returns the exact number of bytes Encode will write.
// It performs no buffer access, so callers can pre-size storage.
func (l *List) EncodedLength() int {
	n := headerSize + groupHeaderSize
	for i := range l.Snapshots {
		n += l.Snapshots[i].encodedLength()
	}
	return n
}

// Encode writes the message into buf starting at offset and returns
// the number of bytes written. All validation happens before the first
// write: a failed Encode leaves buf untouched.
func (l *List) Encode(buf []byte, offset int) (int, error) {
	if len(l.Snapshots) > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %d snapshots", ErrGroupTooLarge, len(l.Snapshots))
	}
	for i := range l.Snapshots {
		d := &l.Snapshots[i]
		if !utf8.ValidString(d.Name) {
			return 0, &UnsupportedEncodingError{Name: d.Name}
		}
		if len(d.Name) > math.MaxUint16 {
			return 0, fmt.Errorf("%w: name is %d bytes", ErrValueTooLarge, len(d.Name))
		}
		if len(d.Checksum) > math.MaxUint16 {
			return 0, fmt.Errorf("%w: checksum is %d bytes", ErrValueTooLarge, len(d.Checksum))
		}
	}

	required := l.EncodedLength()
	if offset < 0 || offset+required > len(buf) {
		return 0, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrBufferOverflow, required, offset, len(buf))
	}

	w := writer{buf: buf, pos: offset}
	w.putUint16(rootBlockLength)
	w.putUint16(templateID)
	w.putUint16(schemaID)
	w.putUint16(schemaVersion)

	w.putUint16(descriptorBlockLength)
	w.putUint16(uint16(len(l.Snapshots)))

	for i := range l.Snapshots {
		d := &l.Snapshots[i]
		w.putInt64(d.Length)
		w.putInt64(d.LogPosition)
		w.putUint16(uint16(len(d.Name)))
		w.putBytes([]byte(d.Name))
		w.putUint16(uint16(len(d.Checksum)))
		w.putBytes(d.Checksum)
	}

	return w.pos - offset, nil
}

// Decode reads a message from buf[offset : offset+length] and replaces
// the held descriptor list with the decoded one. On error the list is
// left empty, never partially populated.
func (l *List) Decode(buf []byte, offset, length int) error {
	l.Reset()

	if offset < 0 || length < 0 || offset+length > len(buf) {
		return fmt.Errorf("%w: region [%d:%d] outside buffer of %d bytes",
			ErrBufferUnderflow, offset, offset+length, len(buf))
	}

	r := reader{buf: buf[offset : offset+length]}

	blockLength, err := r.uint16()
	if err != nil {
		return err
	}
	template, err := r.uint16()
	if err != nil {
		return err
	}
	schema, err := r.uint16()
	if err != nil {
		return err
	}
	version, err := r.uint16()
	if err != nil {
		return err
	}
	if template != templateID || schema != schemaID {
		return fmt.Errorf("%w: template %d schema %d", ErrSchemaMismatch, template, schema)
	}
	if version > schemaVersion {
		return fmt.Errorf("%w: version %d is newer than %d", ErrSchemaMismatch, version, schemaVersion)
	}
	// Skip root-level fields this codec version does not know about.
	if _, err := r.bytes(int(blockLength)); err != nil {
		return err
	}

	entryBlockLength, err := r.uint16()
	if err != nil {
		return err
	}
	count, err := r.uint16()
	if err != nil {
		return err
	}
	if entryBlockLength < descriptorBlockLength {
		return fmt.Errorf("%w: entry block length %d", ErrSchemaMismatch, entryBlockLength)
	}

	snapshots := make([]Descriptor, 0, count)
	for i := 0; i < int(count); i++ {
		block, err := r.bytes(int(entryBlockLength))
		if err != nil {
			l.Reset()
			return err
		}
		d := Descriptor{
			Length:      int64(byteOrder.Uint64(block[0:8])),
			LogPosition: int64(byteOrder.Uint64(block[8:16])),
		}

		nameLen, err := r.uint16()
		if err != nil {
			l.Reset()
			return err
		}
		name, err := r.bytes(int(nameLen))
		if err != nil {
			l.Reset()
			return err
		}
		d.Name = string(name)

		checksumLen, err := r.uint16()
		if err != nil {
			l.Reset()
			return err
		}
		checksum, err := r.bytes(int(checksumLen))
		if err != nil {
			l.Reset()
			return err
		}
		d.Checksum = append([]byte(nil), checksum...)

		snapshots = append(snapshots, d)
	}

	l.Snapshots = snapshots
	return nil
}

type writer struct {
	buf []byte
	pos int
}

func (w *writer) putUint16(v uint16) {
	byteOrder.PutUint16(w.buf[w.pos:], v)
	w.pos += 2
}

func (w *writer) putInt64(v int64) {
	byteOrder.PutUint64(w.buf[w.pos:], uint64(v))
	w.pos += 8
}

func (w *writer) putBytes(b []byte) {
	copy(w.buf[w.pos:], b)
	w.pos += len(b)
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) uint16() (uint16, error) {
	if r.pos+2 > len(r.buf) {
		return 0, fmt.Errorf("%w: need 2 bytes at %d, %d remain",
			ErrBufferUnderflow, r.pos, len(r.buf)-r.pos)
	}
	v := byteOrder.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("%w: need %d bytes at %d, %d remain",
			ErrBufferUnderflow, n, r.pos, len(r.buf)-r.pos)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}
