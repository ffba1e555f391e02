package container

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
)

// Container format errors. Parse failures are recoverable: callers fall
// back to append-only embedding instead of failing the whole operation.
var (
	ErrTruncated          = errors.New("container data shorter than header")
	ErrBadMagic           = errors.New("invalid container magic: expected 'glTF'")
	ErrUnsupportedVersion = errors.New("unsupported container version")
	ErrBadTotalLength     = errors.New("declared total length exceeds buffer")
	ErrChunkBounds        = errors.New("chunk length exceeds container bounds")
	ErrNoStructuralChunk  = errors.New("missing structural chunk")
	ErrMalformedJSON      = errors.New("malformed structural chunk")
	ErrLengthMismatch     = errors.New("serialized length does not match header")
)

// Binary layout constants. All integers are little-endian and chunks are
// aligned to 4 bytes.
const (
	Magic         = 0x46546C67 // "glTF"
	Version       = 2
	chunkHeadSize = 8
	chunkJSON     = 0x4E4F534A // "JSON"
	chunkBIN      = 0x004E4942 // "BIN\0"

	// HeaderSize is the fixed container header: magic, version, total
	// length. Buffers shorter than this cannot be containers at all;
	// anything longer is at worst a recoverable parse failure.
	HeaderSize = 12

	// MinSize is the smallest buffer that can hold a header plus one
	// chunk header, the minimum Parse can make sense of.
	MinSize = HeaderSize + chunkHeadSize
)

// IsParseError reports whether err is a recoverable parse failure, as
// opposed to a serialization invariant violation.
func IsParseError(err error) bool {
	return errors.Is(err, ErrTruncated) ||
		errors.Is(err, ErrBadMagic) ||
		errors.Is(err, ErrUnsupportedVersion) ||
		errors.Is(err, ErrBadTotalLength) ||
		errors.Is(err, ErrChunkBounds) ||
		errors.Is(err, ErrNoStructuralChunk) ||
		errors.Is(err, ErrMalformedJSON)
}

// Parse validates the header and chunk table of a binary container and
// decodes its structural chunk. Chunk lengths are cross-checked against
// the buffer before any allocation happens.
func Parse(data []byte) (*Document, error) {
	if len(data) < MinSize {
		return nil, ErrTruncated
	}
	if binary.LittleEndian.Uint32(data[0:4]) != Magic {
		return nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	totalLength := int(binary.LittleEndian.Uint32(data[8:12]))
	if totalLength < MinSize || totalLength > len(data) {
		return nil, ErrBadTotalLength
	}

	var jsonChunk, binChunk []byte
	offset := HeaderSize
	for offset+chunkHeadSize <= totalLength {
		chunkLength := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
		chunkType := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		start := offset + chunkHeadSize
		end := start + chunkLength
		if chunkLength < 0 || end > totalLength {
			return nil, ErrChunkBounds
		}
		switch chunkType {
		case chunkJSON:
			if jsonChunk == nil {
				jsonChunk = data[start:end]
			}
		case chunkBIN:
			if binChunk == nil {
				binChunk = data[start:end]
			}
		}
		offset = end + pad4(end)
	}

	if jsonChunk == nil {
		return nil, ErrNoStructuralChunk
	}

	doc := &Document{}
	if err := json.Unmarshal(jsonChunk, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if binChunk != nil {
		doc.BinaryPayload = append([]byte(nil), binChunk...)
	}
	return doc, nil
}

// Serialize re-emits a document as a valid container. The structural chunk
// is padded with spaces and the binary chunk with zeros, both to 4-byte
// boundaries, and the header total length is rewritten to the exact final
// size. A length mismatch aborts rather than emitting a corrupt container.
func Serialize(doc *Document) ([]byte, error) {
	structural, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding structural chunk: %w", err)
	}
	jsonPad := pad4(len(structural))
	binPad := pad4(len(doc.BinaryPayload))

	total := HeaderSize + chunkHeadSize + len(structural) + jsonPad
	if len(doc.BinaryPayload) > 0 {
		total += chunkHeadSize + len(doc.BinaryPayload) + binPad
	}

	buf := bytes.NewBuffer(make([]byte, 0, total))
	writeUint32(buf, Magic)
	writeUint32(buf, Version)
	writeUint32(buf, uint32(total))

	writeUint32(buf, uint32(len(structural)+jsonPad))
	writeUint32(buf, chunkJSON)
	buf.Write(structural)
	for i := 0; i < jsonPad; i++ {
		buf.WriteByte(' ')
	}

	if len(doc.BinaryPayload) > 0 {
		writeUint32(buf, uint32(len(doc.BinaryPayload)+binPad))
		writeUint32(buf, chunkBIN)
		buf.Write(doc.BinaryPayload)
		for i := 0; i < binPad; i++ {
			buf.WriteByte(0)
		}
	}

	out := buf.Bytes()
	if len(out) != total {
		return nil, fmt.Errorf("%w: header says %d, buffer is %d", ErrLengthMismatch, total, len(out))
	}
	return out, nil
}

// pad4 returns the number of bytes needed to round n up to a multiple of 4.
func pad4(n int) int {
	if r := n % 4; r != 0 {
		return 4 - r
	}
	return 0
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
