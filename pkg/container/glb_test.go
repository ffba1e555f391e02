package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestParse_HeaderValidation(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{
			name:    "empty data",
			data:    []byte{},
			wantErr: ErrTruncated,
		},
		{
			name:    "below minimum size",
			data:    []byte{'g', 'l', 'T', 'F', 2, 0, 0, 0},
			wantErr: ErrTruncated,
		},
		{
			name:    "wrong magic",
			data:    makeContainer("XXXX", 2, `{"asset":{"version":"2.0"}}`, nil),
			wantErr: ErrBadMagic,
		},
		{
			name:    "unsupported version",
			data:    makeContainer("glTF", 1, `{"asset":{"version":"2.0"}}`, nil),
			wantErr: ErrUnsupportedVersion,
		},
		{
			name:    "valid minimal container",
			data:    makeContainer("glTF", 2, `{"asset":{"version":"2.0"}}`, nil),
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Parse failed: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParse_TotalLengthBounds(t *testing.T) {
	data := makeContainer("glTF", 2, `{"asset":{"version":"2.0"}}`, nil)

	// Declare a total length longer than the buffer.
	binary.LittleEndian.PutUint32(data[8:12], uint32(len(data)+100))

	_, err := Parse(data)
	if !errors.Is(err, ErrBadTotalLength) {
		t.Errorf("got error %v, want %v", err, ErrBadTotalLength)
	}
}

func TestParse_ChunkBounds(t *testing.T) {
	data := makeContainer("glTF", 2, `{"asset":{"version":"2.0"}}`, nil)

	// Declare a structural chunk longer than the container.
	binary.LittleEndian.PutUint32(data[12:16], uint32(len(data)))

	_, err := Parse(data)
	if !errors.Is(err, ErrChunkBounds) {
		t.Errorf("got error %v, want %v", err, ErrChunkBounds)
	}
}

func TestParse_MalformedStructuralChunk(t *testing.T) {
	data := makeContainer("glTF", 2, `{"asset":`, nil)

	_, err := Parse(data)
	if !errors.Is(err, ErrMalformedJSON) {
		t.Errorf("got error %v, want %v", err, ErrMalformedJSON)
	}
}

func TestParse_BinaryPayload(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	data := makeContainer("glTF", 2, `{"asset":{"version":"2.0"}}`, payload)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !bytes.Equal(doc.BinaryPayload, payload) {
		t.Errorf("BinaryPayload = %v, want %v", doc.BinaryPayload, payload)
	}
}

func TestParse_IsParseError(t *testing.T) {
	for _, err := range []error{
		ErrTruncated, ErrBadMagic, ErrUnsupportedVersion,
		ErrBadTotalLength, ErrChunkBounds, ErrNoStructuralChunk, ErrMalformedJSON,
	} {
		if !IsParseError(err) {
			t.Errorf("IsParseError(%v) = false, want true", err)
		}
	}
	if IsParseError(ErrLengthMismatch) {
		t.Error("IsParseError(ErrLengthMismatch) = true, want false")
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	structural := `{"asset":{"version":"2.0"},"meshes":[{"name":"body","primitives":[{"attributes":{"POSITION":0}}]}],"accessors":[{"componentType":5126,"count":24,"type":"VEC3","min":[-1,-1,-1],"max":[1,1,1]}]}`
	payload := []byte{10, 20, 30, 40}
	data := makeContainer("glTF", 2, structural, payload)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	out, err := Serialize(doc)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	// The header total length must match the actual buffer exactly.
	if got := binary.LittleEndian.Uint32(out[8:12]); int(got) != len(out) {
		t.Errorf("header total length = %d, buffer length = %d", got, len(out))
	}

	// Re-parsing the serialized output must succeed and preserve structure.
	doc2, err := Parse(out)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if len(doc2.Meshes) != 1 || doc2.Meshes[0].Name != "body" {
		t.Errorf("mesh list changed across round trip: %+v", doc2.Meshes)
	}
	if len(doc2.Accessors) != 1 || doc2.Accessors[0].Count != 24 {
		t.Errorf("accessors changed across round trip: %+v", doc2.Accessors)
	}
	if !bytes.Equal(doc2.BinaryPayload, payload) {
		t.Error("binary payload changed across round trip")
	}
}

func TestSerialize_PreservesUnmodeledFields(t *testing.T) {
	// Material properties, cameras and node extras are not interpreted by
	// the engine; a rewrite must still carry them through unchanged.
	structural := `{"asset":{"version":"2.0"},` +
		`"materials":[{"name":"skin","doubleSided":true,"alphaCutoff":0.25,` +
		`"emissiveFactor":[1,0.5,0],"extensions":{"KHR_materials_unlit":{}}}],` +
		`"cameras":[{"type":"perspective","perspective":{"yfov":0.7,"znear":0.01}}],` +
		`"nodes":[{"name":"cam","camera":0,"extras":{"artist":"a"},` +
		`"extensions":{"EXT_node_tag":{"tag":1}}}]}`
	data := makeContainer("glTF", 2, structural, nil)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	out, err := Serialize(doc)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	for _, key := range []string{
		`"doubleSided":true`,
		`"alphaCutoff":0.25`,
		`"emissiveFactor":[1,0.5,0]`,
		`"KHR_materials_unlit"`,
		`"cameras"`,
		`"camera":0`,
		`"artist":"a"`,
		`"EXT_node_tag"`,
	} {
		if !bytes.Contains(out, []byte(key)) {
			t.Errorf("serialized output lost %s", key)
		}
	}
}

func TestSerialize_Alignment(t *testing.T) {
	// Odd-length structural chunk and payload both force padding.
	doc := &Document{
		Asset:         Asset{Version: "2.0"},
		BinaryPayload: []byte{1, 2, 3},
	}

	out, err := Serialize(doc)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if len(out)%4 != 0 {
		t.Errorf("output length %d is not 4-byte aligned", len(out))
	}

	jsonLen := binary.LittleEndian.Uint32(out[12:16])
	if jsonLen%4 != 0 {
		t.Errorf("structural chunk length %d is not 4-byte aligned", jsonLen)
	}
}

func TestDocument_HasSkeleton(t *testing.T) {
	skin := 0
	tests := []struct {
		name string
		doc  Document
		want bool
	}{
		{"empty", Document{}, false},
		{"with skin", Document{Skins: []Skin{{Joints: []int{0}}}}, true},
		{"node references skin", Document{Nodes: []Node{{Skin: &skin}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.HasSkeleton(); got != tt.want {
				t.Errorf("HasSkeleton() = %v, want %v", got, tt.want)
			}
		})
	}
}

// makeContainer builds a container with the given magic, version,
// structural chunk and optional binary payload.
func makeContainer(magic string, version uint32, structural string, payload []byte) []byte {
	jsonBytes := []byte(structural)
	jsonPad := (4 - len(jsonBytes)%4) % 4
	for i := 0; i < jsonPad; i++ {
		jsonBytes = append(jsonBytes, ' ')
	}

	total := 12 + 8 + len(jsonBytes)
	binPad := 0
	if len(payload) > 0 {
		binPad = (4 - len(payload)%4) % 4
		total += 8 + len(payload) + binPad
	}

	data := make([]byte, 0, total)
	data = append(data, magic...)
	data = binary.LittleEndian.AppendUint32(data, version)
	data = binary.LittleEndian.AppendUint32(data, uint32(total))

	data = binary.LittleEndian.AppendUint32(data, uint32(len(jsonBytes)))
	data = binary.LittleEndian.AppendUint32(data, 0x4E4F534A)
	data = append(data, jsonBytes...)

	if len(payload) > 0 {
		data = binary.LittleEndian.AppendUint32(data, uint32(len(payload)+binPad))
		data = binary.LittleEndian.AppendUint32(data, 0x004E4942)
		data = append(data, payload...)
		for i := 0; i < binPad; i++ {
			data = append(data, 0)
		}
	}
	return data
}
