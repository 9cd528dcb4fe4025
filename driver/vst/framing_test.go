package vst

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/PauloFerreira25/velostream/driver/common"
)

// collector records completed messages in arrival order
type collector struct {
	ids      []uint64
	payloads map[uint64][]byte
}

func newCollector() *collector {
	return &collector{payloads: map[uint64][]byte{}}
}

func (c *collector) handle(id uint64, payload []byte) {
	c.ids = append(c.ids, id)
	c.payloads[id] = payload
}

// TestRoundTrip encodes messages of various sizes and chunk sizes and
// decodes the resulting stream back
func TestRoundTrip(t *testing.T) {
	chunkSizes := []int{25, 30, 100, 4096, 65536}
	payloadSizes := []int{0, 1, 29, 30, 31, 100, 1000, 65537}

	for _, chunkSize := range chunkSizes {
		for _, payloadSize := range payloadSizes {
			payload := make([]byte, payloadSize)
			rand.Read(payload)
			original := append([]byte(nil), payload...)

			id := rand.Uint64() >> 1
			if id == 0 {
				id = 1
			}

			encoded := EncodeMessage(id, payload, chunkSize)

			c := newCollector()
			r := NewReceiver(c.handle)
			if err := r.HandleBytes(encoded); err != nil {
				t.Fatalf("decode failed (chunk=%d payload=%d): %v", chunkSize, payloadSize, err)
			}

			if len(c.ids) != 1 {
				t.Fatalf("expected 1 message, got %d (chunk=%d payload=%d)", len(c.ids), chunkSize, payloadSize)
			}
			if c.ids[0] != id {
				t.Errorf("expected message id %d, got %d", id, c.ids[0])
			}
			if !bytes.Equal(c.payloads[id], original) {
				t.Errorf("payload mismatch after round trip (chunk=%d payload=%d)", chunkSize, payloadSize)
			}
			if r.PendingMessages() != 0 {
				t.Errorf("expected no pending messages, got %d", r.PendingMessages())
			}
		}
	}
}

// TestRoundTripBytewise feeds the stream one byte at a time to exercise the
// partial chunk buffering
func TestRoundTripBytewise(t *testing.T) {
	payload := make([]byte, 100)
	rand.Read(payload)
	original := append([]byte(nil), payload...)

	encoded := EncodeMessage(7, payload, 30)

	c := newCollector()
	r := NewReceiver(c.handle)
	for i := range encoded {
		if err := r.HandleBytes(encoded[i : i+1]); err != nil {
			t.Fatalf("decode failed at byte %d: %v", i, err)
		}
	}

	if len(c.ids) != 1 || !bytes.Equal(c.payloads[7], original) {
		t.Fatalf("message not reassembled from bytewise stream")
	}
}

// TestChunkBoundary checks the exact wire layout of a 100 byte payload cut
// into 30 byte chunks: 4 chunks with chunkX values 9, 2, 4, 6 and the full
// message length on each
func TestChunkBoundary(t *testing.T) {
	payload := make([]byte, 100)
	rand.Read(payload)

	encoded := EncodeMessage(1, payload, 30)

	wantContent := []int{30, 30, 30, 10}
	wantChunkX := []uint32{9, 2, 4, 6}

	off := 0
	for i := 0; i < 4; i++ {
		if len(encoded) < off+HeaderSize {
			t.Fatalf("stream truncated before chunk %d", i)
		}
		header := encoded[off : off+HeaderSize]

		length := binary.LittleEndian.Uint32(header[0:4])
		chunkX := binary.LittleEndian.Uint32(header[4:8])
		messageID := binary.LittleEndian.Uint64(header[8:16])
		messageLength := binary.LittleEndian.Uint64(header[16:24])

		if int(length) != HeaderSize+wantContent[i] {
			t.Errorf("chunk %d: expected length %d, got %d", i, HeaderSize+wantContent[i], length)
		}
		if chunkX != wantChunkX[i] {
			t.Errorf("chunk %d: expected chunkX %d, got %d", i, wantChunkX[i], chunkX)
		}
		if messageID != 1 {
			t.Errorf("chunk %d: expected message id 1, got %d", i, messageID)
		}
		if messageLength != 100 {
			t.Errorf("chunk %d: expected message length 100, got %d", i, messageLength)
		}

		off += int(length)
	}
	if off != len(encoded) {
		t.Errorf("expected %d bytes on the wire, got %d", off, len(encoded))
	}
}

// TestInterleave interleaves the chunks of two messages and expects both to
// decode, ordered by their last chunk
func TestInterleave(t *testing.T) {
	p1 := make([]byte, 90)
	p2 := make([]byte, 65)
	rand.Read(p1)
	rand.Read(p2)
	o1 := append([]byte(nil), p1...)
	o2 := append([]byte(nil), p2...)

	e1 := splitChunks(t, EncodeMessage(1, p1, 30)) // 3 chunks
	e2 := splitChunks(t, EncodeMessage(2, p2, 30)) // 3 chunks

	// interleave preserving each message's chunk order, message 2 finishes
	// first
	var stream []byte
	order := [][]byte{e1[0], e2[0], e2[1], e1[1], e2[2], e1[2]}
	for _, chunk := range order {
		stream = append(stream, chunk...)
	}

	c := newCollector()
	r := NewReceiver(c.handle)
	if err := r.HandleBytes(stream); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if len(c.ids) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(c.ids))
	}
	if c.ids[0] != 2 || c.ids[1] != 1 {
		t.Errorf("expected completion order [2 1], got %v", c.ids)
	}
	if !bytes.Equal(c.payloads[1], o1) || !bytes.Equal(c.payloads[2], o2) {
		t.Errorf("payload mismatch after interleaved decode")
	}
}

// TestUnknownMessage expects a protocol error for a non-first chunk of an
// unknown message
func TestUnknownMessage(t *testing.T) {
	chunks := splitChunks(t, EncodeMessage(9, make([]byte, 90), 30))

	r := NewReceiver(func(uint64, []byte) {
		t.Fatal("no message must complete")
	})
	err := r.HandleBytes(chunks[1])
	if err == nil {
		t.Fatal("expected a protocol error")
	}
	if !common.IsProtocol(err) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}

// TestTruncatedLength expects a protocol error for a chunk shorter than its
// own header
func TestTruncatedLength(t *testing.T) {
	bad := make([]byte, 4)
	binary.LittleEndian.PutUint32(bad, 10) // below HeaderSize

	r := NewReceiver(func(uint64, []byte) {})
	if err := r.HandleBytes(bad); !common.IsProtocol(err) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}

// TestClear drops buffered bytes and partial assemblies
func TestClear(t *testing.T) {
	chunks := splitChunks(t, EncodeMessage(4, make([]byte, 90), 30))

	c := newCollector()
	r := NewReceiver(c.handle)
	if err := r.HandleBytes(chunks[0]); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if r.PendingMessages() != 1 {
		t.Fatalf("expected 1 pending message, got %d", r.PendingMessages())
	}

	r.Clear()

	if r.PendingMessages() != 0 {
		t.Errorf("expected no pending messages after clear")
	}
	if len(c.ids) != 0 {
		t.Errorf("no message must have completed")
	}
}

// splitChunks cuts an encoded stream back into its individual chunks
func splitChunks(t *testing.T, stream []byte) [][]byte {
	t.Helper()

	var chunks [][]byte
	for off := 0; off < len(stream); {
		length := int(binary.LittleEndian.Uint32(stream[off : off+4]))
		if off+length > len(stream) {
			t.Fatalf("truncated chunk at offset %d", off)
		}
		chunks = append(chunks, stream[off:off+length])
		off += length
	}
	return chunks
}
