package vst

import (
	"encoding/binary"
)

const (
	// HeaderSize is the fixed size of a chunk header in bytes
	HeaderSize = 24

	// chunkX layout
	firstChunkFlag = 0x01
)

// ProtocolHeader is the handshake written once after the TCP connect. The
// server sends no reply and starts accepting chunks immediately.
var ProtocolHeader = []byte("VST/1.1\r\n\r\n")

// --------------------------------------------------------------------------
// Chunk
// --------------------------------------------------------------------------

// chunk is the transient framing record of one on-wire frame. It is
// constructed during encode or decode and discarded once the enclosing
// message completes.
type chunk struct {
	messageID     uint64
	chunkX        uint32
	messageLength uint64
	content       []byte
}

// newChunkX computes the chunkX field for the chunk at the given index of a
// message with numberOfChunks chunks in total.
func newChunkX(index, numberOfChunks int) uint32 {
	if index == 0 {
		// the first chunk encodes the total count instead of its index
		return uint32(numberOfChunks)<<1 | firstChunkFlag
	}
	return uint32(index) << 1
}

// isFirst reports whether the chunk opens a message
func (c *chunk) isFirst() bool {
	return c.chunkX&firstChunkFlag == firstChunkFlag
}

// numberOfChunks returns the total chunk count carried by a first chunk
func (c *chunk) numberOfChunks() int {
	return int(c.chunkX >> 1)
}

// index returns the 0-based chunk index carried by a non-first chunk
func (c *chunk) index() int {
	return int(c.chunkX >> 1)
}

// writeHeader appends the 24 byte chunk header to dst and returns the
// extended slice
func (c *chunk) writeHeader(dst []byte) []byte {
	var header [HeaderSize]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(HeaderSize+len(c.content)))
	binary.LittleEndian.PutUint32(header[4:8], c.chunkX)
	binary.LittleEndian.PutUint64(header[8:16], c.messageID)
	binary.LittleEndian.PutUint64(header[16:24], c.messageLength)
	return append(dst, header[:]...)
}

// parseChunkHeader reads a chunk header from buf, which must hold at least
// HeaderSize bytes. It returns the chunk with a nil content slice plus the
// total frame length.
func parseChunkHeader(buf []byte) (c chunk, frameLength int) {
	frameLength = int(binary.LittleEndian.Uint32(buf[0:4]))
	c.chunkX = binary.LittleEndian.Uint32(buf[4:8])
	c.messageID = binary.LittleEndian.Uint64(buf[8:16])
	c.messageLength = binary.LittleEndian.Uint64(buf[16:24])
	return c, frameLength
}
