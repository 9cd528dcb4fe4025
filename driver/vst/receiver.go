package vst

import (
	"encoding/binary"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/PauloFerreira25/velostream/driver/common"
)

var Logger = logger.GetLogger("vst")

// --------------------------------------------------------------------------
// Message assembly
// --------------------------------------------------------------------------

// messageAssembly accumulates the chunks of one in-flight message. Chunks of
// a message arrive in ascending index order on a single TCP stream, so the
// content offset is tracked as a running counter.
type messageAssembly struct {
	expectedChunks int
	receivedChunks int
	buffer         []byte
	offset         int
}

// --------------------------------------------------------------------------
// Receiver
// --------------------------------------------------------------------------

// MessageHandler consumes a completely reassembled message payload.
type MessageHandler func(messageID uint64, payload []byte)

// Receiver turns the raw inbound byte stream into complete messages. All
// methods must be invoked from the connection's bound executor; the type
// performs no locking of its own beyond the assembly map.
type Receiver struct {
	onMessage  MessageHandler
	assemblies *xsync.MapOf[uint64, *messageAssembly]
	buf        []byte
}

// NewReceiver creates a Receiver delivering completed messages to onMessage
func NewReceiver(onMessage MessageHandler) *Receiver {
	return &Receiver{
		onMessage:  onMessage,
		assemblies: xsync.NewMapOf[uint64, *messageAssembly](),
	}
}

// HandleBytes consumes an arbitrary slice of stream bytes. Complete chunks
// are processed immediately; a trailing partial chunk is buffered until more
// bytes arrive. A non-nil error is a ProtocolError and the connection must
// be failed.
func (r *Receiver) HandleBytes(data []byte) error {
	r.buf = append(r.buf, data...)

	for len(r.buf) >= 4 {
		frameLength := int(binary.LittleEndian.Uint32(r.buf[0:4]))
		if frameLength < HeaderSize {
			return common.NewProtocolError("chunk length %d is smaller than the %d byte header", frameLength, HeaderSize)
		}
		if len(r.buf) < frameLength {
			// wait for the rest of the chunk
			break
		}

		c, _ := parseChunkHeader(r.buf[:HeaderSize])
		c.content = r.buf[HeaderSize:frameLength]

		if err := r.handleChunk(&c); err != nil {
			return err
		}

		r.buf = r.buf[frameLength:]
	}

	if len(r.buf) == 0 {
		r.buf = nil
	}
	return nil
}

// handleChunk routes one complete chunk into its assembly slot and emits the
// message when the last chunk arrived.
func (r *Receiver) handleChunk(c *chunk) error {
	assembly, found := r.assemblies.Load(c.messageID)

	if c.isFirst() {
		if found {
			return common.NewProtocolError("duplicate first chunk for message %d", c.messageID)
		}

		numberOfChunks := c.numberOfChunks()
		if numberOfChunks == 1 {
			// sole chunk, no assembly slot needed
			if uint64(len(c.content)) != c.messageLength {
				return common.NewProtocolError(
					"single chunk message %d carries %d content bytes but declares %d",
					c.messageID, len(c.content), c.messageLength)
			}
			r.emit(c.messageID, append([]byte(nil), c.content...))
			return nil
		}

		assembly = &messageAssembly{
			expectedChunks: numberOfChunks,
			buffer:         make([]byte, c.messageLength),
		}
		r.assemblies.Store(c.messageID, assembly)
	} else if !found {
		return common.NewProtocolError("chunk for unknown message %d", c.messageID)
	}

	if assembly.offset+len(c.content) > len(assembly.buffer) {
		return common.NewProtocolError(
			"message %d overflows its %d byte buffer", c.messageID, len(assembly.buffer))
	}

	copy(assembly.buffer[assembly.offset:], c.content)
	assembly.offset += len(c.content)
	assembly.receivedChunks++

	if assembly.receivedChunks == assembly.expectedChunks {
		if assembly.offset != len(assembly.buffer) {
			return common.NewProtocolError(
				"message %d completed with %d of %d declared bytes",
				c.messageID, assembly.offset, len(assembly.buffer))
		}
		r.assemblies.Delete(c.messageID)
		r.emit(c.messageID, assembly.buffer)
	}
	return nil
}

func (r *Receiver) emit(messageID uint64, payload []byte) {
	Logger.Debugf("message %d complete (%d bytes)", messageID, len(payload))
	r.onMessage(messageID, payload)
}

// Clear drops the byte accumulator and every partial assembly. Used on
// connection reset.
func (r *Receiver) Clear() {
	r.buf = nil
	r.assemblies.Clear()
}

// PendingMessages returns the number of partially assembled messages
func (r *Receiver) PendingMessages() int {
	return r.assemblies.Size()
}
