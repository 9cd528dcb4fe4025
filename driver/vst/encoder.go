package vst

// --------------------------------------------------------------------------
// Message encoding
// --------------------------------------------------------------------------

// EncodeMessage splits the message payload into chunks of at most chunkSize
// content bytes each and returns the resulting wire bytes. The payload
// buffer is consumed; callers must not touch it afterwards.
//
// An empty payload still produces a single (content-free) chunk so that the
// message id reaches the peer.
func EncodeMessage(messageID uint64, payload []byte, chunkSize int) []byte {
	if chunkSize <= 0 {
		panic("chunk size must be positive")
	}

	totalSize := len(payload)
	numberOfChunks := (totalSize + chunkSize - 1) / chunkSize
	if numberOfChunks == 0 {
		numberOfChunks = 1
	}

	out := make([]byte, 0, totalSize+numberOfChunks*HeaderSize)

	off := 0
	for i := 0; i < numberOfChunks; i++ {
		length := totalSize - off
		if length > chunkSize {
			length = chunkSize
		}

		c := chunk{
			messageID:     messageID,
			chunkX:        newChunkX(i, numberOfChunks),
			messageLength: uint64(totalSize),
			content:       payload[off : off+length],
		}

		out = c.writeHeader(out)
		out = append(out, c.content...)
		off += length
	}

	return out
}
