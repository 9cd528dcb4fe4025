package connection

import (
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/PauloFerreira25/velostream/driver/codec"
	"github.com/PauloFerreira25/velostream/driver/common"
)

// result carries the outcome of one request
type result struct {
	resp *common.Response
	err  error
}

// --------------------------------------------------------------------------
// MessageStore
// --------------------------------------------------------------------------

// MessageStore correlates in-flight requests to their responses by message
// id. Every slot completes exactly once: with a response, with an error, or
// when the store is cleared at connection teardown. Mutations happen on the
// owning connection's executor; the completion channels are read from
// arbitrary caller goroutines.
type MessageStore struct {
	slots *xsync.MapOf[uint64, chan result]
}

// NewMessageStore creates an empty message store
func NewMessageStore() *MessageStore {
	return &MessageStore{
		slots: xsync.NewMapOf[uint64, chan result](),
	}
}

// Add allocates a pending slot for the given message id and returns its
// completion channel. The channel is buffered so that a resolution never
// blocks, even when the caller abandoned the await.
func (s *MessageStore) Add(id uint64) chan result {
	ch := make(chan result, 1)
	s.slots.Store(id, ch)
	return ch
}

// Resolve parses the response envelope from payload and completes the slot.
// An unknown id is a protocol violation by the server: it is logged and the
// payload discarded. A malformed envelope is returned as a ProtocolError
// and must fail the connection.
func (s *MessageStore) Resolve(id uint64, payload []byte) error {
	ch, found := s.slots.LoadAndDelete(id)
	if !found {
		Logger.Warningf("discarding response for unknown message id %d", id)
		return nil
	}

	resp, err := codec.DecodeResponse(payload)
	if err != nil {
		ch <- result{err: err}
		return err
	}

	ch <- result{resp: resp}
	return nil
}

// Clear completes every pending slot with the given error. Used on
// connection loss and close.
func (s *MessageStore) Clear(err error) {
	s.slots.Range(func(id uint64, ch chan result) bool {
		s.slots.Delete(id)
		ch <- result{err: err}
		return true
	})
}

// Len returns the number of in-flight requests
func (s *MessageStore) Len() int {
	return s.slots.Size()
}
