package codec

import (
	"fmt"

	velocypack "github.com/arangodb/go-velocypack"
	"github.com/lni/dragonboat/v4/logger"

	"github.com/PauloFerreira25/velostream/driver/common"
)

var Logger = logger.GetLogger("codec")

// --------------------------------------------------------------------------
// Request head encoding
// --------------------------------------------------------------------------

// EncodeRequestHead serializes the request envelope as the 7-element
// VelocyPack array preceding the body on the wire.
func EncodeRequestHead(req *common.Request) ([]byte, error) {
	var b velocypack.Builder

	if err := b.OpenArray(); err != nil {
		return nil, err
	}
	if err := b.AddValue(velocypack.NewIntValue(common.ProtocolVersion)); err != nil {
		return nil, err
	}
	if err := b.AddValue(velocypack.NewIntValue(common.MessageTypeRequest)); err != nil {
		return nil, err
	}
	if err := b.AddValue(velocypack.NewStringValue(req.Database)); err != nil {
		return nil, err
	}
	if err := b.AddValue(velocypack.NewIntValue(int64(req.RequestType))); err != nil {
		return nil, err
	}
	if err := b.AddValue(velocypack.NewStringValue(req.Path)); err != nil {
		return nil, err
	}
	if err := addStringObject(&b, req.QueryParam); err != nil {
		return nil, err
	}
	if err := addStringObject(&b, req.HeaderParam); err != nil {
		return nil, err
	}
	if err := b.Close(); err != nil {
		return nil, err
	}

	return b.Bytes()
}

// EncodeRequestPayload builds the full message payload: the encoded head
// followed by the opaque body bytes. The request body buffer is consumed.
func EncodeRequestPayload(req *common.Request) ([]byte, error) {
	head, err := EncodeRequestHead(req)
	if err != nil {
		return nil, err
	}
	if len(req.Body) == 0 {
		return head, nil
	}

	payload := make([]byte, 0, len(head)+len(req.Body))
	payload = append(payload, head...)
	payload = append(payload, req.Body...)
	return payload, nil
}

func addStringObject(b *velocypack.Builder, m map[string]string) error {
	if err := b.OpenObject(); err != nil {
		return err
	}
	for k, v := range m {
		if err := b.AddKeyValue(k, velocypack.NewStringValue(v)); err != nil {
			return err
		}
	}
	return b.Close()
}

// --------------------------------------------------------------------------
// Response envelope decoding
// --------------------------------------------------------------------------

// DecodeResponse parses a complete response message payload: the VelocyPack
// head array followed by the opaque body. The returned response owns its
// body buffer.
func DecodeResponse(payload []byte) (resp *common.Response, err error) {
	// the velocypack slice accessors panic on truncated input
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, common.NewProtocolError("malformed response head: %v", r)
		}
	}()

	head := velocypack.Slice(payload)
	headSize, err := head.ByteSize()
	if err != nil {
		return nil, common.NewProtocolError("malformed response head: %v", err)
	}
	if int(headSize) > len(payload) {
		return nil, common.NewProtocolError("response head size %d exceeds payload size %d", headSize, len(payload))
	}

	length, err := head.Length()
	if err != nil || length < 3 {
		return nil, common.NewProtocolError("response head is not an array of at least 3 elements")
	}

	version, err := intAt(head, 0)
	if err != nil {
		return nil, err
	}
	msgType, err := intAt(head, 1)
	if err != nil {
		return nil, err
	}
	if msgType != common.MessageTypeResponse {
		return nil, common.NewProtocolError("unexpected message type %d in response head", msgType)
	}
	code, err := intAt(head, 2)
	if err != nil {
		return nil, err
	}

	meta := map[string]string{}
	if length > 3 {
		metaSlice, err := head.At(3)
		if err != nil {
			return nil, common.NewProtocolError("malformed response meta: %v", err)
		}
		if meta, err = decodeStringObject(metaSlice); err != nil {
			return nil, err
		}
	}

	return &common.Response{
		Version:      int(version),
		Type:         int(msgType),
		ResponseCode: int(code),
		Meta:         meta,
		Body:         payload[headSize:],
	}, nil
}

func intAt(s velocypack.Slice, index velocypack.ValueLength) (int64, error) {
	elem, err := s.At(index)
	if err != nil {
		return 0, common.NewProtocolError("missing response head element %d: %v", index, err)
	}
	v, err := elem.GetInt()
	if err != nil {
		return 0, common.NewProtocolError("response head element %d is not an integer: %v", index, err)
	}
	return v, nil
}

func decodeStringObject(s velocypack.Slice) (map[string]string, error) {
	if !s.IsObject() {
		return nil, common.NewProtocolError("response meta is not an object")
	}

	out := map[string]string{}
	it, err := velocypack.NewObjectIterator(s)
	if err != nil {
		return nil, common.NewProtocolError("malformed response meta: %v", err)
	}
	for it.IsValid() {
		keySlice, err := it.Key(true)
		if err != nil {
			return nil, common.NewProtocolError("malformed response meta key: %v", err)
		}
		key, err := keySlice.GetString()
		if err != nil {
			return nil, common.NewProtocolError("response meta key is not a string: %v", err)
		}
		valueSlice, err := it.Value()
		if err != nil {
			return nil, common.NewProtocolError("malformed response meta value: %v", err)
		}
		value, err := valueSlice.GetString()
		if err != nil {
			// meta values other than strings are not expected, log and skip
			Logger.Warningf("skipping non-string meta value for key %q: %v", key, err)
		} else {
			out[key] = value
		}
		if err := it.Next(); err != nil {
			return nil, common.NewProtocolError("malformed response meta: %v", err)
		}
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Generic helpers
// --------------------------------------------------------------------------

// ExtractVersionString reads the "version" attribute from a VelocyPack
// object body, as returned by the server version endpoint.
func ExtractVersionString(body []byte) (string, error) {
	s := velocypack.Slice(body)
	if !s.IsObject() {
		return "", fmt.Errorf("version response body is not an object")
	}
	v, err := s.Get("version")
	if err != nil {
		return "", fmt.Errorf("version attribute missing: %v", err)
	}
	return v.GetString()
}
