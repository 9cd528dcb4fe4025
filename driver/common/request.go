package common

import (
	"fmt"
)

// Protocol constants carried in every VST message envelope.
const (
	ProtocolVersion = 1

	MessageTypeRequest        = 1
	MessageTypeResponse       = 2
	MessageTypeAuthentication = 1000
)

// --------------------------------------------------------------------------
// Request Type Definition
// --------------------------------------------------------------------------

// RequestType is the HTTP-style method of a request, encoded as a small
// integer on the wire.
type RequestType int

const (
	RequestTypeDelete  RequestType = 0
	RequestTypeGet     RequestType = 1
	RequestTypePost    RequestType = 2
	RequestTypePut     RequestType = 3
	RequestTypeHead    RequestType = 4
	RequestTypePatch   RequestType = 5
	RequestTypeOptions RequestType = 6
)

// String returns the string representation of a RequestType.
func (t RequestType) String() string {
	switch t {
	case RequestTypeDelete:
		return "DELETE"
	case RequestTypeGet:
		return "GET"
	case RequestTypePost:
		return "POST"
	case RequestTypePut:
		return "PUT"
	case RequestTypeHead:
		return "HEAD"
	case RequestTypePatch:
		return "PATCH"
	case RequestTypeOptions:
		return "OPTIONS"
	default:
		return "unknown"
	}
}

// valid reports whether the request type is one of the defined method codes
func (t RequestType) valid() bool {
	return t >= RequestTypeDelete && t <= RequestTypeOptions
}

// --------------------------------------------------------------------------
// Request
// --------------------------------------------------------------------------

// Request is an immutable description of a single database request. It is
// constructed via NewRequest and must not be mutated afterwards. The Body
// buffer is consumed by the framing layer at most once.
type Request struct {
	Database    string
	RequestType RequestType
	Path        string
	QueryParam  map[string]string
	HeaderParam map[string]string
	Body        []byte
}

// NewRequest creates a new Request and validates its fields. Query and
// header parameters as well as the body may be nil.
func NewRequest(database string, requestType RequestType, path string) (*Request, error) {
	if database == "" {
		return nil, fmt.Errorf("request database must not be empty")
	}
	if !requestType.valid() {
		return nil, fmt.Errorf("invalid request type %d", requestType)
	}
	if path == "" {
		return nil, fmt.Errorf("request path must not be empty")
	}

	return &Request{
		Database:    database,
		RequestType: requestType,
		Path:        path,
		QueryParam:  map[string]string{},
		HeaderParam: map[string]string{},
	}, nil
}

// WithQueryParam returns a copy of the request with an added query parameter
func (r *Request) WithQueryParam(key, value string) *Request {
	out := r.clone()
	out.QueryParam[key] = value
	return out
}

// WithHeaderParam returns a copy of the request with an added header parameter
func (r *Request) WithHeaderParam(key, value string) *Request {
	out := r.clone()
	out.HeaderParam[key] = value
	return out
}

// WithBody returns a copy of the request carrying the given body. Ownership
// of the buffer passes to the driver.
func (r *Request) WithBody(body []byte) *Request {
	out := r.clone()
	out.Body = body
	return out
}

func (r *Request) clone() *Request {
	out := &Request{
		Database:    r.Database,
		RequestType: r.RequestType,
		Path:        r.Path,
		QueryParam:  make(map[string]string, len(r.QueryParam)),
		HeaderParam: make(map[string]string, len(r.HeaderParam)),
		Body:        r.Body,
	}
	for k, v := range r.QueryParam {
		out.QueryParam[k] = v
	}
	for k, v := range r.HeaderParam {
		out.HeaderParam[k] = v
	}
	return out
}

// String returns a compact representation for logging
func (r *Request) String() string {
	return fmt.Sprintf("%s /_db/%s%s (%d body bytes)", r.RequestType, r.Database, r.Path, len(r.Body))
}

// --------------------------------------------------------------------------
// Response
// --------------------------------------------------------------------------

// Response is the immutable result of a request. The caller owns the Body
// buffer. A non-2xx ResponseCode is not a driver error and is surfaced
// unchanged.
type Response struct {
	Version      int
	Type         int
	ResponseCode int
	Meta         map[string]string
	Body         []byte
}

// IsSuccess reports whether the response carries a 2xx code
func (r *Response) IsSuccess() bool {
	return r.ResponseCode >= 200 && r.ResponseCode < 300
}

// String returns a compact representation for logging
func (r *Response) String() string {
	return fmt.Sprintf("response(code=%d, %d meta, %d body bytes)", r.ResponseCode, len(r.Meta), len(r.Body))
}

// --------------------------------------------------------------------------
// Authentication
// --------------------------------------------------------------------------

// AuthenticationMethod produces the VST authentication message payload sent
// before the first user request of a connection. Implementations live in the
// codec package; the connection treats the payload as opaque bytes.
type AuthenticationMethod interface {
	// Name returns the encryption field of the method ("plain" or "jwt")
	Name() string
	// AuthenticationMessage returns the VelocyPack payload of the
	// authentication message
	AuthenticationMessage() ([]byte, error)
}
