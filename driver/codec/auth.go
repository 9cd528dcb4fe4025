package codec

import (
	velocypack "github.com/arangodb/go-velocypack"

	"github.com/PauloFerreira25/velostream/driver/common"
)

// --------------------------------------------------------------------------
// Authentication methods
// --------------------------------------------------------------------------

// basicAuthentication authenticates with user and password ("plain").
type basicAuthentication struct {
	user     string
	password string
}

// NewBasicAuthentication creates a user/password authentication method
func NewBasicAuthentication(user, password string) common.AuthenticationMethod {
	return &basicAuthentication{user: user, password: password}
}

func (a *basicAuthentication) Name() string {
	return "plain"
}

func (a *basicAuthentication) AuthenticationMessage() ([]byte, error) {
	return encodeAuthMessage("plain", a.user, a.password)
}

// jwtAuthentication authenticates with a JWT token.
type jwtAuthentication struct {
	token string
}

// NewJWTAuthentication creates a JWT token authentication method
func NewJWTAuthentication(token string) common.AuthenticationMethod {
	return &jwtAuthentication{token: token}
}

func (a *jwtAuthentication) Name() string {
	return "jwt"
}

func (a *jwtAuthentication) AuthenticationMessage() ([]byte, error) {
	return encodeAuthMessage("jwt", a.token)
}

// encodeAuthMessage builds the VST authentication payload
// [version, 1000, encryption, credentials...]
func encodeAuthMessage(encryption string, credentials ...string) ([]byte, error) {
	var b velocypack.Builder

	if err := b.OpenArray(); err != nil {
		return nil, err
	}
	if err := b.AddValue(velocypack.NewIntValue(common.ProtocolVersion)); err != nil {
		return nil, err
	}
	if err := b.AddValue(velocypack.NewIntValue(common.MessageTypeAuthentication)); err != nil {
		return nil, err
	}
	if err := b.AddValue(velocypack.NewStringValue(encryption)); err != nil {
		return nil, err
	}
	for _, c := range credentials {
		if err := b.AddValue(velocypack.NewStringValue(c)); err != nil {
			return nil, err
		}
	}
	if err := b.Close(); err != nil {
		return nil, err
	}

	return b.Bytes()
}
