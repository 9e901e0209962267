package encoding

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/MatthewTully/keyforge/internal/keygen"
)

type MessageType uint8

const (
	RequestConnect MessageType = iota + 1
	ServerHello
	SendAESKey
	RequestKey
	KeyResponse
	ErrorMessage
	RequestDisconnect
)

func (m MessageType) String() string {
	switch m {
	case RequestConnect:
		return "RequestConnect"
	case ServerHello:
		return "ServerHello"
	case SendAESKey:
		return "SendAESKey"
	case RequestKey:
		return "RequestKey"
	case KeyResponse:
		return "KeyResponse"
	case ErrorMessage:
		return "ErrorMessage"
	case RequestDisconnect:
		return "RequestDisconnect"
	}
	return "Unknown"
}

// Every frame starts with HeaderPattern followed by the big-endian length of
// the body.
var HeaderPattern = [4]byte{'K', 'F', 'R', 'G'}

const (
	lengthSize     = 2
	HeaderSize     = len(HeaderPattern) + lengthSize
	MaxPayloadSize = math.MaxUint16
)

type Packet struct {
	MessageType MessageType
	DateTime    time.Time
	Sender      string
	Data        []byte
}

// KeyMaterial is the body of a KeyResponse.
type KeyMaterial struct {
	ID          uuid.UUID
	Key         keygen.RSAKeyInfo
	Fingerprint string
	CreatedAt   time.Time
	Signature   []byte
}

// SigningPayload is the byte string the server signs: the ID followed by the
// length-prefixed shared, public and private values.
func (k KeyMaterial) SigningPayload() []byte {
	var buf bytes.Buffer
	buf.Write(k.ID[:])
	for _, v := range []*big.Int{k.Key.Shared, k.Key.Public, k.Key.Private} {
		var b []byte
		if v != nil {
			b = v.Bytes()
		}
		buf.Write(binary.BigEndian.AppendUint32(nil, uint32(len(b))))
		buf.Write(b)
	}
	buf.WriteString(k.Fingerprint)
	return buf.Bytes()
}
