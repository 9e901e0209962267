package encoding

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/MatthewTully/keyforge/internal/crypto"
)

var ErrPacketTooLarge = errors.New("packet exceeds maximum payload size")

func NewPacket(msgType MessageType, sender string, data []byte) Packet {
	return Packet{
		MessageType: msgType,
		DateTime:    time.Now().UTC(),
		Sender:      sender,
		Data:        data,
	}
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func EncodePacket(p Packet) ([]byte, error) {
	return encode(p)
}

func EncodeKeyMaterial(k KeyMaterial) ([]byte, error) {
	return encode(k)
}

// Frame prefixes body with the header pattern and its length.
func Frame(body []byte) ([]byte, error) {
	if len(body) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPacketTooLarge, len(body))
	}
	frame := make([]byte, 0, HeaderSize+len(body))
	frame = append(frame, HeaderPattern[:]...)
	frame = binary.BigEndian.AppendUint16(frame, uint16(len(body)))
	return append(frame, body...), nil
}

// PrepForSending encodes and frames p. A non-nil aesKey encrypts the encoded
// packet before framing.
func PrepForSending(p Packet, aesKey []byte) ([]byte, error) {
	body, err := EncodePacket(p)
	if err != nil {
		return nil, fmt.Errorf("encoding %s packet: %w", p.MessageType, err)
	}
	if aesKey != nil {
		body, err = crypto.AESEncrypt(body, aesKey)
		if err != nil {
			return nil, fmt.Errorf("encrypting %s packet: %w", p.MessageType, err)
		}
	}
	return Frame(body)
}
