package encoding

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/MatthewTully/keyforge/internal/crypto"
)

func DecodePacket(b []byte) (Packet, error) {
	var packet Packet
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&packet); err != nil {
		return Packet{}, fmt.Errorf("decoding packet: %w", err)
	}
	return packet, nil
}

func DecodeKeyMaterial(b []byte) (KeyMaterial, error) {
	var km KeyMaterial
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&km); err != nil {
		return KeyMaterial{}, fmt.Errorf("decoding key material: %w", err)
	}
	return km, nil
}

// Reader pulls framed packets off a stream. Bytes ahead of a header pattern
// are discarded, and frames split across reads are reassembled.
type Reader struct {
	r         *bufio.Reader
	aesKey    []byte
	Discarded int
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// SetAESKey makes every following ReadPacket decrypt the frame body.
func (r *Reader) SetAESKey(key []byte) {
	r.aesKey = key
}

func (r *Reader) syncToHeader() error {
	var window [len(HeaderPattern)]byte
	if _, err := io.ReadFull(r.r, window[:]); err != nil {
		return err
	}
	for window != HeaderPattern {
		b, err := r.r.ReadByte()
		if err != nil {
			return err
		}
		copy(window[:], window[1:])
		window[len(window)-1] = b
		r.Discarded++
	}
	return nil
}

// ReadFrame returns the next frame body as sent.
func (r *Reader) ReadFrame() ([]byte, error) {
	if err := r.syncToHeader(); err != nil {
		return nil, err
	}
	var length [lengthSize]byte
	if _, err := io.ReadFull(r.r, length[:]); err != nil {
		return nil, err
	}
	body := make([]byte, binary.BigEndian.Uint16(length[:]))
	if _, err := io.ReadFull(r.r, body); err != nil {
		return nil, err
	}
	return body, nil
}

func (r *Reader) ReadPacket() (Packet, error) {
	body, err := r.ReadFrame()
	if err != nil {
		return Packet{}, err
	}
	if r.aesKey != nil {
		body, err = crypto.AESDecrypt(body, r.aesKey)
		if err != nil {
			return Packet{}, fmt.Errorf("decrypting packet: %w", err)
		}
	}
	return DecodePacket(body)
}
