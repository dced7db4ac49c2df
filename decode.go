package mqconsume

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Decoder turns a message payload into Message.Text. A returned error marks the
// message as malformed; it is skipped.
type Decoder interface {
	Decode(msg *Message) error
}

type DecoderFunc func(msg *Message) error

func (f DecoderFunc) Decode(msg *Message) error { return f(msg) }

// coded character set ids understood by TextDecoder besides UTF-8
var charsets = map[int32]encoding.Encoding{
	37:   charmap.CodePage037,
	437:  charmap.CodePage437,
	819:  charmap.ISO8859_1,
	850:  charmap.CodePage850,
	1047: charmap.CodePage1047,
	1140: charmap.CodePage1140,
	1200: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	1202: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	1252: charmap.Windows1252,
}

// TextDecoder decodes the payload using the message CCSID. UTF-8 payloads
// must be valid; an unknown CCSID is a decode error.
type TextDecoder struct {
	// DefaultCCSID applies to messages without a CCSID. Zero means UTF-8.
	DefaultCCSID int32
}

func (d TextDecoder) Decode(msg *Message) error {
	if msg == nil {
		return DecodeError(fmt.Errorf("nil message"))
	}

	ccsid := msg.CCSID
	if ccsid == 0 {
		ccsid = d.DefaultCCSID
	}

	switch ccsid {
	case 0, EncodingUTF8:
		if !utf8.Valid(msg.Payload) {
			return DecodeError(fmt.Errorf("payload of %d bytes is not valid UTF-8", len(msg.Payload)))
		}
		msg.Text = string(msg.Payload)
		return nil
	}

	enc, ok := charsets[ccsid]
	if !ok {
		return DecodeError(fmt.Errorf("unsupported CCSID %d", ccsid))
	}
	text, err := enc.NewDecoder().Bytes(msg.Payload)
	if err != nil {
		return DecodeError(fmt.Errorf("CCSID %d: %w", ccsid, err))
	}
	msg.Text = string(text)
	return nil
}

// RawDecoder copies the payload into Text unchecked.
var RawDecoder = DecoderFunc(func(msg *Message) error {
	msg.Text = string(msg.Payload)
	return nil
})
