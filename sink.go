package mqconsume

import (
	"encoding/hex"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Sink receives every decoded message, one at a time, in receipt order.
type Sink func(msg *Message)

// ErrorSink receives messages that were skipped. msg may be nil.
type ErrorSink func(err error, msg *Message)

// WriteLines writes the text of each message followed by a newline. The
// returned sink may be shared by several consumers.
func WriteLines(w io.Writer, log *logrus.Entry) Sink {
	var mx sync.Mutex
	return func(msg *Message) {
		mx.Lock()
		defer mx.Unlock()

		if _, err := io.WriteString(w, msg.Text+"\n"); err != nil {
			log.Warnf("write message %x: %v", msg.MsgID, err)
		}
	}
}

// LogErrors logs skipped messages at warning level.
func LogErrors(log *logrus.Entry) ErrorSink {
	return func(err error, msg *Message) {
		l := log.WithError(err)
		if msg != nil {
			l = l.WithFields(logrus.Fields{
				"msgId":  hex.EncodeToString(msg.MsgID),
				"length": msg.Length,
				"ccsid":  msg.CCSID,
			})
		}
		l.Warn("message skipped")
	}
}
