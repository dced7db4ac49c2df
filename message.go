package mqconsume

import (
	"time"
)

type MsgID []byte

// Message is one message read from a queue. The loop owns it until it is
// handed to the Sink; the sink owns it afterwards.
type Message struct {
	MsgID    MsgID
	CorrelID []byte
	Payload  []byte

	// Length of the message data as reported by the queue manager.
	Length int

	// Format and CCSID come from the message descriptor and drive decoding.
	Format string
	CCSID  int32

	Props MsgProps

	// PutTime is when the message was put, ArrivedAt when this process got it.
	PutTime   time.Time
	ArrivedAt time.Time

	ReplyToQ string

	// Text is filled by the Decoder.
	Text string

	// Tx is set only when the message was read under syncpoint.
	Tx Tx
}

type MsgProps map[string]interface{}

// Tx confirms or undoes a syncpoint get.
type Tx interface {
	// Commit confirms the message was consumed.
	Commit() error

	// Rollback puts the message back on the queue.
	Rollback() error
}
