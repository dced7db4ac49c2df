package mqclient

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ibm-messaging/mq-golang/v5/ibmmq"
	"github.com/sirupsen/logrus"
	"github.com/zoh/mqconsume"
)

const defaultBufferSize = 1024

type queue struct {
	log  *logrus.Entry
	conn *connection

	mutex      sync.Mutex
	obj        ibmmq.MQObject
	name       string
	mode       mqconsume.OpenMode
	open       bool
	browseNext bool

	// largest message seen so far, new buffers start at this capacity
	bufSz int
}

// Receive waits up to wait for the next message. A negative wait blocks
// until a message arrives or the queue manager fails.
func (q *queue) Receive(ctx context.Context, wait time.Duration) (*mqconsume.Message, bool, error) {
	l := q.log.WithField("layer", "queue.Receive")

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	q.mutex.Lock()
	defer q.mutex.Unlock()

	if !q.open {
		return nil, false, mqconsume.ProtocolError("get", ErrQueueClosed)
	}
	qMgr := q.conn.manager()
	if qMgr == nil {
		return nil, false, mqconsume.ConnectionError("get", ErrNoConnection)
	}

	getMsgHandle, err := qMgr.CrtMH(ibmmq.NewMQCMHO())
	if err != nil {
		l.Errorf("create message handle: %s", err)
		return nil, false, classify("get", err)
	}
	defer func() {
		if err := dltMh(getMsgHandle); err != nil {
			l.Warnf("delete message handle: %s", err)
		}
	}()

	var (
		datalen int
		buffer  = make([]byte, 0, q.bufSz)
		getmqmd = ibmmq.NewMQMD()
		gmo     = q.getOptions(wait)
	)
	gmo.MsgHandle = getMsgHandle

	for i := 0; i < 2; i++ {
		buffer, datalen, err = q.obj.GetSlice(getmqmd, gmo, buffer)
		if err == nil {
			break
		}

		var mqrc *ibmmq.MQReturn
		if errors.As(err, &mqrc) {
			l.Trace(mqrc.Error())
			switch mqrc.MQRC {
			case ibmmq.MQRC_TRUNCATED_MSG_FAILED:
				if datalen > q.bufSz {
					q.bufSz = datalen
				}
				buffer = make([]byte, 0, datalen)
				continue
			case ibmmq.MQRC_NO_MSG_AVAILABLE:
				return nil, false, nil
			}
		}
		l.Error(err)
		return nil, false, classify("get", err)
	}
	if err != nil {
		return nil, false, classify("get", err)
	}

	if q.mode == mqconsume.ModeBrowse {
		q.browseNext = true
	}

	props, err := properties(getMsgHandle)
	if err != nil {
		l.Warnf("read message properties: %s", err)
	}

	msg := &mqconsume.Message{
		MsgID:     getmqmd.MsgId,
		CorrelID:  getmqmd.CorrelId,
		Payload:   buffer,
		Length:    datalen,
		Format:    strings.TrimSpace(getmqmd.Format),
		CCSID:     getmqmd.CodedCharSetId,
		Props:     props,
		PutTime:   getmqmd.PutDateTime,
		ArrivedAt: time.Now(),
		ReplyToQ:  strings.TrimSpace(getmqmd.ReplyToQ),
	}
	if q.mode == mqconsume.ModeGetSyncpoint {
		msg.Tx = createTx(l.WithField("msgId", hex.EncodeToString(msg.MsgID)), qMgr)
	}

	l.Tracef("Got message of length %d", datalen)
	return msg, true, nil
}

func (q *queue) getOptions(wait time.Duration) *ibmmq.MQGMO {
	gmo := ibmmq.NewMQGMO()
	gmo.Options = ibmmq.MQGMO_WAIT | ibmmq.MQGMO_FAIL_IF_QUIESCING | ibmmq.MQGMO_PROPERTIES_IN_HANDLE
	gmo.WaitInterval = waitInterval(wait)

	switch q.mode {
	case mqconsume.ModeGetSyncpoint:
		gmo.Options |= ibmmq.MQGMO_SYNCPOINT
	case mqconsume.ModeBrowse:
		gmo.Options |= ibmmq.MQGMO_NO_SYNCPOINT
		if q.browseNext {
			gmo.Options |= ibmmq.MQGMO_BROWSE_NEXT
		} else {
			gmo.Options |= ibmmq.MQGMO_BROWSE_FIRST
		}
	default:
		gmo.Options |= ibmmq.MQGMO_NO_SYNCPOINT
	}
	return gmo
}

// waitInterval converts wait to the MQGMO WaitInterval in milliseconds.
func waitInterval(wait time.Duration) int32 {
	if wait < 0 {
		return ibmmq.MQWI_UNLIMITED
	}
	ms := wait.Milliseconds()
	if ms > int64(^uint32(0)>>1) {
		return ibmmq.MQWI_UNLIMITED
	}
	return int32(ms)
}

// Close is a no-op on a closed queue. Close errors caused by a broken
// connection are ignored, the handle is gone anyway.
func (q *queue) Close() error {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if !q.open {
		return nil
	}
	q.open = false

	if q.conn.manager() == nil {
		return nil
	}
	if err := q.obj.Close(0); err != nil && !IsConnBroken(err) {
		return classify("close", err)
	}
	q.log.Debug("queue closed")
	return nil
}
