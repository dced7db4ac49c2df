package mqclient

import (
	"errors"

	"github.com/ibm-messaging/mq-golang/v5/ibmmq"
	"github.com/zoh/mqconsume"
)

var (
	ErrNoConnection = errors.New("ibm mq: no connection")
	ErrQueueClosed  = errors.New("ibm mq: queue is closed")
)

// reason codes after which a new connection may succeed
var connectionReasons = map[int32]struct{}{
	ibmmq.MQRC_CONNECTION_BROKEN:     {},
	ibmmq.MQRC_CONNECTION_QUIESCING:  {},
	ibmmq.MQRC_CONNECTION_STOPPING:   {},
	ibmmq.MQRC_Q_MGR_QUIESCING:       {},
	ibmmq.MQRC_Q_MGR_STOPPING:        {},
	ibmmq.MQRC_Q_MGR_NOT_AVAILABLE:   {},
	ibmmq.MQRC_HOST_NOT_AVAILABLE:    {},
	ibmmq.MQRC_RECONNECT_FAILED:      {},
	ibmmq.MQRC_CALL_INTERRUPTED:      {},
	ibmmq.MQRC_HCONN_ERROR:           {},
	ibmmq.MQRC_CHANNEL_NOT_AVAILABLE: {},
	ibmmq.MQRC_CONNECTION_ERROR:      {},
	ibmmq.MQRC_RESOURCE_PROBLEM:      {},
	ibmmq.MQRC_STORAGE_NOT_AVAILABLE: {},
}

// classify maps an MQI failure of op onto the consumer error taxonomy.
// Anything that is not an MQ return code is treated as a connection error.
func classify(op string, err error) error {
	var mqret *ibmmq.MQReturn
	if !errors.As(err, &mqret) {
		return mqconsume.ConnectionError(op, err)
	}
	if _, ok := connectionReasons[mqret.MQRC]; ok {
		return mqconsume.ConnectionError(op, err)
	}
	return mqconsume.ProtocolError(op, err)
}

func IsConnBroken(err error) bool {
	var mqret *ibmmq.MQReturn
	if !errors.As(err, &mqret) {
		return false
	}
	return mqret.MQRC == ibmmq.MQRC_CONNECTION_BROKEN || mqret.MQRC == ibmmq.MQRC_CONNECTION_QUIESCING
}

func dltMh(mh ibmmq.MQMessageHandle) error {
	dmho := ibmmq.NewMQDMHO()
	return mh.DltMH(dmho)
}

func properties(getMsgHandle ibmmq.MQMessageHandle) (mqconsume.MsgProps, error) {
	impo := ibmmq.NewMQIMPO()
	pd := ibmmq.NewMQPD()
	props := make(mqconsume.MsgProps)

	impo.Options = ibmmq.MQIMPO_CONVERT_VALUE | ibmmq.MQIMPO_INQ_FIRST
	for {
		name, value, err := getMsgHandle.InqMP(impo, pd, "%")
		impo.Options = ibmmq.MQIMPO_CONVERT_VALUE | ibmmq.MQIMPO_INQ_NEXT
		if err != nil {
			var mqret *ibmmq.MQReturn
			if !errors.As(err, &mqret) || mqret.MQRC != ibmmq.MQRC_PROPERTY_NOT_AVAILABLE {
				return props, err
			}
			break
		}
		props[name] = value
	}
	return props, nil
}
