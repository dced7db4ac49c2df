package mqclient

import (
	"github.com/ibm-messaging/mq-golang/v5/ibmmq"
	"github.com/zoh/mqconsume"
)

func openOptions(mode mqconsume.OpenMode) int32 {
	if mode == mqconsume.ModeBrowse {
		return ibmmq.MQOO_BROWSE | ibmmq.MQOO_FAIL_IF_QUIESCING
	}
	return ibmmq.MQOO_INPUT_AS_Q_DEF | ibmmq.MQOO_FAIL_IF_QUIESCING
}

func openQueue(qMgrObject *ibmmq.MQQueueManager, qName string, mode mqconsume.OpenMode) (ibmmq.MQObject, error) {
	mqod := ibmmq.NewMQOD()
	mqod.ObjectType = ibmmq.MQOT_Q
	mqod.ObjectName = qName

	return qMgrObject.Open(mqod, openOptions(mode))
}
