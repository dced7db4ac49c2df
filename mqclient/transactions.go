package mqclient

import (
	"github.com/ibm-messaging/mq-golang/v5/ibmmq"
	"github.com/sirupsen/logrus"
	"github.com/zoh/mqconsume"
)

type transaction struct {
	log      *logrus.Entry
	qManager *ibmmq.MQQueueManager
}

func (t *transaction) Commit() error {
	t.log.Trace("tx commit")
	if err := t.qManager.Cmit(); err != nil {
		return classify("commit", err)
	}
	return nil
}

func (t *transaction) Rollback() error {
	t.log.Trace("tx rollback")
	if err := t.qManager.Back(); err != nil {
		return classify("rollback", err)
	}
	return nil
}

func createTx(log *logrus.Entry, qManager *ibmmq.MQQueueManager) mqconsume.Tx {
	return &transaction{log, qManager}
}
