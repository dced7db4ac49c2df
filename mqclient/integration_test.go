package mqclient

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ibm-messaging/mq-golang/v5/ibmmq"
	"github.com/kelseyhightower/envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoh/mqconsume"
)

// integrationEnv reads MQ_* variables and skips unless MQ_TEST_QUEUE is set.
// A developer queue manager works, e.g. the ibm-messaging/mq container with
// MQ_QMGR=QM1 MQ_PORT=1414 MQ_CHANNEL=DEV.APP.SVRCONN MQ_TEST_QUEUE=DEV.QUEUE.1.
func integrationEnv(t *testing.T) (Env, string) {
	queue := os.Getenv("MQ_TEST_QUEUE")
	if queue == "" {
		t.Skip("MQ_TEST_QUEUE is not set")
	}
	var env Env
	require.NoError(t, envconfig.Process("MQ", &env))
	return env, queue
}

// putMessage writes payload to queue outside of syncpoint.
func putMessage(t *testing.T, c *connection, queue string, payload []byte) {
	t.Helper()

	mqod := ibmmq.NewMQOD()
	mqod.ObjectType = ibmmq.MQOT_Q
	mqod.ObjectName = queue
	qObject, err := c.manager().Open(mqod, ibmmq.MQOO_OUTPUT)
	require.NoError(t, err)
	defer qObject.Close(0)

	putmqmd := ibmmq.NewMQMD()
	putmqmd.Format = ibmmq.MQFMT_STRING
	putmqmd.CodedCharSetId = mqconsume.EncodingUTF8
	pmo := ibmmq.NewMQPMO()
	pmo.Options = ibmmq.MQPMO_NO_SYNCPOINT | ibmmq.MQPMO_NEW_MSG_ID | ibmmq.MQPMO_NEW_CORREL_ID

	require.NoError(t, qObject.Put(putmqmd, pmo, payload))
}

func TestIntegration_ConsumeQueue(t *testing.T) {
	env, queue := integrationEnv(t)

	d, err := NewDialer(env, testLog())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	producer, err := d.Connect(ctx)
	require.NoError(t, err)
	defer producer.Disconnect()

	putMessage(t, producer.(*connection), queue, []byte("hello"))
	putMessage(t, producer.(*connection), queue, []byte("world"))

	got := make(chan string, 2)
	c, err := mqconsume.New(queue, d, func(msg *mqconsume.Message) { got <- msg.Text },
		mqconsume.WithLogger(testLog()),
		mqconsume.WithWaitInterval(500*time.Millisecond),
	)
	require.NoError(t, err)

	runCtx, stop := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(runCtx) }()

	var texts []string
	for len(texts) < 2 {
		select {
		case s := <-got:
			texts = append(texts, s)
		case <-ctx.Done():
			t.Fatal("messages not received")
		}
	}
	stop()

	assert.Equal(t, []string{"hello", "world"}, texts)
	assert.ErrorIs(t, <-errCh, mqconsume.ErrCancelled)
}

func TestIntegration_UnknownQueue(t *testing.T) {
	env, _ := integrationEnv(t)

	d, err := NewDialer(env, testLog())
	require.NoError(t, err)

	c, err := mqconsume.New("NO.SUCH.QUEUE.EXISTS", d, func(*mqconsume.Message) {},
		mqconsume.WithLogger(testLog()))
	require.NoError(t, err)

	err = c.Run(context.Background())
	assert.ErrorIs(t, err, mqconsume.ErrProtocol)
}
