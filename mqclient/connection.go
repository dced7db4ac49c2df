package mqclient

import (
	"context"
	"sync"

	"github.com/ibm-messaging/mq-golang/v5/ibmmq"
	"github.com/sirupsen/logrus"
	"github.com/zoh/mqconsume"
)

// Dialer connects to one queue manager in client mode.
type Dialer struct {
	env Env
	log *logrus.Entry
}

var _ mqconsume.Dialer = (*Dialer)(nil)

// NewDialer validates env. log may be nil.
func NewDialer(env Env, log *logrus.Entry) (*Dialer, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	if env.CipherSpec == "" {
		env.CipherSpec = DefaultCipherSpec
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.InfoLevel)
		log = logrus.NewEntry(l)
	}
	return &Dialer{
		env: env,
		log: log.WithField("pkg", "mqclient"),
	}, nil
}

// Connect makes one attempt. The MQI call itself cannot be interrupted, ctx
// is only checked before it.
func (d *Dialer) Connect(ctx context.Context) (mqconsume.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.log.Debugf("Connecting to %s %s", d.env.QManager, d.env.getConnectionUrl())
	qMgr, err := ibmmq.Connx(d.env.QManager, d.cno())
	if err != nil {
		return nil, classify("connect", err)
	}
	d.log.Infof("MQ succeeded connect to %s", d.env.QManager)

	return &connection{
		log:            d.log,
		env:            &d.env,
		mqQueueManager: &qMgr,
	}, nil
}

func (d *Dialer) cno() *ibmmq.MQCNO {
	csp := ibmmq.NewMQCSP()
	cno := ibmmq.NewMQCNO()
	cd := ibmmq.NewMQCD()

	if username := d.env.User; username != "" {
		d.log.Debugf("User %s and pass has been specified", username)
		csp.AuthenticationType = ibmmq.MQCSP_AUTH_USER_ID_AND_PWD
		csp.UserId = username
		csp.Password = d.env.Password
	} else {
		csp.AuthenticationType = ibmmq.MQCSP_AUTH_NONE
	}
	cno.SecurityParms = csp

	cd.ChannelName = d.env.Channel
	cd.ConnectionName = d.env.getConnectionUrl()

	if d.env.TLS {
		d.log.Debug("Running in TLS Mode")
		sco := ibmmq.NewMQSCO()
		sco.KeyRepository = d.env.KeyRepository
		cno.SSLConfig = sco
		cd.SSLCipherSpec = d.env.CipherSpec
		cd.SSLClientAuth = ibmmq.MQSCA_OPTIONAL
	}

	cno.ClientConn = cd
	cno.Options = ibmmq.MQCNO_CLIENT_BINDING
	return cno
}

type connection struct {
	log *logrus.Entry
	env *Env

	mutex          sync.Mutex
	mqQueueManager *ibmmq.MQQueueManager
}

func (c *connection) OpenQueue(name string, mode mqconsume.OpenMode) (mqconsume.Queue, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.mqQueueManager == nil {
		return nil, mqconsume.ConnectionError("open", ErrNoConnection)
	}

	qObject, err := openQueue(c.mqQueueManager, name, mode)
	if err != nil {
		return nil, classify("open", err)
	}
	c.log.Debugf("Opened queue %s mode=%s", name, mode)

	return &queue{
		log:   c.log.WithField("queue", name),
		conn:  c,
		obj:   qObject,
		name:  name,
		mode:  mode,
		open:  true,
		bufSz: defaultBufferSize,
	}, nil
}

// Disconnect is a no-op once the connection is gone. A broken connection is
// not reported as an error.
func (c *connection) Disconnect() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.mqQueueManager == nil {
		return nil
	}
	c.log.Trace("Disconnecting...")
	err := c.mqQueueManager.Disc()
	c.mqQueueManager = nil
	if err != nil && !IsConnBroken(err) {
		return classify("disconnect", err)
	}
	c.log.Info("connection disconnected")
	return nil
}

func (c *connection) manager() *ibmmq.MQQueueManager {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.mqQueueManager
}
