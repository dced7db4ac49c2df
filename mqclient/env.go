package mqclient

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultCipherSpec = "ANY_TLS12"
)

// Env holds the queue manager connection parameters. Field tags follow the
// MQ_* environment variables once processed with the MQ prefix.
type Env struct {
	User          string `envconfig:"APP_USER"`
	Password      string `envconfig:"APP_PASSWORD"`
	QManager      string `envconfig:"QMGR" default:"QMEXAMPLES" validate:"required"`
	Host          string `envconfig:"HOST" default:"localhost" validate:"required"`
	Port          string `envconfig:"PORT" default:"1616" validate:"required,numeric"`
	Channel       string `envconfig:"CHANNEL" default:"ADMIN.CHL" validate:"required,max=20"`
	KeyRepository string `envconfig:"KEY_REPOSITORY" validate:"required_if=TLS true"`
	TLS           bool   `envconfig:"TLS"`
	CipherSpec    string `envconfig:"CIPHER_SPEC" default:"ANY_TLS12"`
}

var validate = validator.New()

func (e *Env) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("ibm mq env: %w", err)
	}
	return nil
}

func (e *Env) getConnectionUrl() string {
	return e.Host + "(" + e.Port + ")"
}
