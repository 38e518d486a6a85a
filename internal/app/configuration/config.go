package configuration

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	AdminPort   int    `env:"ADMIN_PORT,default=8080"`
	PactDir     string `env:"PACT_DIR"` // Directory pact files are written to when a request does not name one
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`
	TLSCAFile   string `env:"TLS_CA_FILE"` // Setting a CA requires client certificates signed by it
}

func NewFromEnv() (Config, error) {
	return newFromLookuper(envconfig.OsLookuper())
}

func newFromLookuper(lookuper envconfig.Lookuper) (Config, error) {
	ctx := context.Background()

	var config Config
	err := envconfig.ProcessWith(ctx, &config, lookuper)
	if err != nil {
		return config, errors.Wrap(err, "process env config")
	}
	return config, nil
}

// ConfigureLogging sets the logrus level from the configuration.
func ConfigureLogging(config Config) error {
	level, err := log.ParseLevel(config.LogLevel)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", config.LogLevel)
	}
	log.SetLevel(level)
	return nil
}
