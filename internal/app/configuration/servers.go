package configuration

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ServeAdminAPI starts the admin API on config.AdminPort, over TLS when a
// certificate and key are configured. The caller owns the returned server.
func ServeAdminAPI(config Config) (*http.Server, error) {
	server, err := newServer(config)
	if err != nil {
		return nil, err
	}

	go func() {
		var err error
		if config.TLSCertFile != "" && config.TLSKeyFile != "" {
			err = server.ListenAndServeTLS(config.TLSCertFile, config.TLSKeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Error(err)
		}
	}()

	log.Infof("admin API listening on %s", server.Addr)
	return server, nil
}

func newServer(config Config) (*http.Server, error) {
	s := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.AdminPort),
		Handler: NewAdminAPI(config),
	}

	if config.TLSCAFile != "" {
		if config.TLSCertFile == "" || config.TLSKeyFile == "" {
			return nil, errors.New("cannot run in mTLS mode without TLS cert and key")
		}

		caCertFile, err := os.ReadFile(config.TLSCAFile)
		if err != nil {
			return nil, errors.Wrap(err, "error reading CA certificate")
		}
		certPool := x509.NewCertPool()
		if !certPool.AppendCertsFromPEM(caCertFile) {
			return nil, errors.Errorf("no certificates found in %s", config.TLSCAFile)
		}
		s.TLSConfig = &tls.Config{
			ClientAuth: tls.RequireAndVerifyClientCert,
			ClientCAs:  certPool,
			MinVersion: tls.VersionTLS12,
		}
	}

	return s, nil
}
