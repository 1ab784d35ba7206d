package solver

import (
	"crypto/x509"
	"fmt"
	"os"

	"github.com/maumercado/anticaptcha-go/internal/config"
	"github.com/maumercado/anticaptcha-go/internal/logger"
	"github.com/maumercado/anticaptcha-go/internal/metrics"
	"github.com/maumercado/anticaptcha-go/pkg/anticaptcha"
)

// NewClient builds an anticaptcha client from configuration. Requests are
// logged through zerolog and counted in the API metrics.
func NewClient(cfg *config.Config) (*anticaptcha.Client, error) {
	opts := []anticaptcha.Option{
		anticaptcha.WithSoftID(cfg.Client.SoftID),
		anticaptcha.WithCallbackURL(cfg.Client.CallbackURL),
		anticaptcha.WithAPIURL(cfg.Client.APIURL),
		anticaptcha.WithHTTPTimeout(cfg.Client.HTTPTimeout),
		anticaptcha.WithTaskTimeout(cfg.Client.TaskTimeout),
		anticaptcha.WithPollInterval(cfg.Client.PollInterval),
		anticaptcha.WithTaskOptions(cfg.Task),
		anticaptcha.WithLogger(anticaptcha.MultiLogger(
			logger.NewRequestSink(logger.WithComponent("anticaptcha")),
			metrics.Recorder{},
		)),
		anticaptcha.WithTransportMiddleware(metrics.InstrumentTransport),
	}

	if cfg.Client.CAFile != "" {
		pool, err := loadCertPool(cfg.Client.CAFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, anticaptcha.WithRootCAs(pool))
	}

	return anticaptcha.New(cfg.Client.Key, opts...)
}

func loadCertPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}
