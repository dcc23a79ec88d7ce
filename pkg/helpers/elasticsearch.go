package helpers

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// ESOptions configures the client behind the pet search index.
type ESOptions struct {
	Addrs      []string
	Username   string
	Password   string
	MaxRetries int
}

func (o ESOptions) clientConfig() elasticsearch.Config {
	retries := o.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	return elasticsearch.Config{
		Addresses:     o.Addrs,
		Username:      o.Username,
		Password:      o.Password,
		MaxRetries:    retries,
		RetryOnStatus: []int{http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
		RetryBackoff:  func(attempt int) time.Duration { return time.Duration(attempt) * 100 * time.Millisecond },
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 5 * time.Second,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		},
	}
}

// NewESClient builds a client that retries throttled and gateway failures
// with linear backoff.
func NewESClient(opts ESOptions) (*elasticsearch.Client, error) {
	return elasticsearch.NewClient(opts.clientConfig())
}
