package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/quickcheck/internal/covid"
)

const (
	// SummaryURL is the public endpoint serving the global summary.
	SummaryURL = "https://api.covid19api.com/summary"

	// DefaultTimeout bounds a single fetch when no timeout is configured.
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 4 << 20
)

// SummaryProvider implements covid.Fetcher for the covid19api summary endpoint.
type SummaryProvider struct {
	name    string
	url     string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewSummaryProvider creates a provider for url. An empty url means SummaryURL,
// a non-positive timeout means DefaultTimeout.
func NewSummaryProvider(client *http.Client, url string, timeout time.Duration, breaker BreakerConfig) *SummaryProvider {
	if url == "" {
		url = SummaryURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &SummaryProvider{
		name: "covid19api",
		url:  url,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Timeout: timeout,
		},
		circuit: newCircuitBreaker("covid19api", breaker),
	}
}

func (p *SummaryProvider) Name() string {
	return p.name
}

// Fetch performs one GET against the summary endpoint and returns the body.
func (p *SummaryProvider) Fetch(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.httpCfg.Timeout)
	defer cancel()

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, classify(ctx, err)
	}
	if len(body) > maxBodyBytes {
		return nil, &covid.FetchError{
			Kind: covid.FetchNetworkFailure,
			Err:  fmt.Errorf("response body exceeds %d bytes", maxBodyBytes),
		}
	}
	return body, nil
}
