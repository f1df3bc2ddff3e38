package providers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/net/http2"

	"github.com/i474232898/quickcheck/internal/covid"
)

// BreakerConfig controls when the circuit breaker opens.
type BreakerConfig struct {
	MaxConsecutiveFailures uint32
	OpenTimeout            time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Timeout time.Duration // per-fetch bound, applied on top of the client's own timeout
}

var (
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// NewHTTPClient builds the shared outbound client with HTTP/2 enabled on its transport.
func NewHTTPClient(timeout time.Duration) (*http.Client, error) {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("unexpected default transport type %T", http.DefaultTransport)
	}
	transport := base.Clone()
	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, fmt.Errorf("configure http2 transport: %w", err)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

func newCircuitBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	maxFailures := cfg.MaxConsecutiveFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 2 * time.Minute
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// A cycle cancelled by its caller says nothing about the upstream.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("INFO: circuit breaker %s changed from %s to %s", name, from, to)
		},
	})
}

// doRequest executes a single request through the circuit breaker and
// returns the response only for 2xx statuses. There are no retries.
// Every failure is reported as *covid.FetchError.
func doRequest(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, &covid.FetchError{Kind: covid.FetchNetworkFailure, Err: errNoHTTPClient}
	}

	req, err := buildRequest(ctx)
	if err != nil {
		return nil, &covid.FetchError{Kind: covid.FetchNetworkFailure, Err: err}
	}

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, classify(ctx, execErr)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, &covid.FetchError{Kind: covid.FetchNonSuccessStatus, StatusCode: resp.StatusCode}
		}

		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &covid.FetchError{Kind: covid.FetchNetworkFailure, Err: fmt.Errorf("%w: %v", errCircuitOpen, err)}
		}
		var fetchErr *covid.FetchError
		if errors.As(err, &fetchErr) {
			return nil, fetchErr
		}
		return nil, classify(ctx, err)
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, &covid.FetchError{Kind: covid.FetchNetworkFailure, Err: fmt.Errorf("unexpected result type from circuit breaker")}
	}
	return resp, nil
}

// classify maps a transport error onto the fetch taxonomy.
func classify(ctx context.Context, err error) *covid.FetchError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &covid.FetchError{Kind: covid.FetchTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &covid.FetchError{Kind: covid.FetchTimeout, Err: err}
	}
	return &covid.FetchError{Kind: covid.FetchNetworkFailure, Err: err}
}
