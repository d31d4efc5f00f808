package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// StatusError reports a non-2xx response from a payload source.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// TooLargeError reports a payload exceeding the configured cap.
type TooLargeError struct {
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("payload exceeds %d bytes", e.Limit)
}

type httpFetcher struct {
	client   *http.Client
	maxBytes int64
}

// Fetch performs a GET and returns the body. Non-2xx statuses and bodies
// larger than maxBytes are errors.
func (f *httpFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	zap.L().Debug("Fetching payload", zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URI %q: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			zap.L().Debug("failed to close response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	return readCapped(resp.Body, f.maxBytes)
}

// readCapped reads at most limit bytes from r and fails if more are available.
func readCapped(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, &TooLargeError{Limit: limit}
	}
	return data, nil
}
