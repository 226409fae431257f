// Package upstream holds the HTTP clients of the services the dashboard
// talks to: the form generator, the verification webhook and the OCL
// terminology endpoints.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"emr-metadata-dashboard/internal/shared/errors"
	"emr-metadata-dashboard/internal/shared/metrics"
)

const maxErrorBody = 512

// StatusError is a non-2xx answer from an upstream service.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return errors.ErrNotFound
	}
	return errors.ErrUpstream
}

type baseClient struct {
	service string
	baseURL string
	http    *http.Client
	metrics *metrics.Metrics
}

func newBaseClient(service, baseURL string, timeout time.Duration, m *metrics.Metrics) baseClient {
	return baseClient{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		metrics: m,
	}
}

func (c *baseClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", c.service, err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends req and turns non-2xx answers into *StatusError. The caller closes the body.
func (c *baseClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.Upstream(c.service, 0, err)
		return nil, fmt.Errorf("calling %s: %w", c.service, err)
	}
	c.metrics.Upstream(c.service, resp.StatusCode, nil)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Service: c.service, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	return resp, nil
}

func (c *baseClient) doJSON(req *http.Request, out interface{}) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decoding %s response: %w", c.service, err)
	}
	return nil
}

func jsonBody(v interface{}) (io.Reader, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(raw), nil
}
