package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a whole parse round-trip.
	DefaultTimeout = 5 * time.Second
	// DefaultConnectTimeout bounds establishing the TCP connection.
	DefaultConnectTimeout = 2 * time.Second
)

// Config drives NLU client behaviour.
type Config struct {
	URL            string
	Project        string
	Token          string
	Timeout        time.Duration
	ConnectTimeout time.Duration
}

// Client posts sentences to an NLU parse endpoint.
type Client struct {
	httpClient *http.Client
	url        string
	project    string
	token      string
}

// ErrMissingEndpoint is returned when the client has nowhere to send requests.
var ErrMissingEndpoint = errors.New("nlu client missing endpoint url")

// NewClient constructs an NLU client if configuration is valid.
func NewClient(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		return nil, ErrMissingEndpoint
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	if connectTimeout > timeout {
		connectTimeout = timeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}).DialContext

	return &Client{
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		url:        endpoint,
		project:    cfg.Project,
		token:      strings.TrimSpace(cfg.Token),
	}, nil
}

// Parse sends one sentence to the endpoint. Every failure is returned as a
// *TransportError.
func (c *Client) Parse(ctx context.Context, sentence string) (Response, error) {
	if c == nil {
		return Response{}, &TransportError{Kind: KindGeneric, Sentence: sentence, Err: errors.New("nlu client is nil")}
	}

	body, err := json.Marshal(Request{Query: sentence, Project: c.project})
	if err != nil {
		return Response{}, &TransportError{Kind: KindGeneric, Sentence: sentence, Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Response{}, &TransportError{Kind: KindGeneric, Sentence: sentence, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, &TransportError{Kind: Classify(err), Sentence: sentence, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Response{}, &TransportError{
			Kind:     KindGeneric,
			Sentence: sentence,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("nlu status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	var payload Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Response{}, &TransportError{Kind: Classify(err), Sentence: sentence, Err: fmt.Errorf("decode nlu response: %w", err)}
	}
	return payload, nil
}
