package chatgpt

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rodja/ChatGPT/internal/logging"
)

// Response is the outcome of a blocking API call.
type Response struct {
	StatusCode int
	Body       []byte
}

// LineStream yields the lines of a streaming response body one at a
// time. Next returns io.EOF after the last line.
type LineStream interface {
	Next() (string, error)
	Close() error
}

// Transport is the wire capability the client is built on: a blocking
// request/response call and a streaming call that exposes the body as a
// line sequence.
type Transport interface {
	Do(ctx context.Context, method, path string, body []byte) (*Response, error)
	Stream(ctx context.Context, method, path string, body []byte) (LineStream, error)
}

type httpTransport struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *logging.Logger
}

func newHTTPTransport(baseURL, accessToken, proxy string, logger *logging.Logger) (*httpTransport, error) {
	var rt http.RoundTripper = http.DefaultTransport
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", proxy, err)
		}
		rt = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
	if logger.DebugEnabled() {
		rt = logging.NewLoggingRoundTripper(rt, logging.NewHTTPLogger(logger), true)
	}

	// No client-level timeout: deadlines come from the request context
	// so long-lived streams are not cut off mid-answer.
	return &httpTransport{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Transport: rt},
		logger:      logger,
	}, nil
}

func (t *httpTransport) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+t.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Openai-Assistant-App-Id", "")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://chat.openai.com/chat")
	return req, nil
}

func (t *httpTransport) Do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	req, err := t.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func (t *httpTransport) Stream(ctx context.Context, method, path string, body []byte) (LineStream, error) {
	req, err := t.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, &Error{
			Source:  "OpenAI",
			Message: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(data)),
			Code:    CodeServer,
		}
	}

	var stream LineStream = &bodyLineStream{body: resp.Body, reader: bufio.NewReader(resp.Body)}
	if t.logger.DebugEnabled() {
		httpLogger := logging.NewHTTPLogger(t.logger)
		httpLogger.LogStreamStart(resp)
		stream = &loggedLineStream{inner: stream, logger: httpLogger, start: time.Now()}
	}
	return stream, nil
}

// loggedLineStream traces every consumed line when debug logging is on.
type loggedLineStream struct {
	inner  LineStream
	logger *logging.HTTPLogger
	start  time.Time
	count  int
}

func (s *loggedLineStream) Next() (string, error) {
	line, err := s.inner.Next()
	if err == nil {
		s.count++
		s.logger.LogStreamLine(line, s.count)
	}
	return line, err
}

func (s *loggedLineStream) Close() error {
	s.logger.LogStreamEnd(time.Since(s.start), s.count)
	return s.inner.Close()
}

type bodyLineStream struct {
	body   io.ReadCloser
	reader *bufio.Reader
	done   bool
}

func (s *bodyLineStream) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}

	line, err := s.reader.ReadString('\n')
	if err != nil {
		s.done = true
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *bodyLineStream) Close() error {
	return s.body.Close()
}
