// Package mocks provides HTTP doubles for exercising loaders without a
// network.
package mocks

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"strconv"
	"sync"
)

// MockRoundTripper is a mock implementation of http.RoundTripper. Requests
// are answered by exact URL from Responses or Errors; anything else gets a
// 404. A URL with a Gate blocks until the gate is closed or the request's
// context ends.
type MockRoundTripper struct {
	Responses map[string]*http.Response
	Errors    map[string]error
	Gates     map[string]chan struct{}

	mu   sync.Mutex
	hits map[string]int
}

// RoundTrip implements the http.RoundTripper interface.
func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	url := req.URL.String()

	m.mu.Lock()
	if m.hits == nil {
		m.hits = make(map[string]int)
	}
	m.hits[url]++
	gate := m.Gates[url]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}

	if err, ok := m.Errors[url]; ok {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if resp, ok := m.Responses[url]; ok {
		// A body can be read only once, so every request gets its own reader
		// over the same bytes.
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		out := *resp
		out.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		out.Request = req
		return &out, nil
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Status:     "404 Not Found",
		Body:       io.NopCloser(bytes.NewBufferString("Not Found")),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

// Hits returns how many requests were made for url.
func (m *MockRoundTripper) Hits(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[url]
}

// NewMockClient creates a new http.Client with a MockRoundTripper.
func NewMockClient(responses map[string]*http.Response) *http.Client {
	return &http.Client{
		Transport: &MockRoundTripper{
			Responses: responses,
		},
	}
}

// Respond builds a response with the given status, content type and body.
func Respond(status int, contentType string, body []byte) *http.Response {
	h := make(http.Header)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &http.Response{
		StatusCode:    status,
		Status:        strconv.Itoa(status) + " " + http.StatusText(status),
		Body:          io.NopCloser(bytes.NewReader(body)),
		Header:        h,
		ContentLength: int64(len(body)),
	}
}

// PNG returns a valid 1x1 PNG image.
func PNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
