// Package e2e drives a running patient service over HTTP with godog.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext carries HTTP state across the steps of one scenario.
type TestContext struct {
	BaseURL string
	Token   string
	client  *http.Client

	lastStatus int
	lastBody   []byte
	saved      map[string]string
}

func NewTestContext(baseURL, token string) *TestContext {
	return &TestContext{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
		saved:   map[string]string{},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.saved = map[string]string{}
}

func (tc *TestContext) do(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, tc.BaseURL+tc.Expand(path), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tc.Token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.Token)
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) GET(path string) error           { return tc.do(http.MethodGet, path, nil) }
func (tc *TestContext) POST(path string, body any) error { return tc.do(http.MethodPost, path, body) }
func (tc *TestContext) PUT(path string, body any) error  { return tc.do(http.MethodPut, path, body) }
func (tc *TestContext) DELETE(path string) error        { return tc.do(http.MethodDelete, path, nil) }

func (tc *TestContext) LastStatus() int { return tc.lastStatus }

// ResponseField resolves a dotted path such as "billing.status".
func (tc *TestContext) ResponseField(path string) (any, error) {
	var doc any
	if err := json.Unmarshal(tc.lastBody, &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w (%s)", err, tc.lastBody)
	}
	cur := doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", path, part)
		}
		if cur, ok = m[part]; !ok {
			return nil, fmt.Errorf("field %q not found in %s", path, tc.lastBody)
		}
	}
	return cur, nil
}

func (tc *TestContext) Save(name, value string) { tc.saved[name] = value }

// Expand replaces {name} placeholders with saved values.
func (tc *TestContext) Expand(s string) string {
	for k, v := range tc.saved {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}
