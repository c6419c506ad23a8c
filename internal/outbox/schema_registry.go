package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const registryContentType = "application/vnd.schemaregistry.v1+json"

var errSubjectNotFound = errors.New("schema subject not found")

// RegistryError is a non-success response from the schema registry.
type RegistryError struct {
	Op      string
	Subject string
	Status  int
	Body    string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("schema registry %s %s: status %d: %s", e.Op, e.Subject, e.Status, e.Body)
}

// SchemaRegistryClient registers the JSON schemas of published events with Confluent Schema Registry.
type SchemaRegistryClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSchemaRegistryClient constructs a client with a 10s request timeout.
func NewSchemaRegistryClient(baseURL string) *SchemaRegistryClient {
	return &SchemaRegistryClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// EnsureSchema returns the id of schema under subject. The latest version is reused when it carries
// the same schema; a missing subject or a changed schema registers a new version.
func (c *SchemaRegistryClient) EnsureSchema(ctx context.Context, subject string, schema string) (int, error) {
	latest, err := c.latest(ctx, subject)
	switch {
	case err == nil && sameSchema(latest.Schema, schema):
		return latest.ID, nil
	case err != nil && !errors.Is(err, errSubjectNotFound):
		return 0, err
	}
	return c.register(ctx, subject, schema)
}

type subjectVersion struct {
	ID      int    `json:"id"`
	Version int    `json:"version"`
	Schema  string `json:"schema"`
}

func (c *SchemaRegistryClient) latest(ctx context.Context, subject string) (subjectVersion, error) {
	var out subjectVersion
	err := c.do(ctx, http.MethodGet, "lookup", subject, "/versions/latest", nil, &out)
	return out, err
}

func (c *SchemaRegistryClient) register(ctx context.Context, subject string, schema string) (int, error) {
	body, err := json.Marshal(map[string]any{
		"schemaType": "JSON",
		"schema":     schema,
	})
	if err != nil {
		return 0, err
	}

	var out struct {
		ID int `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "register", subject, "/versions", body, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *SchemaRegistryClient) do(ctx context.Context, method, op, subject, suffix string, body []byte, dst any) error {
	endpoint := c.baseURL + "/subjects/" + url.PathEscape(subject) + suffix

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", registryContentType)
	if body != nil {
		req.Header.Set("Content-Type", registryContentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("schema registry %s %s: %w", op, subject, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && method == http.MethodGet {
		return fmt.Errorf("%s: %w", subject, errSubjectNotFound)
	}
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &RegistryError{Op: op, Subject: subject, Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// sameSchema compares two JSON schema documents ignoring insignificant whitespace.
func sameSchema(a, b string) bool {
	var ca, cb bytes.Buffer
	if json.Compact(&ca, []byte(a)) != nil || json.Compact(&cb, []byte(b)) != nil {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
