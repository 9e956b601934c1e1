package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// UpstashOption customizes UpstashRedisStore.
type UpstashOption func(*UpstashRedisStore)

func WithHTTPClient(client *http.Client) UpstashOption {
	return func(s *UpstashRedisStore) {
		if client != nil {
			s.httpClient = client
		}
	}
}

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// UpstashRedisStore keeps session logs in Upstash Redis through its REST API.
type UpstashRedisStore struct {
	httpClient *http.Client
	client     *resty.Client
}

var _ ListStore = (*UpstashRedisStore)(nil)

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

func NewUpstashRedisStore(cfg UpstashRedisConfig, opts ...UpstashOption) (*UpstashRedisStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	store := &UpstashRedisStore{}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	if store.httpClient != nil {
		store.client = resty.NewWithClient(store.httpClient)
	} else {
		store.client = resty.New()
	}
	store.client.
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return store, nil
}

func (s *UpstashRedisStore) Append(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if ttl <= 0 {
		_, err := s.exec(ctx, []any{"RPUSH", key, string(value)})
		return err
	}

	// MULTI/EXEC keeps the push and the expiry reset together.
	results, err := s.transaction(ctx, [][]any{
		{"RPUSH", key, string(value)},
		{"EXPIRE", key, ttlSeconds(ttl)},
	})
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Error != "" {
			return fmt.Errorf("upstash append %s: %s", key, r.Error)
		}
	}
	return nil
}

func (s *UpstashRedisStore) Range(ctx context.Context, key string) ([][]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	resp, err := s.exec(ctx, []any{"LRANGE", key, 0, -1})
	if err != nil {
		return nil, err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, nil
	}

	var items []string
	if err := json.Unmarshal(result, &items); err != nil {
		return nil, fmt.Errorf("decode lrange result: %w", err)
	}
	out := make([][]byte, 0, len(items))
	for _, item := range items {
		out = append(out, []byte(item))
	}
	return out, nil
}

func (s *UpstashRedisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := s.exec(ctx, []any{"DEL", key})
	return err
}

func (s *UpstashRedisStore) Len(ctx context.Context, key string) (int64, error) {
	if key == "" {
		return 0, ErrEmptyKey
	}
	resp, err := s.exec(ctx, []any{"LLEN", key})
	if err != nil {
		return 0, err
	}
	var n int64
	if err := json.Unmarshal(resp.Result, &n); err != nil {
		return 0, fmt.Errorf("decode llen result: %w", err)
	}
	return n, nil
}

func (s *UpstashRedisStore) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("nil store")
	}
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}

	var parsed redisRESTResponse
	if err := s.post(ctx, "/", command, &parsed); err != nil {
		return nil, err
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

func (s *UpstashRedisStore) transaction(ctx context.Context, commands [][]any) ([]redisRESTResponse, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("nil store")
	}
	var parsed []redisRESTResponse
	if err := s.post(ctx, "/multi-exec", commands, &parsed); err != nil {
		return nil, err
	}
	if len(parsed) != len(commands) {
		return nil, fmt.Errorf("redis transaction returned %d results for %d commands", len(parsed), len(commands))
	}
	return parsed, nil
}

func (s *UpstashRedisStore) post(ctx context.Context, path string, body any, out any) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		return fmt.Errorf("execute redis request: %w", err)
	}

	raw := resp.Body()
	if len(raw) > maxResponseSizeBytes {
		return fmt.Errorf("redis response exceeds %d bytes", maxResponseSizeBytes)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return fmt.Errorf("redis http status=%d body=%s", resp.StatusCode(), string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode redis response: %w", err)
	}
	return nil
}
