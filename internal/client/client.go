package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNotFound is returned when the server has no value for the request
var ErrNotFound = errors.New("not found")

// Config holds the connection settings for a Client
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to a nodestore HTTP server
type Client struct {
	base string
	http *http.Client
}

// ScoredMember is a sorted set member with its score
type ScoredMember struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

// New creates a client for cfg.BaseURL
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		base: cfg.BaseURL,
		http: &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx response other than 404
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Detail: e.Detail}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func keyQuery(key string) url.Values {
	return url.Values{"key": []string{key}}
}

func rangeQuery(key string, start, end int) url.Values {
	q := keyQuery(key)
	q.Set("start", strconv.Itoa(start))
	q.Set("end", strconv.Itoa(end))
	return q
}

// Ping checks the server health endpoint
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

// Set stores a string value
func (c *Client) Set(ctx context.Context, key, value string) error {
	return c.do(ctx, http.MethodPost, "/string/", nil, map[string]string{"key": key, "value": value}, nil)
}

// Get returns a string value or ErrNotFound
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	var out struct {
		Value string `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, "/string/", keyQuery(key), nil, &out); err != nil {
		return "", err
	}
	return out.Value, nil
}

// Del deletes key and returns how many keys were removed
func (c *Client) Del(ctx context.Context, key string) (int, error) {
	var out struct {
		Deleted int `json:"deleted"`
	}
	err := c.do(ctx, http.MethodDelete, "/key/", keyQuery(key), nil, &out)
	return out.Deleted, err
}

// Type returns the type name held by key
func (c *Client) Type(ctx context.Context, key string) (string, error) {
	var out struct {
		Type string `json:"type"`
	}
	err := c.do(ctx, http.MethodGet, "/key/type", keyQuery(key), nil, &out)
	return out.Type, err
}

func (c *Client) push(ctx context.Context, path, key string, values []string) (int, error) {
	var out struct {
		Size int `json:"size"`
	}
	err := c.do(ctx, http.MethodPost, path, nil, map[string]interface{}{"key": key, "values": values}, &out)
	return out.Size, err
}

// LPush inserts values at the head of a list and returns its new length
func (c *Client) LPush(ctx context.Context, key string, values ...string) (int, error) {
	return c.push(ctx, "/list/lpush/", key, values)
}

// RPush appends values to a list and returns its new length
func (c *Client) RPush(ctx context.Context, key string, values ...string) (int, error) {
	return c.push(ctx, "/list/rpush/", key, values)
}

// LRange returns list elements start..end inclusive
func (c *Client) LRange(ctx context.Context, key string, start, end int) ([]string, error) {
	var out struct {
		Values []string `json:"values"`
	}
	err := c.do(ctx, http.MethodGet, "/list/", rangeQuery(key, start, end), nil, &out)
	return out.Values, err
}

// SAdd adds set members and returns how many were new
func (c *Client) SAdd(ctx context.Context, key string, members ...string) (int, error) {
	var out struct {
		Added int `json:"added"`
	}
	err := c.do(ctx, http.MethodPost, "/set/", nil, map[string]interface{}{"key": key, "members": members}, &out)
	return out.Added, err
}

// SMembers returns every member of a set
func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	var out struct {
		Members []string `json:"members"`
	}
	err := c.do(ctx, http.MethodGet, "/set/", keyQuery(key), nil, &out)
	return out.Members, err
}

// HSet sets a single hash field and returns 1 if it was new
func (c *Client) HSet(ctx context.Context, key, field, value string) (int, error) {
	return c.hset(ctx, map[string]interface{}{"key": key, "field": field, "value": value})
}

// HSetFields sets several hash fields and returns how many were new
func (c *Client) HSetFields(ctx context.Context, key string, fields map[string]string) (int, error) {
	return c.hset(ctx, map[string]interface{}{"key": key, "fields": fields})
}

func (c *Client) hset(ctx context.Context, body map[string]interface{}) (int, error) {
	var out struct {
		Created int `json:"created"`
	}
	err := c.do(ctx, http.MethodPost, "/hash/", nil, body, &out)
	return out.Created, err
}

// HGet returns one hash field or ErrNotFound
func (c *Client) HGet(ctx context.Context, key, field string) (string, error) {
	q := keyQuery(key)
	q.Set("field", field)
	var out struct {
		Value string `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, "/hash/", q, nil, &out); err != nil {
		return "", err
	}
	return out.Value, nil
}

// HGetAll returns every field of a hash
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	out := map[string]string{}
	err := c.do(ctx, http.MethodGet, "/hash/", keyQuery(key), nil, &out)
	return out, err
}

// ZAdd upserts sorted set members and returns how many were new
func (c *Client) ZAdd(ctx context.Context, key string, members map[string]float64) (int, error) {
	var out struct {
		Added int `json:"added"`
	}
	err := c.do(ctx, http.MethodPost, "/zset/", nil, map[string]interface{}{"key": key, "members": members}, &out)
	return out.Added, err
}

// ZRange returns sorted set members start..end inclusive by ascending score
func (c *Client) ZRange(ctx context.Context, key string, start, end int) ([]string, error) {
	q := rangeQuery(key, start, end)
	q.Set("withscores", "false")
	var out struct {
		Members []string `json:"members"`
	}
	err := c.do(ctx, http.MethodGet, "/zset/", q, nil, &out)
	return out.Members, err
}

// ZRangeWithScores is ZRange with each member's score
func (c *Client) ZRangeWithScores(ctx context.Context, key string, start, end int) ([]ScoredMember, error) {
	q := rangeQuery(key, start, end)
	q.Set("withscores", "true")
	var out []ScoredMember
	err := c.do(ctx, http.MethodGet, "/zset/", q, nil, &out)
	return out, err
}
