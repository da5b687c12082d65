package ati

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hetulpatel/lotbidder/internal/bidding"
	"github.com/hetulpatel/lotbidder/internal/logging"
)

const (
	defaultBaseURL = "https://api.ati.su/v1.0/dictionaries/locations/parse"
	defaultTimeout = 15 * time.Second
)

// StatusError is returned for non-200 responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ati API status %d: %s", e.Code, e.Body)
}

// Client talks to the ATI location parsing API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        logging.Logger
}

// Config provides optional overrides.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Logger  logging.Logger
}

// NewClient builds a configured ATI client.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Client{
		baseURL: base,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type locationResponse map[string]locationEntry

type locationEntry struct {
	IsSuccess bool               `json:"is_success"`
	CityID    bidding.FlexString `json:"city_id"`
	Street    string             `json:"street"`
}

// Locate posts the addresses as a JSON array and returns the per-address result.
// Addresses missing from the response are absent from the returned map.
func (c *Client) Locate(ctx context.Context, addresses []string) (map[string]bidding.LookupResult, error) {
	body, err := json.Marshal(addresses)
	if err != nil {
		return nil, fmt.Errorf("marshal addresses: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	var decoded locationResponse
	if err := c.do(req, &decoded); err != nil {
		return nil, err
	}
	c.log.Infof("[ati] resolved batch of %d addresses", len(addresses))

	out := make(map[string]bidding.LookupResult, len(decoded))
	for addr, entry := range decoded {
		out[addr] = bidding.LookupResult{
			IsSuccess: entry.IsSuccess,
			CityID:    string(entry.CityID),
			Street:    entry.Street,
		}
	}
	return out, nil
}

func (c *Client) do(req *http.Request, dst any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ati request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode ati response: %w", err)
	}
	return nil
}
