package ozon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hetulpatel/lotbidder/internal/bidding"
	"github.com/hetulpatel/lotbidder/internal/logging"
	"github.com/hetulpatel/lotbidder/internal/session"
)

const (
	defaultBaseURL = "https://tms.ozon.ru/graphql-decorator.lpp/gql"
	defaultTimeout = 30 * time.Second
)

// StatusError is returned for non-200 responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ozon API status %d: %s", e.Code, e.Body)
}

// Unauthorized reports whether the session cookies were rejected.
func (e *StatusError) Unauthorized() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}

// CookieSource supplies the authenticated session for each request.
type CookieSource interface {
	Cookies(ctx context.Context) (session.CookieSet, error)
	Invalidate(ctx context.Context) error
}

// Client queries the TMS GraphQL gateway for bidding lots.
type Client struct {
	baseURL    string
	cookies    CookieSource
	httpClient *http.Client
	log        logging.Logger
}

// Config provides optional overrides.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  logging.Logger
}

// NewClient builds a configured GraphQL client.
func NewClient(cfg Config, cookies CookieSource) *Client {
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
		cookies: cookies,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

func (c *Client) Name() string {
	return "ozon"
}

type graphQLRequest struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Query         string         `json:"query"`
}

type lotsResponse struct {
	Data *struct {
		Lots []json.RawMessage `json:"Lots"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// FetchLots runs the BiddingsList query. Rejected cookies are invalidated so
// the next call acquires a fresh session.
func (c *Client) FetchLots(ctx context.Context, filter bidding.LotFilter) ([]bidding.Lot, error) {
	jar, err := c.cookies.Cookies(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	body, err := json.Marshal(graphQLRequest{
		OperationName: biddingsListOperation,
		Variables:     map[string]any{"filter": filter},
		Query:         biddingsListQuery,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range jar.HTTPCookies() {
		req.AddCookie(ck)
	}

	var out lotsResponse
	if err := c.do(req, &out); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Unauthorized() {
			if ierr := c.cookies.Invalidate(ctx); ierr != nil {
				c.log.Warnf("[ozon] invalidate session: %v", ierr)
			}
		}
		return nil, err
	}

	if out.Data == nil {
		if len(out.Errors) > 0 {
			return nil, fmt.Errorf("graphql: %s", joinErrors(out.Errors))
		}
		return nil, fmt.Errorf("graphql: response has no data")
	}
	if len(out.Errors) > 0 {
		c.log.Warnf("[ozon] partial response: %s", joinErrors(out.Errors))
	}
	lots := bidding.DecodeLots(out.Data.Lots)
	for _, lot := range lots {
		if lot.DecodeErr != nil {
			c.log.Warnf("[ozon] lot %q is malformed: %v", string(lot.ID), lot.DecodeErr)
		}
	}
	c.log.Infof("[ozon] fetched %d lots", len(lots))
	return lots, nil
}

func (c *Client) do(req *http.Request, dst any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ozon request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode ozon response: %w", err)
	}
	return nil
}

func joinErrors(errs []graphQLError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}
