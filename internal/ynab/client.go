// Package ynab provides a read-only client for the YNAB budgeting API.
package ynab

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/budgetlens/budgetlens/internal/model"
)

const (
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://api.ynab.com/v1"

	requestTimeout = 15 * time.Second
	maxBodySize    = 64 << 20 // 64 MB
	maxErrorBody   = 2 << 10
)

var (
	// ErrUnauthorized indicates the token is expired or invalid.
	ErrUnauthorized = errors.New("ynab: unauthorized (token expired or invalid)")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("ynab: rate limited")
	// ErrNotFound indicates the budget or entity does not exist.
	ErrNotFound = errors.New("ynab: not found")
	// ErrMissingToken is returned before any request when no token is given.
	ErrMissingToken = errors.New("ynab: token is required")
	// ErrResponseTooLarge indicates a response body over the client's limit.
	ErrResponseTooLarge = errors.New("ynab: response too large")
)

// FetchError is a non-success response from the API.
type FetchError struct {
	Endpoint string
	Status   int
	Body     string
	Detail   string
	err      error
}

func (e *FetchError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("ynab: %s returned %d: %s", e.Endpoint, e.Status, e.Detail)
	}
	return fmt.Sprintf("ynab: %s returned %d", e.Endpoint, e.Status)
}

// Unwrap exposes the status sentinel, if any.
func (e *FetchError) Unwrap() error { return e.err }

// ResponseCache stores raw response bodies. Keys are derived from the token
// and request path.
type ResponseCache interface {
	Get(key string) ([]byte, bool, error)
	Put(key, endpoint string, body []byte, ttl time.Duration) error
}

// Client fetches budget data. It holds no token; every call takes one.
type Client struct {
	baseURL   string
	http      *http.Client
	cache     ResponseCache
	cacheTTL  time.Duration
	userAgent string
	maxBody   int64
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithCache serves repeated reads from cache for ttl.
func WithCache(cache ResponseCache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithMaxBodySize caps how many bytes of a success response are read.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// NewClient creates a client for the production API unless overridden.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		http:      &http.Client{},
		userAgent: "budgetlens/1.0",
		maxBody:   maxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// User returns the owner of the token.
func (c *Client) User(ctx context.Context, token string) (model.User, error) {
	var data userData
	err := c.fetch(ctx, token, "/user", "user", &data)
	return data.User, err
}

// Budgets lists the budgets the token can read.
func (c *Client) Budgets(ctx context.Context, token string) ([]model.BudgetSummary, error) {
	var data budgetsData
	err := c.fetch(ctx, token, "/budgets", "budgets", &data)
	return data.Budgets, err
}

// Accounts lists the accounts of a budget.
func (c *Client) Accounts(ctx context.Context, token, budgetID string) ([]model.Account, error) {
	var data accountsData
	err := c.fetch(ctx, token, budgetPath(budgetID, "accounts"), "accounts", &data)
	return data.Accounts, err
}

// CategoryGroups lists category groups with their categories.
func (c *Client) CategoryGroups(ctx context.Context, token, budgetID string) ([]model.CategoryGroup, error) {
	var data categoriesData
	err := c.fetch(ctx, token, budgetPath(budgetID, "categories"), "categories", &data)
	return data.CategoryGroups, err
}

// Payees lists the payees of a budget.
func (c *Client) Payees(ctx context.Context, token, budgetID string) ([]model.Payee, error) {
	var data payeesData
	err := c.fetch(ctx, token, budgetPath(budgetID, "payees"), "payees", &data)
	return data.Payees, err
}

// Months lists the budget months.
func (c *Client) Months(ctx context.Context, token, budgetID string) ([]model.MonthDetail, error) {
	var data monthsData
	err := c.fetch(ctx, token, budgetPath(budgetID, "months"), "months", &data)
	return data.Months, err
}

// MonthTransactions lists the transactions of one month. month is any date
// inside it.
func (c *Client) MonthTransactions(ctx context.Context, token, budgetID string, month time.Time) ([]model.Transaction, error) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC).Format(model.DateLayout)
	var data transactionsData
	err := c.fetch(ctx, token, budgetPath(budgetID, "months", first, "transactions"), "month transactions", &data)
	return data.Transactions, err
}

// TransactionsSince lists transactions dated on or after since.
func (c *Client) TransactionsSince(ctx context.Context, token, budgetID string, since time.Time) ([]model.Transaction, error) {
	q := url.Values{"since_date": {since.Format(model.DateLayout)}}
	var data transactionsData
	err := c.fetch(ctx, token, budgetPath(budgetID, "transactions")+"?"+q.Encode(), "transactions", &data)
	return data.Transactions, err
}

// CategoryTransactions lists the flat transaction feed of one category.
func (c *Client) CategoryTransactions(ctx context.Context, token, budgetID, categoryID string) ([]model.Transaction, error) {
	var data transactionsData
	err := c.fetch(ctx, token, budgetPath(budgetID, "categories", categoryID, "transactions"), "category transactions", &data)
	return data.Transactions, err
}

// PayeeTransactions lists the flat transaction feed of one payee.
func (c *Client) PayeeTransactions(ctx context.Context, token, budgetID, payeeID string) ([]model.Transaction, error) {
	var data transactionsData
	err := c.fetch(ctx, token, budgetPath(budgetID, "payees", payeeID, "transactions"), "payee transactions", &data)
	return data.Transactions, err
}

// AccountTransactions lists the transactions of one account.
func (c *Client) AccountTransactions(ctx context.Context, token, budgetID, accountID string) ([]model.Transaction, error) {
	var data transactionsData
	err := c.fetch(ctx, token, budgetPath(budgetID, "accounts", accountID, "transactions"), "account transactions", &data)
	return data.Transactions, err
}

// ScheduledTransactions lists the scheduled transactions of a budget.
func (c *Client) ScheduledTransactions(ctx context.Context, token, budgetID string) ([]model.ScheduledTransaction, error) {
	var data scheduledData
	err := c.fetch(ctx, token, budgetPath(budgetID, "scheduled_transactions"), "scheduled transactions", &data)
	return data.ScheduledTransactions, err
}

// fetch reads path, from cache when possible, and decodes the data envelope into out.
func (c *Client) fetch(ctx context.Context, token, path, what string, out any) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrMissingToken
	}

	key := CacheKey(token, path)
	if c.cache != nil {
		if body, ok, err := c.cache.Get(key); err == nil && ok {
			if err := decode(body, out); err == nil {
				return nil
			}
		}
	}

	body, err := c.get(ctx, token, path)
	if err != nil {
		return err
	}
	if err := decode(body, out); err != nil {
		return fmt.Errorf("ynab: parsing %s: %w", what, err)
	}

	if c.cache != nil && c.cacheTTL > 0 {
		_ = c.cache.Put(key, path, body, c.cacheTTL)
	}
	return nil
}

// get performs an authenticated GET request and returns the response body.
func (c *Client) get(ctx context.Context, token, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("ynab: creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	//nolint:gosec // URL is built from the configured base URL
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ynab: request %s failed: %w", endpointName(path), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		fe := &FetchError{
			Endpoint: endpointName(path),
			Status:   resp.StatusCode,
			Body:     string(body),
			Detail:   errorDetail(body),
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			fe.err = ErrUnauthorized
		case http.StatusTooManyRequests:
			fe.err = ErrRateLimited
		case http.StatusNotFound:
			fe.err = ErrNotFound
		}
		return nil, fe
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("ynab: reading response: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrResponseTooLarge, endpointName(path), c.maxBody)
	}
	return body, nil
}

// CacheKey derives a response cache key from the token and request path.
// The token itself is never stored.
func CacheKey(token, path string) string {
	sum := sha256.Sum256([]byte(token + "\x00" + path))
	return hex.EncodeToString(sum[:])
}

func decode(body []byte, out any) error {
	env := envelope{Data: out}
	return json.Unmarshal(body, &env)
}

func budgetPath(budgetID string, parts ...string) string {
	var b strings.Builder
	b.WriteString("/budgets/")
	b.WriteString(url.PathEscape(budgetID))
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

// endpointName strips the query string for logs and errors.
func endpointName(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

// errorDetail extracts the human message from an API error body.
func errorDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if eb.Error.Detail != "" {
		return eb.Error.Detail
	}
	return eb.Error.Name
}
