// Package server exposes the dashboard analytics over HTTP.
package server

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
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/budgetlens/budgetlens/internal/cache"
	"github.com/budgetlens/budgetlens/internal/dashboard"
	"github.com/budgetlens/budgetlens/internal/model"
	"github.com/budgetlens/budgetlens/internal/ynab"
)

const (
	maxTokenBody  = 64 << 10
	defaultTrend  = 12
	maxTrendMonth = 60
)

// Config controls the HTTP server.
type Config struct {
	Addr     string
	MemoSize int
	MemoTTL  time.Duration
}

// Status is served at /v1/status.
type Status struct {
	StartedAt   time.Time `json:"started_at"`
	Requests    int64     `json:"requests"`
	Failures    int64     `json:"failures"`
	MemoEntries int       `json:"memo_entries"`
	MemoHits    int64     `json:"memo_hits"`
	MemoMisses  int64     `json:"memo_misses"`
	LastError   string    `json:"last_error,omitempty"`
}

// Server serves the analytics API. Computed payloads are memoized per token
// and request for MemoTTL.
type Server struct {
	cfg  Config
	svc  *dashboard.Service
	memo *cache.LRU[[]byte]
	log  zerolog.Logger
	now  func() time.Time

	mu        sync.RWMutex
	startedAt time.Time
	requests  int64
	failures  int64
	lastError string
}

// New returns a server over svc.
func New(svc *dashboard.Service, cfg Config, log zerolog.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.MemoSize < 1 {
		cfg.MemoSize = 256
	}
	if cfg.MemoTTL <= 0 {
		cfg.MemoTTL = time.Hour
	}
	return &Server{
		cfg:       cfg,
		svc:       svc,
		memo:      cache.NewLRU[[]byte](cfg.MemoSize, cfg.MemoTTL),
		log:       log,
		now:       time.Now,
		startedAt: time.Now(),
	}
}

// Handler returns the routed API with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(s.log))
	r.Use(Recovery(s.log))
	r.Use(CORS)

	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/status", s.handleStatus)

	r.Route("/api/ynab", func(r chi.Router) {
		r.Get("/budgets", s.handleBudgets)
		r.Post("/budgets", s.handleBudgets)

		r.Route("/{budgetId}", func(r chi.Router) {
			get := func(pattern string, h http.HandlerFunc) {
				r.Get(pattern, h)
				r.Post(pattern, h)
			}
			get("/transactions/monthly", s.handleMonthly)
			get("/summary", s.handleSummary)
			get("/trend", s.handleTrend)
			get("/categories", s.handleCategories)
			get("/categories/{categoryId}/transactions", s.handleCategoryTransactions)
			get("/payees", s.handlePayees)
			get("/payees/{payeeId}/transactions", s.handlePayeeTransactions)
			get("/accounts", s.handleAccounts)
			get("/accounts/{accountId}/transactions", s.handleAccountTransactions)
			get("/scheduled", s.handleScheduled)
			get("/age-of-money", s.handleAgeOfMoney)
		})
	})
	return r
}

// Run serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			if n := s.memo.CleanExpired(); n > 0 {
				s.log.Debug().Int("evicted", n).Msg("memo cleanup")
			}
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, s.status())
}

func (s *Server) status() Status {
	hits, misses := s.memo.Counters()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		StartedAt:   s.startedAt,
		Requests:    s.requests,
		Failures:    s.failures,
		MemoEntries: s.memo.Len(),
		MemoHits:    hits,
		MemoMisses:  misses,
		LastError:   s.lastError,
	}
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	token := requestToken(r)
	s.serve(w, r, token, func(ctx context.Context) (any, error) {
		budgets, err := s.svc.Budgets(ctx, token)
		return map[string][]model.BudgetSummary{"budgets": budgets}, err
	})
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	req := s.request(r)
	month, err := parseMonth(r.URL.Query().Get("month"), s.now())
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.serve(w, r, req.Token, func(ctx context.Context) (any, error) {
		return s.svc.MonthlyTransactions(ctx, req, month)
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	req := s.request(r)
	q := r.URL.Query()
	filter := dashboard.Filter{Payee: q.Get("payee"), Account: q.Get("account")}
	if q.Get("from") != "" || q.Get("to") != "" {
		from, to, err := parseRange(q.Get("from"), q.Get("to"), s.now())
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.serve(w, r, req.Token, func(ctx context.Context) (any, error) {
			return s.svc.RangeSummary(ctx, req, from, to, filter)
		})
		return
	}
	month, err := parseMonth(q.Get("month"), s.now())
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.serve(w, r, req.Token, func(ctx context.Context) (any, error) {
		return s.svc.Summary(ctx, req, month, filter)
	})
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	req := s.request(r)
	months := defaultTrend
	if v := r.URL.Query().Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxTrendMonth {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("months must be between 1 and %d", maxTrendMonth))
			return
		}
		months = n
	}
	s.serve(w, r, req.Token, func(ctx context.Context) (any, error) {
		points, err := s.svc.Trend(ctx, req, months)
		return map[string][]model.TrendPoint{"trend": points}, err
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	req := s.request(r)
	s.serve(w, r, req.Token, func(ctx context.Context) (any, error) {
		groups, err := s.svc.Categories(ctx, req)
		return map[string][]model.CategoryGroup{"category_groups": groups}, err
	})
}

func (s *Server) handleCategoryTransactions(w http.ResponseWriter, r *http.Request) {
	req := s.request(r)
	categoryID := chi.URLParam(r, "categoryId")
	s.serve(w, r, req.Token, func(ctx context.Context) (any, error) {
		return s.svc.CategoryTransactions(ctx, req, categoryID)
	})
}

func (s *Server) handlePayeeTransactions(w http.ResponseWriter, r *http.Request) {
	req := s.request(r)
	payeeID := chi.URLParam(r, "payeeId")
	s.serve(w, r, req.Token, func(ctx context.Context) (any, error) {
		return s.svc.PayeeTransactions(ctx, req, payeeID)
	})
}

func (s *Server) handlePayees(w http.ResponseWriter, r *http.Request) {
	req := s.request(r)
	s.serve(w, r, req.Token, func(ctx context.Context) (any, error) {
		payees, err := s.svc.Payees(ctx, req)
		return map[string][]model.Payee{"payees": payees}, err
	})
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	req := s.request(r)
	s.serve(w, r, req.Token, func(ctx context.Context) (any, error) {
		accounts, err := s.svc.Accounts(ctx, req)
		return map[string][]model.Account{"accounts": accounts}, err
	})
}

func (s *Server) handleAccountTransactions(w http.ResponseWriter, r *http.Request) {
	req := s.request(r)
	accountID := chi.URLParam(r, "accountId")
	s.serve(w, r, req.Token, func(ctx context.Context) (any, error) {
		return s.svc.AccountTransactions(ctx, req, accountID)
	})
}

func (s *Server) handleScheduled(w http.ResponseWriter, r *http.Request) {
	req := s.request(r)
	s.serve(w, r, req.Token, func(ctx context.Context) (any, error) {
		return s.svc.ScheduledTransactions(ctx, req)
	})
}

func (s *Server) handleAgeOfMoney(w http.ResponseWriter, r *http.Request) {
	req := s.request(r)
	s.serve(w, r, req.Token, func(ctx context.Context) (any, error) {
		return s.svc.AgeOfMoney(ctx, req)
	})
}

// serve answers from the memo when possible, otherwise computes, encodes and
// memoizes the payload. Failures are never memoized.
func (s *Server) serve(w http.ResponseWriter, r *http.Request, token string, compute func(context.Context) (any, error)) {
	s.mu.Lock()
	s.requests++
	s.mu.Unlock()

	key := memoKey(r, token)
	if token != "" {
		if body, ok := s.memo.Get(key); ok {
			writeBody(w, body)
			return
		}
	}

	payload, err := compute(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.fail(w, fmt.Errorf("encoding response: %w", err))
		return
	}
	s.memo.Set(key, body)
	writeBody(w, body)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)
	s.mu.Lock()
	s.failures++
	s.lastError = err.Error()
	s.mu.Unlock()
	WriteError(w, status, msg)
}

// errorStatus maps service and upstream errors to an HTTP status and message.
func errorStatus(err error) (int, string) {
	var fe *ynab.FetchError
	switch {
	case errors.Is(err, dashboard.ErrMissingToken), errors.Is(err, ynab.ErrMissingToken):
		return http.StatusBadRequest, "YNAB token is required"
	case errors.Is(err, dashboard.ErrMissingBudget):
		return http.StatusBadRequest, "Budget id is required"
	case errors.Is(err, dashboard.ErrInvalidRange):
		return http.StatusBadRequest, "Date range ends before it starts"
	case errors.Is(err, ynab.ErrUnauthorized):
		return http.StatusUnauthorized, "YNAB rejected the token"
	case errors.Is(err, ynab.ErrRateLimited):
		return http.StatusTooManyRequests, "YNAB rate limit reached"
	case errors.Is(err, ynab.ErrNotFound):
		return http.StatusNotFound, "Not found in YNAB"
	case errors.Is(err, ynab.ErrResponseTooLarge):
		return http.StatusBadGateway, "YNAB response too large, narrow the date range"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "YNAB did not respond in time"
	case errors.As(err, &fe):
		return http.StatusBadGateway, fmt.Sprintf("Failed to fetch data from YNAB (status %d)", fe.Status)
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (s *Server) request(r *http.Request) dashboard.Request {
	return dashboard.Request{
		Token:    requestToken(r),
		BudgetID: chi.URLParam(r, "budgetId"),
	}
}

// requestToken reads the token from the Authorization header, the JSON body
// of a POST, or the token query parameter, in that order.
func requestToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if r.Method == http.MethodPost && r.Body != nil {
		var body struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, maxTokenBody)).Decode(&body); err == nil && body.Token != "" {
			return strings.TrimSpace(body.Token)
		}
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// memoKey hashes the route, the sorted query without the token, and the token.
func memoKey(r *http.Request, token string) string {
	q := r.URL.Query()
	q.Del("token")
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	canon := url.Values{}
	for _, k := range keys {
		canon[k] = q[k]
	}

	sum := sha256.Sum256([]byte(r.URL.Path + "?" + canon.Encode() + "\x00" + token))
	return hex.EncodeToString(sum[:])
}

// parseMonth accepts YYYY-MM or YYYY-MM-DD and defaults to the month of now.
func parseMonth(v string, now time.Time) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	for _, layout := range []string{model.DateLayout, "2006-01"} {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("month %q must be YYYY-MM or YYYY-MM-DD", v)
}

// parseRange reads a YYYY-MM-DD range. A missing to defaults to today.
func parseRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	start, err := time.Parse(model.DateLayout, strings.TrimSpace(from))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("from %q must be YYYY-MM-DD", from)
	}
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if strings.TrimSpace(to) != "" {
		if end, err = time.Parse(model.DateLayout, strings.TrimSpace(to)); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("to %q must be YYYY-MM-DD", to)
		}
	}
	return start, end, nil
}

func writeBody(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}
