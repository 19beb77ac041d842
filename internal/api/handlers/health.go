package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const (
	checkPass = "pass"
	checkWarn = "warn"
	checkFail = "fail"

	healthTimeout = 5 * time.Second
	queryTimeout  = 2 * time.Second
)

// HealthCheck is the /health body.
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// HealthChecker backs /health with checks on the database, the schema
// version and the upload directory.
type HealthChecker struct {
	pool      *pgxpool.Pool
	uploadDir string
	version   string
	gitCommit string
}

func NewHealthChecker(pool *pgxpool.Pool, uploadDir, version, gitCommit string) *HealthChecker {
	return &HealthChecker{pool: pool, uploadDir: uploadDir, version: version, gitCommit: gitCommit}
}

// Health runs every check concurrently. Any fail answers 503; a warn only
// degrades the status.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Context().Err() != nil {
			respondHealth(w, http.StatusServiceUnavailable, "shutting_down")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		checks := h.runChecks(ctx, map[string]func(context.Context) CheckResult{
			"database":   h.checkDatabase,
			"migrations": h.checkMigrations,
			"uploads":    func(context.Context) CheckResult { return h.checkUploads() },
		})
		status, code := summarize(checks)

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(HealthCheck{
			Status:    status,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func (h *HealthChecker) runChecks(ctx context.Context, fns map[string]func(context.Context) CheckResult) map[string]CheckResult {
	var (
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(fns))
		g       errgroup.Group
	)
	for name, fn := range fns {
		g.Go(func() error {
			start := time.Now()
			res := fn(ctx)
			if res.LatencyMs == 0 {
				res.LatencyMs = time.Since(start).Milliseconds()
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// summarize folds check results: any fail is unhealthy, any warn degraded.
func summarize(checks map[string]CheckResult) (string, int) {
	degraded := false
	for _, c := range checks {
		switch c.Status {
		case checkFail:
			return "unhealthy", http.StatusServiceUnavailable
		case checkWarn:
			degraded = true
		}
	}
	if degraded {
		return "degraded", http.StatusOK
	}
	return "healthy", http.StatusOK
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	if h.pool == nil {
		return CheckResult{
			Status:  checkFail,
			Message: "database pool not initialized",
			Details: map[string]any{"hint": "set DATABASE_URL and make sure PostgreSQL is reachable"},
		}
	}

	qctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	start := time.Now()
	var one int
	err := h.pool.QueryRow(qctx, "SELECT 1").Scan(&one)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return CheckResult{
			Status:    checkFail,
			Message:   describeDBError(err),
			LatencyMs: latency,
			Details:   map[string]any{"error": err.Error()},
		}
	}

	stat := h.pool.Stat()
	return CheckResult{
		Status:    checkPass,
		Message:   "postgres reachable",
		LatencyMs: latency,
		Details: map[string]any{
			"acquired": stat.AcquiredConns(),
			"idle":     stat.IdleConns(),
			"total":    stat.TotalConns(),
			"max":      stat.MaxConns(),
		},
	}
}

func describeDBError(err error) string {
	var (
		pgErr   *pgconn.PgError
		connErr *pgconn.ConnectError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("database did not answer within %s", queryTimeout)
	case errors.As(err, &pgErr) && pgErr.Code == "28P01":
		return "database authentication failed"
	case errors.As(err, &connErr):
		return "database connection failed"
	default:
		return "database query failed"
	}
}

// checkMigrations reads golang-migrate's bookkeeping table. A dirty schema
// fails because the API may be running against a half-applied migration.
func (h *HealthChecker) checkMigrations(ctx context.Context) CheckResult {
	if h.pool == nil {
		return CheckResult{Status: checkFail, Message: "database pool not initialized"}
	}

	qctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		version int64
		dirty   bool
	)
	err := h.pool.QueryRow(qctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == "42P01", errors.Is(err, pgx.ErrNoRows):
		return CheckResult{
			Status:  checkFail,
			Message: "no migrations applied",
			Details: map[string]any{"hint": "run: server migrate up"},
		}
	case err != nil:
		return CheckResult{
			Status:  checkFail,
			Message: "schema version unreadable",
			Details: map[string]any{"error": err.Error()},
		}
	case dirty:
		return CheckResult{
			Status:  checkFail,
			Message: fmt.Sprintf("schema version %d is dirty; fix it before migrating again", version),
			Details: map[string]any{"version": version, "dirty": true},
		}
	}

	return CheckResult{
		Status:  checkPass,
		Message: fmt.Sprintf("schema at version %d", version),
		Details: map[string]any{"version": version, "dirty": false},
	}
}

// checkUploads warns rather than fails: reads keep working without a
// writable upload directory.
func (h *HealthChecker) checkUploads() CheckResult {
	warn := func(msg string, err error) CheckResult {
		res := CheckResult{Status: checkWarn, Message: msg}
		if err != nil {
			res.Details = map[string]any{"error": err.Error()}
		}
		return res
	}

	if h.uploadDir == "" {
		return warn("upload directory not configured", nil)
	}
	info, err := os.Stat(h.uploadDir)
	if err != nil {
		return warn("upload directory not accessible", err)
	}
	if !info.IsDir() {
		return warn("upload path is not a directory", nil)
	}

	probe, err := os.CreateTemp(h.uploadDir, ".healthcheck-*")
	if err != nil {
		return warn("upload directory not writable", err)
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	return CheckResult{
		Status:  checkPass,
		Message: "upload directory writable",
		Details: map[string]any{"path": filepath.Clean(h.uploadDir)},
	}
}

// Pinger is satisfied by *pgxpool.Pool and the storage repository.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthz is the liveness probe; it never touches dependencies.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondHealth(w, http.StatusOK, "ok")
	})
}

// Readyz reports ready once the database answers a ping.
func Readyz(db Pinger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			respondHealth(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			respondHealth(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		respondHealth(w, http.StatusOK, "ready")
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

func respondHealth(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(healthResponse{Status: status})
}
