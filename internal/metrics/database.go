package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	// DBPoolConnections reports pgxpool connection counts by state.
	DBPoolConnections = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_connections",
			Help:      "Database pool connections by state (total, acquired, idle, max)",
		},
		[]string{"state"},
	)

	// ContentItems reports stored rows per content kind. Media rows carry
	// their file type so featured slot usage is visible.
	ContentItems = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "content_items",
			Help:      "Stored content rows by kind",
		},
		[]string{"kind"},
	)

	dbCollectErrors = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_collect_errors_total",
			Help:      "Failed content count queries",
		},
	)
)

const contentCountsQuery = `
SELECT 'administration', count(*) FROM royal_administration
UNION ALL
SELECT 'administration_active', count(*) FROM royal_administration WHERE is_active
UNION ALL
SELECT 'updates', count(*) FROM app_updates
UNION ALL
SELECT 'admins', count(*) FROM admin_users
UNION ALL
SELECT 'media_' || lower(file_type), count(*) FROM media_files GROUP BY file_type`

// DBCollector samples pool statistics and content counts on an interval.
type DBCollector struct {
	pool     *pgxpool.Pool
	logger   zerolog.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

func NewDBCollector(pool *pgxpool.Pool, logger zerolog.Logger) *DBCollector {
	return &DBCollector{
		pool:   pool,
		logger: logger.With().Str("component", "db_collector").Logger(),
		stop:   make(chan struct{}),
	}
}

// Start blocks, sampling immediately and then every interval, until ctx is
// done or Stop is called.
func (c *DBCollector) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.collect(ctx)
	for {
		select {
		case <-ticker.C:
			c.collect(ctx)
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *DBCollector) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *DBCollector) collect(ctx context.Context) {
	if c.pool == nil {
		return
	}

	stat := c.pool.Stat()
	DBPoolConnections.WithLabelValues("total").Set(float64(stat.TotalConns()))
	DBPoolConnections.WithLabelValues("acquired").Set(float64(stat.AcquiredConns()))
	DBPoolConnections.WithLabelValues("idle").Set(float64(stat.IdleConns()))
	DBPoolConnections.WithLabelValues("max").Set(float64(stat.MaxConns()))

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := c.pool.Query(queryCtx, contentCountsQuery)
	if err != nil {
		dbCollectErrors.Inc()
		c.logger.Warn().Err(err).Msg("content count query failed")
		return
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind  string
			count int64
		)
		if err := rows.Scan(&kind, &count); err != nil {
			dbCollectErrors.Inc()
			c.logger.Warn().Err(err).Msg("content count scan failed")
			return
		}
		ContentItems.WithLabelValues(kind).Set(float64(count))
	}
	if err := rows.Err(); err != nil {
		dbCollectErrors.Inc()
		c.logger.Warn().Err(err).Msg("content count rows failed")
	}
}
