package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/riskibarqy/federation-scraper/external/rffm"
	"github.com/riskibarqy/federation-scraper/internal/config"
	"github.com/riskibarqy/federation-scraper/internal/domain/competition"
	"github.com/riskibarqy/federation-scraper/internal/infrastructure/repository/fanout"
	"github.com/riskibarqy/federation-scraper/internal/infrastructure/repository/file"
	"github.com/riskibarqy/federation-scraper/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/federation-scraper/internal/platform/logging"
	"github.com/riskibarqy/federation-scraper/internal/usecase"
)

const (
	maxDBConns = 4
	// Multi-row match inserts get long; spans only keep the head of the statement.
	maxTracedQueryLength = 512
)

// App holds the wired scraper: site client, dataset sinks and the scrape service.
type App struct {
	cfg     config.Config
	logger  *logging.Logger
	client  *rffm.Client
	service *usecase.ScrapeService
	db      *sqlx.DB
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	transport := rffm.NewTransport(rffm.TransportKind(cfg.Transport), cfg.HTTPTimeout, cfg.UserAgent)
	client := rffm.NewClient(rffm.ClientConfig{
		BaseURL:          cfg.BaseURL,
		PayloadElementID: cfg.PayloadElementID,
		MaxRound:         cfg.MaxRound,
		Fetcher:          rffm.NewPageFetcher(transport, cfg.RateLimitBackoff, logger),
		Logger:           logger,
	})

	a := &App{cfg: cfg, logger: logger, client: client}

	var sinks []competition.DatasetRepository
	if cfg.UsesFile() {
		sinks = append(sinks, file.NewDatasetRepository(cfg.OutputDir))
	}
	if cfg.UsesPostgres() {
		db, err := openDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.db = db
		sinks = append(sinks, postgres.NewDatasetRepository(db))
	}
	if len(sinks) == 0 {
		return nil, fmt.Errorf("no dataset sink enabled for SCRAPER_SINK=%q", cfg.Sink)
	}

	a.service = usecase.NewScrapeService(usecase.ScrapeServiceConfig{
		Calendar:    client,
		Matches:     client,
		Repository:  fanout.NewDatasetRepository(sinks...),
		Concurrency: cfg.Concurrency,
		Logger:      logger,
	})

	logger.Info("scraper configured",
		"base_url", cfg.BaseURL,
		"transport", cfg.Transport,
		"sink", cfg.Sink,
		"concurrency", cfg.Concurrency,
		"group_concurrency", cfg.GroupConcurrency,
		"max_round", cfg.MaxRound,
	)
	return a, nil
}

func (a *App) Service() *usecase.ScrapeService {
	return a.service
}

// Run scrapes every requested group of one competition.
func (a *App) Run(ctx context.Context, input usecase.BatchInput) ([]usecase.RunResult, error) {
	if input.MaxParallel <= 0 {
		input.MaxParallel = a.cfg.GroupConcurrency
	}
	results, err := a.service.RunGroups(ctx, input)

	fetcher := a.client.Fetcher()
	a.logger.InfoContext(ctx, "requests sent",
		"attempts", fetcher.Attempts(),
		"rate_limited", fetcher.Throttled(),
	)
	return results, err
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := strings.TrimSpace(cfg.DBURL)
	if dsn == "" {
		return nil, fmt.Errorf("DB_URL is required for the postgres sink")
	}

	db, err := otelsqlx.Open("postgres", normalizeDBURL(dsn, cfg.DBDisablePreparedBinary),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(traceQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(maxDBConns)
	db.SetMaxIdleConns(maxDBConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// traceQuery collapses whitespace so the multi-line upsert reads on one span line.
func traceQuery(query string) string {
	normalized := strings.Join(strings.Fields(query), " ")
	if len(normalized) > maxTracedQueryLength {
		return normalized[:maxTracedQueryLength] + "..."
	}
	return normalized
}
