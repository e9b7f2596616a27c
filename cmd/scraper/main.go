package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/riskibarqy/federation-scraper/internal/app"
	"github.com/riskibarqy/federation-scraper/internal/config"
	"github.com/riskibarqy/federation-scraper/internal/observability"
	"github.com/riskibarqy/federation-scraper/internal/platform/logging"
	"github.com/riskibarqy/federation-scraper/internal/usecase"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	versionFlag := flag.Bool("version", false, "print version and exit")
	seasonFlag := flag.String("season", "", "season id (overrides SCRAPER_SEASON_ID)")
	gameTypeFlag := flag.String("game-type", "", "game type id (overrides SCRAPER_GAME_TYPE)")
	competitionFlag := flag.String("competition", "", "competition id (overrides SCRAPER_COMPETITION_ID)")
	groupsFlag := flag.String("groups", "", "comma separated group ids (overrides SCRAPER_GROUP_IDS)")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("federation-scraper %s\n", version)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 2
	}
	if cfg.ServiceVersion == "dev" {
		cfg.ServiceVersion = version
	}

	logger := logging.New(cfg.LogFormat, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	logger, shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		return 1
	}
	logging.SetDefault(logger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownUptrace(ctx); err != nil {
			logger.Warn("shutdown uptrace", "error", err)
		}
	}()

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		return 1
	}
	defer func() {
		if err := stopProfiler(); err != nil {
			logger.Warn("stop pyroscope", "error", err)
		}
	}()

	input := usecase.BatchInput{
		SeasonID:      firstNonEmpty(*seasonFlag, cfg.SeasonID),
		GameType:      firstNonEmpty(*gameTypeFlag, cfg.GameType),
		CompetitionID: firstNonEmpty(*competitionFlag, cfg.CompetitionID),
		GroupIDs:      cfg.GroupIDs,
		MaxParallel:   cfg.GroupConcurrency,
	}
	if *groupsFlag != "" {
		input.GroupIDs = splitGroups(*groupsFlag)
	}
	input.GroupIDs = append(input.GroupIDs, flag.Args()...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scraper, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		return 1
	}
	defer func() {
		if err := scraper.Close(); err != nil {
			logger.Warn("close app", "error", err)
		}
	}()

	start := time.Now()
	results, err := scraper.Run(ctx, input)
	for _, r := range results {
		if r.Err != nil {
			logger.Error("group failed",
				"group_id", r.Query.GroupID,
				"state", string(r.State),
				"error", r.Err,
			)
			continue
		}
		logger.Info("group done",
			"group_id", r.Query.GroupID,
			"key", r.Key.String(),
			"matches", r.MatchCount,
			"failed", r.FailedCount,
			"duration", r.Duration,
		)
	}
	logger.Info("finished", "groups", len(results), "elapsed", time.Since(start))

	if err != nil {
		logger.Error("scrape failed", "error", err)
		return 1
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitGroups(raw string) []string {
	return strings.Split(raw, ",")
}
