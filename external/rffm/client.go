// Package rffm reads competition calendars and match pages from the federation site.
package rffm

import (
	"context"
	"net/url"
	"strings"

	"github.com/riskibarqy/federation-scraper/internal/domain/competition"
	"github.com/riskibarqy/federation-scraper/internal/platform/logging"
	"github.com/riskibarqy/federation-scraper/internal/platform/payload"
	"github.com/riskibarqy/federation-scraper/internal/usecase"
)

const (
	DefaultBaseURL = "https://www.rffm.es"

	calendarPath   = "/competiciones/calendario"
	matchPathRoot  = "/acta-partido/"
	pagePropsRoot  = "props.pageProps"
	calendarKey    = "calendar"
	roundsKey      = "rounds"
	roundNumberKey = "jornada"
	entriesKey     = "equipos"
	matchIDKey     = "codacta"
	gameKey        = "game"
)

type ClientConfig struct {
	BaseURL          string
	PayloadElementID string
	// MaxRound skips calendar rounds numbered above it; 0 keeps every round.
	MaxRound int
	Fetcher  *PageFetcher
	Logger   *logging.Logger
}

// Client implements usecase.CalendarSource and usecase.MatchSource.
type Client struct {
	baseURL   string
	maxRound  int
	fetcher   *PageFetcher
	extractor Extractor
	logger    *logging.Logger
}

var (
	_ usecase.CalendarSource = (*Client)(nil)
	_ usecase.MatchSource    = (*Client)(nil)
)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = NewPageFetcher(nil, DefaultRateLimitBackoff, logger)
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	maxRound := cfg.MaxRound
	if maxRound < 0 {
		maxRound = 0
	}

	return &Client{
		baseURL:   baseURL,
		maxRound:  maxRound,
		fetcher:   fetcher,
		extractor: NewExtractor(cfg.PayloadElementID),
		logger:    logger,
	}
}

// Fetcher exposes the page fetcher for request accounting.
func (c *Client) Fetcher() *PageFetcher {
	return c.fetcher
}

func (c *Client) CalendarURL(q usecase.CalendarQuery) string {
	values := url.Values{}
	values.Set("temporada", q.SeasonID)
	values.Set("tipojuego", q.GameType)
	values.Set("competicion", q.CompetitionID)
	values.Set("grupo", q.GroupID)
	return c.baseURL + calendarPath + "?" + values.Encode()
}

func (c *Client) MatchURL(item competition.WorkItem) string {
	values := url.Values{}
	values.Set("temporada", item.SeasonID)
	values.Set("competicion", item.CompetitionID)
	values.Set("grupo", item.GroupID)
	return c.baseURL + matchPathRoot + url.PathEscape(item.MatchID) + "?" + values.Encode()
}

// fetchPayload is the fetch-then-extract step shared by calendar and match pages.
func (c *Client) fetchPayload(ctx context.Context, pageURL string) (payload.Object, error) {
	document, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return c.extractor.Extract(document)
}

func pageProps(root payload.Object) (payload.Object, bool) {
	v, ok := payload.Lookup(root, payload.SplitPath(pagePropsRoot)...)
	if !ok {
		return nil, false
	}
	return payload.AsObject(v)
}
