package rffm

import (
	"context"
	"fmt"

	"github.com/riskibarqy/federation-scraper/internal/domain/competition"
	"github.com/riskibarqy/federation-scraper/internal/platform/payload"
	"github.com/riskibarqy/federation-scraper/internal/usecase"
)

// FetchMatch returns the game sub-tree of a match page. Every failure comes back as a
// *usecase.MatchFetchError.
func (c *Client) FetchMatch(ctx context.Context, item competition.WorkItem) (competition.MatchRecord, error) {
	root, err := c.fetchPayload(ctx, c.MatchURL(item))
	if err != nil {
		return nil, &usecase.MatchFetchError{Item: item, Err: err}
	}

	props, ok := pageProps(root)
	if !ok {
		return nil, &usecase.MatchFetchError{
			Item: item,
			Err:  fmt.Errorf("%w: %s missing", usecase.ErrExtraction, pagePropsRoot),
		}
	}
	game, ok := payload.AsObject(props[gameKey])
	if !ok {
		return nil, &usecase.MatchFetchError{
			Item: item,
			Err:  fmt.Errorf("%w: %s.%s is %s, expected object", usecase.ErrExtraction, pagePropsRoot, gameKey, payload.Kind(props[gameKey])),
		}
	}
	return game, nil
}
