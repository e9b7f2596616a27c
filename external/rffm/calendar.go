package rffm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/riskibarqy/federation-scraper/internal/domain/competition"
	"github.com/riskibarqy/federation-scraper/internal/platform/payload"
	"github.com/riskibarqy/federation-scraper/internal/usecase"
)

var digitsRegex = regexp.MustCompile(`\d+`)

var (
	competitionNameKeys = []string{"competicion", "nombre_competicion"}
	groupNameKeys       = []string{"grupo", "nombre_grupo"}
	seasonLabelKeys     = []string{"temporada", "nombre_temporada"}
)

// EnumerateCalendar lists every match of a competition group. Any deviation from the
// expected rounds/entries/match id layout fails the whole group with
// usecase.ErrEnumeration; nothing is retried here beyond the fetcher's 429 handling.
func (c *Client) EnumerateCalendar(
	ctx context.Context,
	query usecase.CalendarQuery,
) (competition.Metadata, []competition.WorkItem, error) {
	calendarURL := c.CalendarURL(query)
	root, err := c.fetchPayload(ctx, calendarURL)
	if err != nil {
		return competition.Metadata{}, nil, fmt.Errorf("%w: %s: %w", usecase.ErrEnumeration, calendarURL, err)
	}

	meta, items, err := parseCalendar(root, query, c.maxRound)
	if err != nil {
		return competition.Metadata{}, nil, fmt.Errorf("%w: %s: %w", usecase.ErrEnumeration, calendarURL, err)
	}

	c.logger.DebugContext(ctx, "calendar parsed",
		"url", calendarURL,
		"competition", meta.CompetitionName,
		"group", meta.GroupName,
		"items", len(items),
	)
	return meta, items, nil
}

func parseCalendar(
	root payload.Object,
	query usecase.CalendarQuery,
	maxRound int,
) (competition.Metadata, []competition.WorkItem, error) {
	props, ok := pageProps(root)
	if !ok {
		return competition.Metadata{}, nil, fmt.Errorf("%s missing", pagePropsRoot)
	}
	calendar, ok := payload.AsObject(props[calendarKey])
	if !ok {
		return competition.Metadata{}, nil, fmt.Errorf("%s.%s missing", pagePropsRoot, calendarKey)
	}
	rounds, ok := payload.AsList(calendar[roundsKey])
	if !ok {
		return competition.Metadata{}, nil, fmt.Errorf("%s is %s, expected list", roundsKey, payload.Kind(calendar[roundsKey]))
	}

	meta := competition.Metadata{
		CompetitionName: firstString(calendar, competitionNameKeys...),
		GroupName:       firstString(calendar, groupNameKeys...),
		SeasonLabel:     firstString(calendar, seasonLabelKeys...),
	}

	items := make([]competition.WorkItem, 0, len(rounds)*8)
	for roundIdx, rawRound := range rounds {
		round, ok := payload.AsObject(rawRound)
		if !ok {
			return competition.Metadata{}, nil, fmt.Errorf("round %d is %s, expected object", roundIdx, payload.Kind(rawRound))
		}
		number := parseRoundNumber(payload.StringAt(round, roundNumberKey), roundIdx+1)
		if maxRound > 0 && number > maxRound {
			continue
		}

		entries, ok := payload.AsList(round[entriesKey])
		if !ok {
			return competition.Metadata{}, nil, fmt.Errorf("round %d: %s is %s, expected list", number, entriesKey, payload.Kind(round[entriesKey]))
		}
		for entryIdx, rawEntry := range entries {
			matchID := payload.StringAt(rawEntry, matchIDKey)
			if matchID == "" {
				return competition.Metadata{}, nil, fmt.Errorf("round %d entry %d: %s missing", number, entryIdx, matchIDKey)
			}
			items = append(items, competition.WorkItem{
				MatchID:       matchID,
				SeasonID:      query.SeasonID,
				CompetitionID: query.CompetitionID,
				GroupID:       query.GroupID,
				Round:         number,
				Position:      len(items),
			})
		}
	}

	return meta, items, nil
}

// parseRoundNumber reads the first number in labels like "Jornada 12".
func parseRoundNumber(raw string, fallback int) int {
	match := digitsRegex.FindString(raw)
	if match == "" {
		return fallback
	}
	value, err := strconv.Atoi(match)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func firstString(obj payload.Object, keys ...string) string {
	for _, key := range keys {
		if v := payload.StringAt(obj, key); v != "" {
			return v
		}
	}
	return ""
}
