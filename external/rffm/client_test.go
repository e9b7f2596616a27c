package rffm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/federation-scraper/internal/domain/competition"
	"github.com/riskibarqy/federation-scraper/internal/platform/logging"
	"github.com/riskibarqy/federation-scraper/internal/platform/payload"
	"github.com/riskibarqy/federation-scraper/internal/usecase"
)

var testQuery = usecase.CalendarQuery{
	SeasonID:      "19",
	GameType:      "1",
	CompetitionID: "13564522",
	GroupID:       "13768766",
}

func newTestClient(t *testing.T, handler http.Handler, maxRound int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(ClientConfig{
		BaseURL:  srv.URL + "/",
		MaxRound: maxRound,
		Fetcher:  testFetcher(NewNetHTTPTransport(srv.Client(), 5*time.Second, "")),
		Logger:   logging.NewNop(),
	})
}

func TestClient_URLs(t *testing.T) {
	t.Parallel()

	c := NewClient(ClientConfig{BaseURL: "https://example.test/"})
	if got, want := c.CalendarURL(testQuery), "https://example.test/competiciones/calendario?competicion=13564522&grupo=13768766&temporada=19&tipojuego=1"; got != want {
		t.Fatalf("calendar url:\nwant %s\ngot  %s", want, got)
	}

	item := competition.WorkItem{MatchID: "55 66", SeasonID: "19", CompetitionID: "1", GroupID: "2"}
	if got, want := c.MatchURL(item), "https://example.test/acta-partido/55%2066?competicion=1&grupo=2&temporada=19"; got != want {
		t.Fatalf("match url:\nwant %s\ngot  %s", want, got)
	}
}

func TestEnumerateCalendar_ProducesRoundsTimesMatches(t *testing.T) {
	t.Parallel()

	var gotQuery atomic.Value
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.RawQuery)
		_, _ = w.Write([]byte(nextDataPage(calendarState(4, 5))))
	}), 0)

	meta, items, err := client.EnumerateCalendar(context.Background(), testQuery)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(items) != 20 {
		t.Fatalf("expected 4x5=20 work items, got %d", len(items))
	}
	for i, item := range items {
		if item.SeasonID != testQuery.SeasonID || item.CompetitionID != testQuery.CompetitionID || item.GroupID != testQuery.GroupID {
			t.Fatalf("item %d lost identifiers: %+v", i, item)
		}
		if item.Position != i {
			t.Fatalf("item %d has position %d", i, item.Position)
		}
	}
	if items[7].MatchID != "r2m2" || items[7].Round != 2 {
		t.Fatalf("unexpected item 7: %+v", items[7])
	}
	if meta.CompetitionName != "Preferente Aficionados" || meta.GroupName != "Grupo 1" || meta.SeasonLabel != "2024-2025" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	if q, _ := gotQuery.Load().(string); !strings.Contains(q, "tipojuego=1") {
		t.Fatalf("expected game type in calendar query, got %q", q)
	}
}

func TestEnumerateCalendar_MaxRound(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(nextDataPage(calendarState(5, 2))))
	}), 3)

	_, items, err := client.EnumerateCalendar(context.Background(), testQuery)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(items) != 6 {
		t.Fatalf("expected 3 rounds x 2 matches, got %d", len(items))
	}
	if last := items[len(items)-1]; last.Round != 3 || last.Position != 5 {
		t.Fatalf("unexpected last item: %+v", last)
	}
}

func TestEnumerateCalendar_SchemaErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"no calendar":        `{"props":{"pageProps":{}}}`,
		"rounds not a list":  `{"props":{"pageProps":{"calendar":{"rounds":{}}}}}`,
		"round without list": `{"props":{"pageProps":{"calendar":{"rounds":[{"jornada":"1"}]}}}}`,
		"entry without id":   `{"props":{"pageProps":{"calendar":{"rounds":[{"jornada":"1","equipos":[{"codacta":"1"},{"equipo_local":"x"}]}]}}}}`,
	}
	for name, state := range cases {
		name, state := name, state
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(nextDataPage(state)))
			}), 0)
			_, items, err := client.EnumerateCalendar(context.Background(), testQuery)
			if !errors.Is(err, usecase.ErrEnumeration) {
				t.Fatalf("expected ErrEnumeration, got %v", err)
			}
			if items != nil {
				t.Fatalf("expected no work items on schema error, got %d", len(items))
			}
		})
	}
}

func TestEnumerateCalendar_FetchFailureIsEnumerationError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}), 0)

	_, _, err := client.EnumerateCalendar(context.Background(), testQuery)
	if !errors.Is(err, usecase.ErrEnumeration) || !errors.Is(err, usecase.ErrFetch) {
		t.Fatalf("expected enumeration error wrapping fetch error, got %v", err)
	}
}

func TestFetchMatch(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/acta-partido/")
		switch id {
		case "no-game":
			_, _ = w.Write([]byte(nextDataPage(`{"props":{"pageProps":{"game":null}}}`)))
		case "broken":
			_, _ = w.Write([]byte(`<html><body>maintenance</body></html>`))
		default:
			if r.URL.Query().Get("grupo") != testQuery.GroupID {
				http.Error(w, "bad group", http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(nextDataPage(matchState(id))))
		}
	}), 0)

	item := competition.WorkItem{MatchID: "4455", SeasonID: "19", CompetitionID: "13564522", GroupID: "13768766"}
	record, err := client.FetchMatch(context.Background(), item)
	if err != nil {
		t.Fatalf("fetch match: %v", err)
	}
	if got := payload.StringAt(record, "codacta"); got != "4455" {
		t.Fatalf("expected game sub-tree, got %#v", record)
	}
	if got := payload.StringAt(record, "goles_local"); got != "2" {
		t.Fatalf("expected numbers preserved, got %q", got)
	}

	for _, id := range []string{"no-game", "broken"} {
		item.MatchID = id
		_, err := client.FetchMatch(context.Background(), item)
		var mfe *usecase.MatchFetchError
		if !errors.As(err, &mfe) || mfe.Item.MatchID != id {
			t.Fatalf("%s: expected MatchFetchError, got %v", id, err)
		}
		if !errors.Is(err, usecase.ErrMatchFetch) || !errors.Is(err, usecase.ErrExtraction) {
			t.Fatalf("%s: expected match fetch + extraction error, got %v", id, err)
		}
	}
}

func ExampleClient_CalendarURL() {
	c := NewClient(ClientConfig{})
	fmt.Println(c.CalendarURL(testQuery))
	// Output: https://www.rffm.es/competiciones/calendario?competicion=13564522&grupo=13768766&temporada=19&tipojuego=1
}
