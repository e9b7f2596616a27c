package rffm

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/federation-scraper/internal/platform/logging"
)

func nextDataPage(state string) string {
	return fmt.Sprintf(`<!DOCTYPE html><html><head><title>RFFM</title></head><body>
<div id="__next"><div class="table matches">render</div></div>
<script id="__NEXT_DATA__" type="application/json">%s</script>
</body></html>`, state)
}

// calendarState builds rounds x perRound entries with match ids "r<round>m<idx>".
func calendarState(rounds, perRound int) string {
	var b strings.Builder
	b.WriteString(`{"props":{"pageProps":{"calendar":{"competicion":"Preferente Aficionados","grupo":"Grupo 1","temporada":"2024-2025","rounds":[`)
	for r := 1; r <= rounds; r++ {
		if r > 1 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"jornada":"Jornada %d","fecha":"2024-09-0%d","equipos":[`, r, r%9+1)
		for m := 0; m < perRound; m++ {
			if m > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, `{"codacta":"r%dm%d","equipo_local":"Local %d","equipo_visitante":"Visitante %d"}`, r, m, m, m)
		}
		b.WriteString(`]}`)
	}
	b.WriteString(`]}},"page":"/competiciones/calendario"}}`)
	return b.String()
}

func matchState(matchID string) string {
	return fmt.Sprintf(`{"props":{"pageProps":{"game":{"codacta":%q,"goles_local":2,"goles_visitante":1,"campo":"Campo Municipal"}}}}`, matchID)
}

func testFetcher(transport Transport) *PageFetcher {
	return NewPageFetcher(transport, time.Millisecond, logging.NewNop())
}
