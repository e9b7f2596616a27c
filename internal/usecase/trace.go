package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = otel.Tracer("federation-scraper/internal/usecase")

// startUsecaseSpan always opens a span: scraper runs are roots, there is no inbound
// request to hang them from. Without a configured provider the global tracer is a noop.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func queryAttributes(q CalendarQuery) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("scrape.season_id", q.SeasonID),
		attribute.String("scrape.game_type", q.GameType),
		attribute.String("scrape.competition_id", q.CompetitionID),
		attribute.String("scrape.group_id", q.GroupID),
	}
}
