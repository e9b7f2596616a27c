package observability

import (
	"errors"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/riskibarqy/federation-scraper/internal/platform/logging"
)

func TestShouldSkipUptraceLog(t *testing.T) {
	if !shouldSkipUptraceLog(zapcore.Entry{Level: zapcore.InfoLevel, Message: "match fetched"}) {
		t.Fatalf("expected per-match success line to be skipped")
	}
	if shouldSkipUptraceLog(zapcore.Entry{Level: zapcore.WarnLevel, Message: "match failed"}) {
		t.Fatalf("did not expect failure line to be skipped")
	}
	if shouldSkipUptraceLog(zapcore.Entry{Level: zapcore.InfoLevel, Message: "dataset persisted"}) {
		t.Fatalf("did not expect run summary to be skipped")
	}
}

func TestBuildOTelLogAttributes(t *testing.T) {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range []zap.Field{
		zap.String("match_id", "998877"),
		zap.Int("completed", 2),
		zap.Duration("elapsed", 1500*time.Millisecond),
		zap.NamedError("error", errors.New("status 500")),
	} {
		f.AddTo(enc)
	}

	attrs := buildOTelLogAttributes(enc.Fields)
	if len(attrs) != 4 {
		t.Fatalf("expected 4 attributes, got %d", len(attrs))
	}
	byKey := make(map[string]otellog.Value, len(attrs))
	for _, attr := range attrs {
		byKey[attr.Key] = attr.Value
	}
	if byKey["match_id"].AsString() != "998877" {
		t.Fatalf("unexpected match_id attribute")
	}
	if byKey["completed"].AsInt64() != 2 {
		t.Fatalf("unexpected completed attribute")
	}
	if byKey["error"].AsString() != "status 500" {
		t.Fatalf("unexpected error attribute: %v", byKey["error"])
	}
	if attrs[0].Key != "completed" {
		t.Fatalf("attributes should be sorted by key, got %s first", attrs[0].Key)
	}
}

func TestUptraceLogCore_LevelAndTee(t *testing.T) {
	core := newUptraceLogCore(logging.LevelWarn, "dev")
	if core.Enabled(zapcore.InfoLevel) || !core.Enabled(zapcore.ErrorLevel) {
		t.Fatalf("core should honour its level")
	}

	logger := logging.NewNop().Tee(core.With([]zapcore.Field{zap.String("group_id", "200")}))
	logger.Warn("match failed", "match_id", "1", "error", errors.New("boom"))
}

func TestToOTelLogValue_Map(t *testing.T) {
	v := toOTelLogValue(map[string]any{
		"matches": 11,
		"failed":  true,
	}, 0)
	if v.Kind() != otellog.KindMap {
		t.Fatalf("expected map value, got %s", v.Kind())
	}
	items := v.AsMap()
	if len(items) != 2 {
		t.Fatalf("expected 2 map items, got %d", len(items))
	}
}
