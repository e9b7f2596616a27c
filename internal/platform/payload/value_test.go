package payload

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestDecode_PreservesNumbers(t *testing.T) {
	raw := []byte(`{"game":{"codacta":"987654321","goles":{"local":3,"visitante":0},"id":12345678901234567}}`)

	obj, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	id, ok := Lookup(obj, "game", "id")
	if !ok {
		t.Fatalf("expected game.id to exist")
	}
	if num, ok := id.(json.Number); !ok || num.String() != "12345678901234567" {
		t.Fatalf("expected json.Number 12345678901234567, got %#v", id)
	}

	out, err := Encode(obj)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	again, err := Decode(out)
	if err != nil {
		t.Fatalf("decode encoded: %v", err)
	}
	if !reflect.DeepEqual(obj, again) {
		t.Fatalf("expected encode/decode to preserve tree:\n%#v\n%#v", obj, again)
	}
}

func TestDecode_RejectsNonObject(t *testing.T) {
	for _, raw := range []string{`[]`, `"text"`, `null`, `12`} {
		_, err := Decode([]byte(raw))
		if !errors.Is(err, ErrNotObject) {
			t.Fatalf("Decode(%s): expected ErrNotObject, got %v", raw, err)
		}
	}

	if _, err := Decode([]byte(`{"broken":`)); err == nil {
		t.Fatalf("expected syntax error for truncated input")
	}
}

func TestLookupAndStringAt(t *testing.T) {
	obj, err := Decode([]byte(`{"props":{"pageProps":{"calendar":{"competicion":" Preferente ","temporada":19,"rounds":[]}}}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got := StringAt(obj, SplitPath("props.pageProps.calendar.competicion")...); got != "Preferente" {
		t.Fatalf("unexpected competicion: %q", got)
	}
	if got := StringAt(obj, "props", "pageProps", "calendar", "temporada"); got != "19" {
		t.Fatalf("unexpected temporada: %q", got)
	}
	if got := StringAt(obj, "props", "missing"); got != "" {
		t.Fatalf("expected empty string for missing path, got %q", got)
	}
	if _, ok := Lookup(obj, "props", "pageProps", "calendar", "rounds", "0"); ok {
		t.Fatalf("lookup must not index into lists")
	}

	rounds, _ := Lookup(obj, "props", "pageProps", "calendar", "rounds")
	if Kind(rounds) != "list" {
		t.Fatalf("expected list kind, got %s", Kind(rounds))
	}
}

func TestSplitPath(t *testing.T) {
	got := SplitPath(" props..pageProps. game ")
	want := []string{"props", "pageProps", "game"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitPath = %v, want %v", got, want)
	}
}
