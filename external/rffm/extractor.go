package rffm

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/riskibarqy/federation-scraper/internal/platform/payload"
	"github.com/riskibarqy/federation-scraper/internal/usecase"
)

// DefaultPayloadElementID is the script element the site's front end hydrates from.
const DefaultPayloadElementID = "__NEXT_DATA__"

// Extractor pulls the embedded page state out of an HTML document.
type Extractor struct {
	elementID string
}

func NewExtractor(elementID string) Extractor {
	return Extractor{elementID: firstNonEmpty(elementID, DefaultPayloadElementID)}
}

// Extract decodes the embedded data block. Missing, empty, malformed or non-object
// blocks all fail with usecase.ErrExtraction.
func (e Extractor) Extract(document []byte) (payload.Object, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %w", usecase.ErrExtraction, err)
	}

	selection := doc.Find(fmt.Sprintf(`script[id=%q]`, e.elementID))
	if selection.Length() == 0 {
		return nil, fmt.Errorf("%w: element #%s not found", usecase.ErrExtraction, e.elementID)
	}

	text := strings.TrimSpace(selection.First().Text())
	if text == "" {
		return nil, fmt.Errorf("%w: element #%s is empty", usecase.ErrExtraction, e.elementID)
	}

	obj, err := payload.Decode([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: element #%s: %w", usecase.ErrExtraction, e.elementID, err)
	}
	return obj, nil
}

// ExtractPayload uses the default element id.
func ExtractPayload(document []byte) (payload.Object, error) {
	return NewExtractor("").Extract(document)
}
