// Package sepa decodes the structured remittance information German banks
// pack into a single free-text field (SEPA tags like EREF+ and SVWZ+, as
// carried in MT940 field :86: and in OFX memo lines).
package sepa

import (
	"sort"
	"strings"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// Tags in the order banks commonly emit them. Only ABWA maps to the
// diverging principal ("abweichender Auftraggeber"); ABWE (the diverging
// recipient) is recognized so it bounds its neighbors, but not kept.
var tags = []string{
	"EREF+", "KREF+", "MREF+", "CRED+", "DEBT+",
	"SVWZ+", "ABWA+", "ABWE+", "IBAN+", "BIC+",
}

type span struct {
	tag   string
	start int // index just past the tag
	end   int
}

// Decode extracts the tagged sub-fields from a raw remittance line. Tags
// that do not occur stay empty; a line without any tags yields a Remittance
// with only Raw set, so callers can still fall back to the full text.
func Decode(raw string) model.Remittance {
	rem := model.Remittance{Raw: raw}

	spans := findSpans(raw)
	for _, sp := range spans {
		value := strings.TrimSpace(raw[sp.start:sp.end])
		switch sp.tag {
		case "EREF+":
			rem.EndToEndRef = value
		case "SVWZ+":
			rem.Text = value
		case "ABWA+":
			rem.DivergingPrincipal = value
		case "IBAN+":
			rem.IBAN = value
		case "BIC+":
			rem.BIC = value
		}
	}
	return rem
}

// findSpans locates the first occurrence of each known tag and bounds every
// tag's content by the start of the next one.
func findSpans(raw string) []span {
	var spans []span
	for _, tag := range tags {
		idx := strings.Index(raw, tag)
		if idx < 0 {
			continue
		}
		spans = append(spans, span{tag: tag, start: idx + len(tag)})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i := range spans {
		if i+1 < len(spans) {
			spans[i].end = spans[i+1].start - len(spans[i+1].tag)
		} else {
			spans[i].end = len(raw)
		}
	}
	return spans
}
