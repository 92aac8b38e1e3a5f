package docs

import (
	"regexp"
	"strings"
)

// Segment is one clause candidate produced by deterministic segmentation.
// The parser agent refines these with model judgment; segmentation itself
// never calls the model.
type Segment struct {
	Index int
	Type  string
	Text  string
}

var headingPattern = regexp.MustCompile(`(?m)^\s*(?:(?:Section|Article|Clause)\s+\d+|\d+(?:\.\d+)*[.)])\s`)

// clause type keywords, checked in order; first match wins.
var clauseTypeSignals = []struct {
	clauseType string
	keywords   []string
}{
	{"definitions", []string{"definitions", "defined terms", "shall mean", "capitalized terms"}},
	{"parties", []string{"entered into by", "by and between", "the parties to this"}},
	{"confidentiality", []string{"confidential", "non-disclosure", "proprietary information"}},
	{"indemnification", []string{"indemnif", "hold harmless"}},
	{"liability", []string{"liability", "liable", "damages"}},
	{"termination", []string{"terminat", "expiration", "expiry"}},
	{"data_handling", []string{"personal data", "personal information", "data protection", "health information", "data processing"}},
	{"intellectual_property", []string{"intellectual property", "copyright", "patent", "trademark", "work product", "license grant"}},
	{"dispute_resolution", []string{"dispute", "arbitration", "governing law", "jurisdiction", "venue"}},
	{"force_majeure", []string{"force majeure", "act of god", "beyond the reasonable control"}},
	{"payment", []string{"payment", "fees", "invoice", "compensation"}},
	{"term", []string{"term of this agreement", "initial term", "renewal"}},
}

// SegmentClauses splits contract text into typed clause candidates. Splits
// happen at numbered headings when present, otherwise at blank lines.
// Fragments under 40 characters are merged into the preceding clause.
func SegmentClauses(text string) []Segment {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var chunks []string
	if locs := headingPattern.FindAllStringIndex(text, -1); len(locs) > 1 {
		for i, loc := range locs {
			end := len(text)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			chunks = append(chunks, text[loc[0]:end])
		}
		if lead := strings.TrimSpace(text[:locs[0][0]]); lead != "" {
			chunks = append([]string{lead}, chunks...)
		}
	} else {
		chunks = strings.Split(text, "\n\n")
	}

	var merged []string
	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		if len(chunk) < 40 && len(merged) > 0 {
			merged[len(merged)-1] += "\n" + chunk
			continue
		}
		merged = append(merged, chunk)
	}

	segments := make([]Segment, 0, len(merged))
	for i, chunk := range merged {
		segments = append(segments, Segment{
			Index: i,
			Type:  ClassifyClause(chunk),
			Text:  chunk,
		})
	}
	return segments
}

// ClassifyClause assigns a clause type from keyword signals. Unmatched text
// is "general".
func ClassifyClause(text string) string {
	lower := strings.ToLower(text)
	for _, sig := range clauseTypeSignals {
		for _, kw := range sig.keywords {
			if strings.Contains(lower, kw) {
				return sig.clauseType
			}
		}
	}
	return "general"
}
