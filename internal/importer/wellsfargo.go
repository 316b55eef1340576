package importer

import (
	"iter"
	"strings"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/model"
)

// WellsFargoParser parses Wells Fargo account activity exports:
//
//	"<date>","<amount>","*","","<description>"
//
// Lines are split on every comma with no quote handling, so a description
// that itself contains a comma is truncated at the first one.
type WellsFargoParser struct {
	classifier Classifier
}

const (
	wfMinFields = 5
	wfColDate   = 0
	wfColAmount = 1
	wfColDesc   = 4
)

// NewWellsFargoParser creates a parser that labels each candidate with c.
// A nil classifier leaves CustomDescription empty.
func NewWellsFargoParser(c Classifier) *WellsFargoParser {
	return &WellsFargoParser{classifier: c}
}

// Format returns the parser name.
func (p *WellsFargoParser) Format() string { return "wellsfargo" }

// Lines yields one Line per non-empty line after the header.
func (p *WellsFargoParser) Lines(text string) iter.Seq[Line] {
	return func(yield func(Line) bool) {
		lines := strings.Split(text, "\n")
		for i := 1; i < len(lines); i++ {
			raw := strings.TrimSpace(lines[i])
			if raw == "" {
				continue
			}
			if !yield(p.parseLine(i+1, raw)) {
				return
			}
		}
	}
}

func (p *WellsFargoParser) parseLine(num int, raw string) Line {
	cols := strings.Split(raw, ",")
	if len(cols) < wfMinFields {
		return Line{Number: num, Fields: len(cols), Malformed: true}
	}

	desc := cleanField(cols[wfColDesc])
	rec := model.Transaction{
		Date:        cleanField(cols[wfColDate]),
		Description: desc,
		Amount:      cleanField(cols[wfColAmount]),
	}
	if p.classifier != nil {
		rec.CustomDescription = p.classifier.Classify(desc)
	}
	return Line{Number: num, Fields: len(cols), Record: rec}
}

// cleanField removes every double quote and surrounding whitespace.
func cleanField(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}
