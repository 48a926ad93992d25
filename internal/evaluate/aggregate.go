// Package evaluate runs messages past a persona cohort and turns the
// validated judgments into ranked, per-message summaries.
package evaluate

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/drpaneas/resonance/internal/judgment"
	"github.com/drpaneas/resonance/internal/prompt"
)

const (
	// MaxThemes caps each theme list.
	MaxThemes = 3
	// minStrengthLen is the length in characters a strength must exceed
	// to count.
	minStrengthLen = 5
)

// Themes are the qualitative signals mined from a message's judgments.
type Themes struct {
	Strengths []string `json:"strengths"`
	Concerns  []string `json:"concerns"`
}

// MessageEvaluation summarizes every valid judgment for one message.
type MessageEvaluation struct {
	Message           string              `json:"message"`
	AverageScore      float64             `json:"average_score"`
	DetailedResponses []judgment.Judgment `json:"detailed_responses"`
	KeyThemes         Themes              `json:"key_themes"`
	// NoCoverage is set when no judgment survived validation, so a zero
	// score means "never evaluated" rather than "scored low".
	NoCoverage bool `json:"no_coverage"`
	Evaluated  int  `json:"evaluated"`
	Rejected   int  `json:"rejected"`
	Failed     int  `json:"failed"`
}

// Aggregate builds the evaluation of message from its valid judgments.
func Aggregate(message string, judgments []judgment.Judgment) MessageEvaluation {
	ev := MessageEvaluation{
		Message:           message,
		DetailedResponses: make([]judgment.Judgment, 0, len(judgments)),
		KeyThemes:         ExtractThemes(judgments),
	}
	ev.DetailedResponses = append(ev.DetailedResponses, judgments...)
	if len(judgments) == 0 {
		ev.NoCoverage = true
		return ev
	}
	total := 0
	for _, j := range judgments {
		total += j.Score
	}
	ev.AverageScore = float64(total) / float64(len(judgments))
	return ev
}

// ExtractThemes collects strengths from text fields tagged as strengths and
// concerns from list fields tagged as concerns. Each list keeps the first
// occurrence of every value and at most MaxThemes entries.
func ExtractThemes(judgments []judgment.Judgment) Themes {
	var strengths, concerns []string
	for _, j := range judgments {
		for _, f := range j.Fields {
			switch {
			case f.Theme == prompt.ThemeStrength && f.Kind == prompt.KindText:
				if utf8.RuneCountInString(f.Text) > minStrengthLen {
					strengths = append(strengths, f.Text)
				}
			case f.Theme == prompt.ThemeConcern && f.Kind == prompt.KindTextList:
				concerns = append(concerns, f.Items...)
			}
		}
	}
	return Themes{
		Strengths: firstDistinct(strengths, MaxThemes),
		Concerns:  firstDistinct(concerns, MaxThemes),
	}
}

func firstDistinct(values []string, limit int) []string {
	out := make([]string, 0, limit)
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if len(out) == limit {
			break
		}
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Rank sorts evals by descending average score. Equal scores keep their
// input order.
func Rank(evals []MessageEvaluation) {
	slices.SortStableFunc(evals, func(a, b MessageEvaluation) int {
		return cmp.Compare(b.AverageScore, a.AverageScore)
	})
}
