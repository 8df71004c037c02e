// Package feedback turns the semi-structured evaluation text returned by the
// model into a typed score record.
package feedback

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Section labels the evaluation prompt asks the model to emit verbatim.
const (
	LabelCommunicationSkills  = "Communication Skills"
	LabelTechnicalKnowledge   = "Technical Knowledge"
	LabelProblemSolving       = "Problem-solving"
	LabelCulturalFit          = "Cultural & Role Fit"
	LabelConfidenceAndClarity = "Confidence and Clarity"
	LabelOverallFeedback      = "Overall Feedback"
)

// Labels lists the scored sections in the order they appear in the template.
var Labels = []string{
	LabelCommunicationSkills,
	LabelTechnicalKnowledge,
	LabelProblemSolving,
	LabelCulturalFit,
	LabelConfidenceAndClarity,
}

// CategoryScore is a single scored section.
type CategoryScore struct {
	Score    int    `json:"score" bson:"score"`
	Feedback string `json:"feedback" bson:"feedback"`
}

// Record is the structured feedback attached to an interview.
type Record struct {
	CommunicationSkills  CategoryScore `json:"communicationSkills" bson:"communicationSkills"`
	TechnicalKnowledge   CategoryScore `json:"technicalKnowledge" bson:"technicalKnowledge"`
	ProblemSolving       CategoryScore `json:"problemSolving" bson:"problemSolving"`
	CulturalFit          CategoryScore `json:"culturalFit" bson:"culturalFit"`
	ConfidenceAndClarity CategoryScore `json:"confidenceAndClarity" bson:"confidenceAndClarity"`
	OverallFeedback      string        `json:"overallFeedback" bson:"overallFeedback"`
	AnalyzedAt           *time.Time    `json:"analyzedAt,omitempty" bson:"analyzedAt,omitempty"`
}

// Category returns a pointer to the section stored under label, or nil for
// an unknown label.
func (r *Record) Category(label string) *CategoryScore {
	switch label {
	case LabelCommunicationSkills:
		return &r.CommunicationSkills
	case LabelTechnicalKnowledge:
		return &r.TechnicalKnowledge
	case LabelProblemSolving:
		return &r.ProblemSolving
	case LabelCulturalFit:
		return &r.CulturalFit
	case LabelConfidenceAndClarity:
		return &r.ConfidenceAndClarity
	default:
		return nil
	}
}

// Result carries the parsed record together with the labels that could not be
// located in the text.
type Result struct {
	Record    Record
	Unmatched []string
	Recovered bool
}

const headerMarker = "**"

var (
	scorePattern   = regexp.MustCompile(`(\d+)[ \t]*/[ \t]*100\b`)
	overallPattern = regexp.MustCompile(`(?im)^[ \t>#*_-]*overall[ \t]+feedback[ \t]*:`)
	labelPatterns  = compileLabelPatterns(Labels)
)

// Parse extracts the five scored sections and the overall summary from raw.
// It never fails: sections that cannot be located keep their zero values.
func Parse(raw string) Record {
	return ParseDetailed(raw).Record
}

// ParseDetailed behaves like Parse and also reports which sections were
// missing. If scanning panics, the whole input is kept as the overall
// feedback so no model output is lost.
func ParseDetailed(raw string) (result Result) {
	defer func() {
		if recovered := recover(); recovered != nil {
			result = Result{
				Record:    Record{OverallFeedback: raw},
				Unmatched: append([]string(nil), Labels...),
				Recovered: true,
			}
		}
	}()

	for _, label := range Labels {
		section, ok := findSection(raw, labelPatterns[label])
		if !ok {
			result.Unmatched = append(result.Unmatched, label)
			continue
		}
		*result.Record.Category(label) = section
	}

	overall, ok := findOverall(raw)
	if !ok {
		result.Unmatched = append(result.Unmatched, LabelOverallFeedback)
	}
	result.Record.OverallFeedback = overall

	return result
}

// findSection walks the occurrences of "<label>:" in order and returns the
// first one that carries an N/100 marker on the same line. The body runs from
// the marker to the next ** or the end of the text.
func findSection(raw string, label *regexp.Regexp) (CategoryScore, bool) {
	for _, loc := range label.FindAllStringIndex(raw, -1) {
		lineEnd := len(raw)
		if idx := strings.IndexByte(raw[loc[1]:], '\n'); idx >= 0 {
			lineEnd = loc[1] + idx
		}

		match := scorePattern.FindStringSubmatchIndex(raw[loc[1]:lineEnd])
		if match == nil {
			continue
		}

		score, err := strconv.Atoi(raw[loc[1]+match[2] : loc[1]+match[3]])
		if err != nil {
			continue
		}

		return CategoryScore{
			Score:    score,
			Feedback: sectionBody(raw, loc[1]+match[1]),
		}, true
	}

	return CategoryScore{}, false
}

func sectionBody(raw string, start int) string {
	rest := strings.TrimLeft(raw[start:], " \t")
	rest = strings.TrimPrefix(rest, headerMarker)
	if end := strings.Index(rest, headerMarker); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

func findOverall(raw string) (string, bool) {
	loc := overallPattern.FindStringIndex(raw)
	if loc == nil {
		return "", false
	}

	rest := strings.TrimLeft(raw[loc[1]:], " \t")
	rest = strings.TrimPrefix(rest, headerMarker)
	return strings.TrimSpace(rest), true
}

// compileLabelPatterns builds one matcher per label. The first word of a label
// is matched literally; the remaining words tolerate case changes, so
// "Communication skills:" and "Problem-Solving:" are accepted while
// "communication Skills:" is not.
func compileLabelPatterns(labels []string) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(labels))
	for _, label := range labels {
		words := strings.FieldsFunc(label, func(r rune) bool { return r == ' ' || r == '-' })
		separators := labelSeparators(label)

		var expr strings.Builder
		for i, word := range words {
			if i > 0 {
				expr.WriteString(separators[i-1])
				expr.WriteString("(?i:" + regexp.QuoteMeta(word) + ")")
				continue
			}
			expr.WriteString(regexp.QuoteMeta(word))
		}
		expr.WriteString(`[ \t]*:`)

		patterns[label] = regexp.MustCompile(expr.String())
	}
	return patterns
}

func labelSeparators(label string) []string {
	var separators []string
	for _, r := range label {
		switch r {
		case ' ':
			separators = append(separators, `[ \t]+`)
		case '-':
			separators = append(separators, `[ \t]*-[ \t]*`)
		}
	}
	return separators
}
