package analyzer

import (
	"context"
	"regexp"
	"strings"

	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/memory"
)

// intentRules is checked in order; the first rule with a matching keyword
// wins. The ordering is a deliberate tie-break policy: a message mentioning
// both booking and pricing classifies as schedule.
var intentRules = []struct {
	intent   string
	keywords []string
}{
	{IntentSchedule, []string{"schedule", "book", "appointment"}},
	{IntentPricing, []string{"price", "cost", "fee"}},
	{IntentProgramInfo, []string{"program", "course", "curriculum"}},
	{IntentTeacherInfo, []string{"teacher", "tutor", "instructor"}},
}

var subjects = []string{"math", "science", "english", "history", "physics", "chemistry", "biology"}

var positiveWords = []string{"good", "great", "excellent", "happy", "thanks", "thank"}
var negativeWords = []string{"bad", "poor", "terrible", "unhappy", "angry", "upset"}

var (
	dateRe  = regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{2,4}|\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{2,4}`)
	timeRe  = regexp.MustCompile(`\d{1,2}:\d{2}\s*(?:AM|PM|am|pm)?|\d{1,2}\s*(?:AM|PM|am|pm)`)
	gradeRe = regexp.MustCompile(`grade\s+\d{1,2}|\d{1,2}(?:st|nd|rd|th)\s+grade`)
)

// RuleAnalyzer classifies with keyword tables and regex extractors. It has no
// external collaborators and never fails.
type RuleAnalyzer struct {
	escalationKeywords []string
}

func NewRuleAnalyzer(escalationKeywords []string) *RuleAnalyzer {
	return &RuleAnalyzer{escalationKeywords: escalationKeywords}
}

func (a *RuleAnalyzer) Analyze(_ context.Context, message string, _ []memory.Entry) Analysis {
	return Analysis{
		Intent:             a.detectIntent(message),
		Entities:           extractEntities(message),
		Sentiment:          analyzeSentiment(message),
		EscalationRequired: a.checkEscalation(message),
	}
}

func (a *RuleAnalyzer) detectIntent(message string) string {
	lower := strings.ToLower(message)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.intent
			}
		}
	}
	return IntentGeneralInquiry
}

func (a *RuleAnalyzer) checkEscalation(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range a.escalationKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func extractEntities(message string) map[string][]string {
	lower := strings.ToLower(message)
	entities := map[string][]string{
		EntityDates:    {},
		EntityTimes:    {},
		EntitySubjects: {},
		EntityGrades:   {},
	}
	if m := dateRe.FindAllString(message, -1); m != nil {
		entities[EntityDates] = m
	}
	if m := timeRe.FindAllString(message, -1); m != nil {
		entities[EntityTimes] = m
	}
	for _, subject := range subjects {
		if strings.Contains(lower, subject) {
			entities[EntitySubjects] = append(entities[EntitySubjects], subject)
		}
	}
	if m := gradeRe.FindAllString(lower, -1); m != nil {
		entities[EntityGrades] = m
	}
	return entities
}

// analyzeSentiment counts positive and negative word hits; the strictly
// greater count wins and ties (including none of either) are neutral.
func analyzeSentiment(message string) string {
	lower := strings.ToLower(message)
	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}
	switch {
	case pos > neg:
		return SentimentPositive
	case neg > pos:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
