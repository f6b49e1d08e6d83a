package analyzer

import (
	"context"
	"testing"
)

var testEscalationKeywords = []string{"human", "representative", "agent", "speak to someone", "help me", "urgent"}

func newRule() *RuleAnalyzer { return NewRuleAnalyzer(testEscalationKeywords) }

func TestIntentDetection(t *testing.T) {
	cases := []struct {
		message string
		intent  string
	}{
		{"I want to book a session", IntentSchedule},
		{"what does it cost?", IntentPricing},
		{"tell me about the curriculum", IntentProgramInfo},
		{"who are your tutors?", IntentTeacherInfo},
		{"hello there", IntentGeneralInquiry},
	}
	a := newRule()
	for _, tc := range cases {
		got := a.Analyze(context.Background(), tc.message, nil)
		if got.Intent != tc.intent {
			t.Fatalf("%q: want intent %s, got %s", tc.message, tc.intent, got.Intent)
		}
	}
}

func TestIntentTieBreakScheduleBeforePricing(t *testing.T) {
	a := newRule()
	got := a.Analyze(context.Background(), "what is the price to book a session?", nil)
	if got.Intent != IntentSchedule {
		t.Fatalf("schedule rule must win over pricing, got %s", got.Intent)
	}
}

func TestEscalationKeywordOverridesIntent(t *testing.T) {
	a := newRule()
	got := a.Analyze(context.Background(), "I need to speak to a HUMAN agent urgently", nil)
	if !got.EscalationRequired {
		t.Fatalf("escalation keyword not detected")
	}

	got = a.Analyze(context.Background(), "I want to book a session, but get me a human", nil)
	if got.Intent != IntentSchedule {
		t.Fatalf("intent should still classify: got %s", got.Intent)
	}
	if !got.EscalationRequired {
		t.Fatalf("escalation must trigger regardless of intent")
	}
}

func TestEntityExtractionScenario(t *testing.T) {
	a := newRule()
	got := a.Analyze(context.Background(), "I want to book a session for my 10 year old in grade 5 for Math at 3pm", nil)

	if got.Intent != IntentSchedule {
		t.Fatalf("want schedule intent, got %s", got.Intent)
	}
	if got.EscalationRequired {
		t.Fatalf("no escalation keyword present")
	}
	if len(got.Entities[EntitySubjects]) != 1 || got.Entities[EntitySubjects][0] != "math" {
		t.Fatalf("subject not extracted: %v", got.Entities[EntitySubjects])
	}
	if len(got.Entities[EntityGrades]) != 1 || got.Entities[EntityGrades][0] != "grade 5" {
		t.Fatalf("grade not extracted: %v", got.Entities[EntityGrades])
	}
	found := false
	for _, tm := range got.Entities[EntityTimes] {
		if tm == "3pm" {
			found = true
		}
	}
	if !found {
		t.Fatalf("time not extracted: %v", got.Entities[EntityTimes])
	}
}

func TestEntityExtractionDatesAndGradeVariants(t *testing.T) {
	a := newRule()
	got := a.Analyze(context.Background(), "Can we meet on 12/05/2025? My son is in 7th grade.", nil)
	if len(got.Entities[EntityDates]) != 1 || got.Entities[EntityDates][0] != "12/05/2025" {
		t.Fatalf("date not extracted: %v", got.Entities[EntityDates])
	}
	if len(got.Entities[EntityGrades]) != 1 || got.Entities[EntityGrades][0] != "7th grade" {
		t.Fatalf("grade variant not extracted: %v", got.Entities[EntityGrades])
	}
}

func TestSentiment(t *testing.T) {
	a := newRule()
	cases := []struct {
		message   string
		sentiment string
	}{
		{"thanks, that was great", SentimentPositive},
		{"this is terrible and I am upset", SentimentNegative},
		{"ok", SentimentNeutral},
		{"good but bad", SentimentNeutral},
	}
	for _, tc := range cases {
		got := a.Analyze(context.Background(), tc.message, nil)
		if got.Sentiment != tc.sentiment {
			t.Fatalf("%q: want %s, got %s", tc.message, tc.sentiment, got.Sentiment)
		}
	}
}
