// Package assembler gathers supplementary facts (retrieval documents,
// availability rows, free calendar slots) for the responder, keyed off the
// message analysis.
package assembler

import (
	"context"
	"log"
	"time"

	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/analyzer"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/calendar"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/knowledge"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/memory"
)

// DefaultCollaboratorTimeout bounds each collaborator call so a slow backend
// never stalls the whole assembly.
const DefaultCollaboratorTimeout = 10 * time.Second

// Retriever is the knowledge-base collaborator.
type Retriever interface {
	Search(ctx context.Context, query string, limit int) ([]knowledge.Document, error)
}

// Tabular is the spreadsheet collaborator.
type Tabular interface {
	Availability(ctx context.Context) ([][]string, error)
	Search(ctx context.Context, term string) ([][]string, error)
}

// SlotProvider is the calendar collaborator.
type SlotProvider interface {
	AvailableSlots(ctx context.Context, date time.Time, duration time.Duration) ([]calendar.Slot, error)
}

// Context is everything the responder may draw on beyond the raw message.
type Context struct {
	Intent             string
	Entities           map[string][]string
	EscalationRequired bool
	Documents          []knowledge.Document
	Availability       [][]string
	Records            [][]string
	Slots              []calendar.Slot
	Preferences        memory.Preferences
}

var informationalIntents = map[string]bool{
	analyzer.IntentProgramInfo:    true,
	analyzer.IntentTeacherInfo:    true,
	analyzer.IntentPricing:        true,
	analyzer.IntentGeneralInquiry: true,
	"question":                    true,
	"help":                        true,
	"information":                 true,
}

var schedulingIntents = map[string]bool{
	analyzer.IntentSchedule: true,
	"booking":               true,
	"availability":          true,
}

type Assembler struct {
	retriever Retriever
	tabular   Tabular
	slots     SlotProvider
	timeout   time.Duration
	now       func() time.Time
}

func New(retriever Retriever, tabular Tabular, slots SlotProvider) *Assembler {
	return &Assembler{
		retriever: retriever,
		tabular:   tabular,
		slots:     slots,
		timeout:   DefaultCollaboratorTimeout,
		now:       time.Now,
	}
}

// Assemble builds the response context. Collaborator failures degrade to an
// empty slice for that collaborator only; an assembler-level panic degrades
// to an all-empty context with escalation forced, mirroring the analyzer's
// fail-safe policy.
func (a *Assembler) Assemble(ctx context.Context, analysis analyzer.Analysis, message string, prefs memory.Preferences) (out Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("context assembly failed: %v", r)
			out = Context{
				Intent:             analyzer.IntentUnknown,
				Entities:           map[string][]string{},
				EscalationRequired: true,
			}
		}
	}()

	out = Context{
		Intent:             analysis.Intent,
		Entities:           analysis.Entities,
		EscalationRequired: analysis.EscalationRequired,
		Preferences:        prefs,
	}

	if informationalIntents[analysis.Intent] {
		if a.retriever != nil {
			cctx, cancel := context.WithTimeout(ctx, a.timeout)
			docs, err := a.retriever.Search(cctx, message, knowledge.DefaultSearchLimit)
			cancel()
			if err != nil {
				log.Printf("knowledge lookup failed: %v", err)
			} else {
				out.Documents = docs
			}
		}
		if a.tabular != nil {
			cctx, cancel := context.WithTimeout(ctx, a.timeout)
			rows, err := a.tabular.Search(cctx, message)
			cancel()
			if err != nil {
				log.Printf("sheet lookup failed: %v", err)
			} else {
				out.Records = rows
			}
		}
	}

	if schedulingIntents[analysis.Intent] {
		if a.tabular != nil {
			cctx, cancel := context.WithTimeout(ctx, a.timeout)
			rows, err := a.tabular.Availability(cctx)
			cancel()
			if err != nil {
				log.Printf("availability lookup failed: %v", err)
			} else {
				out.Availability = rows
			}
		}
		if a.slots != nil {
			cctx, cancel := context.WithTimeout(ctx, a.timeout)
			slots, err := a.slots.AvailableSlots(cctx, a.now().AddDate(0, 0, 1), time.Hour)
			cancel()
			if err != nil {
				log.Printf("calendar slot lookup failed: %v", err)
			} else {
				out.Slots = slots
			}
		}
	}

	return out
}
