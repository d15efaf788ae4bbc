package twotier

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/attendee-enrich/pkg/anthropic"
	"github.com/sells-group/attendee-enrich/pkg/definitive"
)

// maxContextMatches caps directory matches enumerated in a context block.
const maxContextMatches = 3

// maxExtractionTokens bounds the organization-name extraction response.
const maxExtractionTokens = 100

// noneSentinel is what the extraction model returns when the prompt names no
// organization.
const noneSentinel = "NONE"

const extractionSystem = "You identify organizations mentioned in text. " +
	"Respond with only the name of the single most prominent organization mentioned, " +
	"or NONE if no organization is mentioned."

// neutralContext is the fallback block when no directory match is available.
const neutralContext = "--- Directory Lookup ---\n" +
	"A healthcare directory lookup was attempted for this prompt but found no matching organization. " +
	"Rely on your general knowledge."

// Directory serves the cached directory snapshot for context lookups.
type Directory interface {
	GetAll(ctx context.Context) []definitive.Record
}

// ContextBuilder augments generative prompts with directory data about the
// organization the prompt mentions.
type ContextBuilder struct {
	ai    anthropic.Client
	dir   Directory
	model string
}

// NewContextBuilder creates a context builder. model should be the cheap
// tier; extraction is a trivial task.
func NewContextBuilder(ai anthropic.Client, dir Directory, model string) *ContextBuilder {
	return &ContextBuilder{ai: ai, dir: dir, model: model}
}

// Build extracts the most prominent organization from the rendered prompt,
// looks it up in the directory, and returns a context block to append to the
// system instruction. Extraction failures and misses degrade to a neutral
// block; Build never fails.
func (b *ContextBuilder) Build(ctx context.Context, renderedPrompt string) string {
	name := b.extractOrgName(ctx, renderedPrompt)
	if name == "" {
		return neutralContext
	}

	matches := findDirectoryMatches(b.dir.GetAll(ctx), name)
	if len(matches) == 0 {
		return neutralContext
	}

	return formatMatches(matches)
}

func (b *ContextBuilder) extractOrgName(ctx context.Context, renderedPrompt string) string {
	temp := 0.0
	resp, err := b.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       b.model,
		MaxTokens:   maxExtractionTokens,
		Temperature: &temp,
		System:      []anthropic.SystemBlock{{Text: extractionSystem}},
		Messages:    []anthropic.Message{{Role: "user", Content: renderedPrompt}},
	})
	if err != nil {
		zap.L().Warn("twotier: org extraction failed, using neutral context", zap.Error(err))
		return ""
	}

	name := strings.TrimSpace(resp.Text())
	if name == "" || strings.EqualFold(name, noneSentinel) {
		return ""
	}
	return name
}

// findDirectoryMatches searches for an exact case-insensitive name match
// first, then falls back to substring containment in either direction.
func findDirectoryMatches(records []definitive.Record, name string) []definitive.Record {
	nameLower := strings.ToLower(strings.TrimSpace(name))
	if nameLower == "" {
		return nil
	}

	var exact []definitive.Record
	for _, rec := range records {
		if strings.EqualFold(strings.TrimSpace(rec.Name), name) {
			exact = append(exact, rec)
			if len(exact) == maxContextMatches {
				return exact
			}
		}
	}
	if len(exact) > 0 {
		return exact
	}

	var partial []definitive.Record
	for _, rec := range records {
		recLower := strings.ToLower(rec.Name)
		if strings.Contains(recLower, nameLower) || strings.Contains(nameLower, recLower) {
			partial = append(partial, rec)
			if len(partial) == maxContextMatches {
				break
			}
		}
	}
	return partial
}

func formatMatches(matches []definitive.Record) string {
	var b strings.Builder
	b.WriteString("--- Health System Directory Data ---\n")
	b.WriteString("Use this verified directory data to inform your answer, but do not cite it directly.\n")
	for _, m := range matches {
		fmt.Fprintf(&b, "\n%s", m.Name)
		if m.FirmType != "" {
			fmt.Fprintf(&b, "\n  Type: %s", m.FirmType)
		}
		if m.EMRVendorAmbulatory != "" {
			fmt.Fprintf(&b, "\n  Ambulatory EMR: %s", m.EMRVendorAmbulatory)
		}
		if m.EMRVendorInpatient != "" {
			fmt.Fprintf(&b, "\n  Inpatient EMR: %s", m.EMRVendorInpatient)
		}
		if m.NetPatientRevenue > 0 {
			fmt.Fprintf(&b, "\n  Net Patient Revenue: $%d", m.NetPatientRevenue)
		}
		if m.NumBeds > 0 {
			fmt.Fprintf(&b, "\n  Beds: %d", m.NumBeds)
		}
		if m.NumHospitals > 0 {
			fmt.Fprintf(&b, "\n  Hospitals in Network: %d", m.NumHospitals)
		}
		if m.Website != "" {
			fmt.Fprintf(&b, "\n  Website: %s", m.Website)
		}
		if m.City != "" || m.State != "" {
			fmt.Fprintf(&b, "\n  Location: %s, %s", m.City, m.State)
		}
		b.WriteString("\n")
	}
	return b.String()
}
