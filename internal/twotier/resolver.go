// Package twotier resolves generative-column values by trying a cheap model
// first and escalating to a stronger one on ambiguous output.
package twotier

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/attendee-enrich/internal/prompt"
	"github.com/sells-group/attendee-enrich/pkg/anthropic"
)

// maxResponseTokens bounds generative responses for column values.
const maxResponseTokens = 200

// ValidationError reports a generative response that failed the
// type-specific check even after escalation. The raw response is preserved
// for the caller.
type ValidationError struct {
	ColumnType prompt.ColumnType
	Raw        string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("twotier: %s response failed validation: %q", e.ColumnType, e.Raw)
}

// Resolution is the outcome of a two-tier resolve call.
type Resolution struct {
	// Value is bool for boolean columns, float64 for number columns, and
	// string for text columns.
	Value     any
	ModelUsed string
	Raw       string
}

// Config names the two model tiers.
type Config struct {
	CheapModel  string
	StrongModel string
}

// Resolver issues cheap-tier requests and escalates on ambiguity.
type Resolver struct {
	ai  anthropic.Client
	cfg Config
}

// NewResolver creates a two-tier resolver.
func NewResolver(ai anthropic.Client, cfg Config) *Resolver {
	return &Resolver{ai: ai, cfg: cfg}
}

// Resolve renders a column value for the given prompt. The cheap tier is
// tried first at temperature 0; if its response fails the column type's
// validity check, an equivalent request is reissued against the strong tier
// and that response is used instead. systemContext, when non-empty, is
// appended to the composed system instruction.
func (r *Resolver) Resolve(ctx context.Context, userPrompt string, columnType prompt.ColumnType, systemContext string) (*Resolution, error) {
	system := prompt.SystemPrompt(columnType, systemContext)

	raw, err := r.complete(ctx, r.cfg.CheapModel, system, userPrompt)
	if err != nil {
		return nil, eris.Wrap(err, "twotier: cheap tier")
	}

	model := r.cfg.CheapModel
	if ambiguous(raw, columnType) {
		zap.L().Debug("twotier: escalating to strong tier",
			zap.String("column_type", string(columnType)),
			zap.String("cheap_response", raw),
		)
		raw, err = r.complete(ctx, r.cfg.StrongModel, system, userPrompt)
		if err != nil {
			return nil, eris.Wrap(err, "twotier: strong tier")
		}
		model = r.cfg.StrongModel
	}

	value, err := postProcess(raw, columnType)
	if err != nil {
		return nil, err
	}

	return &Resolution{Value: value, ModelUsed: model, Raw: raw}, nil
}

func (r *Resolver) complete(ctx context.Context, model, system, userPrompt string) (string, error) {
	temp := 0.0
	resp, err := r.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       model,
		MaxTokens:   maxResponseTokens,
		Temperature: &temp,
		System:      []anthropic.SystemBlock{{Text: system}},
		Messages:    []anthropic.Message{{Role: "user", Content: userPrompt}},
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(model, "column_resolve")
	return resp.Text(), nil
}

// ambiguous reports whether a cheap-tier response needs escalation. The check
// applies to every column type: a boolean must be exactly yes/no, a number
// must parse, and a text response must be non-empty.
func ambiguous(raw string, columnType prompt.ColumnType) bool {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch columnType {
	case prompt.ColumnBoolean:
		return normalized != "yes" && normalized != "no"
	case prompt.ColumnNumber:
		_, err := parseNumber(raw)
		return err != nil
	default:
		return normalized == ""
	}
}

func postProcess(raw string, columnType prompt.ColumnType) (any, error) {
	switch columnType {
	case prompt.ColumnBoolean:
		return strings.EqualFold(strings.TrimSpace(raw), "yes"), nil
	case prompt.ColumnNumber:
		n, err := parseNumber(raw)
		if err != nil {
			return nil, &ValidationError{ColumnType: columnType, Raw: raw}
		}
		return n, nil
	default:
		return strings.TrimSpace(raw), nil
	}
}

// parseNumber parses a numeric response, tolerating surrounding whitespace
// and thousands separators.
func parseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	return strconv.ParseFloat(s, 64)
}
