package prompt

import (
	"fmt"
	"strings"
)

// ColumnType governs both the instruction appended to a generative request
// and the validity check used to decide whether to escalate tiers.
type ColumnType string

// Supported column types.
const (
	ColumnText    ColumnType = "text"
	ColumnBoolean ColumnType = "boolean"
	ColumnNumber  ColumnType = "number"
)

// ParseColumnType validates a column type string.
func ParseColumnType(s string) (ColumnType, error) {
	switch ColumnType(strings.ToLower(strings.TrimSpace(s))) {
	case ColumnText:
		return ColumnText, nil
	case ColumnBoolean:
		return ColumnBoolean, nil
	case ColumnNumber:
		return ColumnNumber, nil
	default:
		return "", fmt.Errorf("prompt: unknown column type %q", s)
	}
}

// Instruction returns the type-specific directive appended to the system
// instruction.
func (c ColumnType) Instruction() string {
	switch c {
	case ColumnBoolean:
		return "Respond with only yes or no."
	case ColumnNumber:
		return "Respond with only a single number."
	default:
		return "Give a concise, informative response."
	}
}

// baseSystemRole is the role description every generative-column request
// starts from.
const baseSystemRole = "You are a research assistant answering questions about healthcare organizations."

// SystemPrompt composes the full system instruction: base role, type-specific
// directive, and an optional domain context block.
func SystemPrompt(columnType ColumnType, domainContext string) string {
	var b strings.Builder
	b.WriteString(baseSystemRole)
	b.WriteString(" ")
	b.WriteString(columnType.Instruction())
	if domainContext != "" {
		b.WriteString("\n\n")
		b.WriteString(domainContext)
	}
	return b.String()
}

// toString renders a non-string field value for substitution.
func toString(v any) string {
	return fmt.Sprintf("%v", v)
}
