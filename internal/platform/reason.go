package platform

import (
	"context"
	"strings"

	"github.com/aretw0/quadrant/pkg/core"
)

// Change types for semantic commit messages.
const (
	ChangeTypeFeat     = "feat"
	ChangeTypeFix      = "fix"
	ChangeTypeDocs     = "docs"
	ChangeTypeRefactor = "refactor"
	ChangeTypeChore    = "chore"
)

const footer = "Powered-by: Quadrant"

// FormatChangeReason builds a Conventional Commit message:
//
//	<type>(<scope>): <subject>
//
//	<body>
//
//	Powered-by: Quadrant
func FormatChangeReason(ctype, scope, subject, body string) string {
	var sb strings.Builder

	if ctype == "" {
		ctype = ChangeTypeChore
	}
	sb.WriteString(ctype)
	if scope != "" {
		sb.WriteString("(")
		sb.WriteString(scope)
		sb.WriteString(")")
	}
	sb.WriteString(": ")
	sb.WriteString(subject)

	if body = strings.TrimSpace(body); body != "" {
		sb.WriteString("\n\n")
		sb.WriteString(body)
	}

	sb.WriteString("\n\n")
	sb.WriteString(footer)
	return sb.String()
}

// AppendFooter appends the footer to a free-form message if not present.
func AppendFooter(msg string) string {
	if strings.Contains(msg, footer) {
		return msg
	}
	msg = strings.TrimRight(msg, "\n")
	return msg + "\n\n" + footer
}

// WithChangeReason attaches the commit message a versioned vault records
// for mutations made with ctx.
func WithChangeReason(ctx context.Context, msg string) context.Context {
	return context.WithValue(ctx, core.ChangeReasonKey, msg)
}
