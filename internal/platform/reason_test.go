package platform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/quadrant/pkg/core"
)

func TestFormatChangeReason(t *testing.T) {
	tests := []struct {
		name                        string
		ctype, scope, subject, body string
		want                        string
	}{
		{
			name:  "Full",
			ctype: ChangeTypeFeat, scope: "doFirst", subject: "move launch.md", body: "  from inbox\n",
			want: "feat(doFirst): move launch.md\n\nfrom inbox\n\nPowered-by: Quadrant",
		},
		{
			name:    "Defaults To Chore",
			subject: "tidy",
			want:    "chore: tidy\n\nPowered-by: Quadrant",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatChangeReason(tt.ctype, tt.scope, tt.subject, tt.body))
		})
	}
}

func TestAppendFooter(t *testing.T) {
	assert.Equal(t, "triage\n\nPowered-by: Quadrant", AppendFooter("triage\n"))
	once := AppendFooter("triage")
	assert.Equal(t, once, AppendFooter(once))
}

func TestWithChangeReason(t *testing.T) {
	ctx := WithChangeReason(context.Background(), "feat: move")
	assert.Equal(t, "feat: move", ctx.Value(core.ChangeReasonKey))
}
