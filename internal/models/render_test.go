package models_test

import (
	"strings"
	"testing"

	"github.com/Pacifique5/AI-BOT/internal/models"
)

func TestRenderContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "markdown emphasis",
			content: "this is **important**",
			want:    "<strong>important</strong>",
		},
		{
			name:    "fenced code block",
			content: "```go\nfmt.Println(\"hi\")\n```",
			want:    "Println",
		},
		{
			name:    "raw html is escaped",
			content: `<script>alert("x")</script>`,
			want:    "&lt;script&gt;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := models.RenderContent(tt.content)
			if err != nil {
				t.Fatalf("RenderContent() error = %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("RenderContent() = %q, want to contain %q", got, tt.want)
			}
		})
	}
}
