package assistant

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompt.tmpl
var promptText string

var promptTemplate = template.Must(template.New("prompt").Parse(promptText))

// PromptData fills the prompt template
type PromptData struct {
	Message string
	Summary string
}

// BuildPrompt renders the model prompt for a user message and its nutrition summary
func BuildPrompt(message, summary string) (string, error) {
	var b strings.Builder
	if err := promptTemplate.Execute(&b, PromptData{Message: message, Summary: summary}); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return b.String(), nil
}
