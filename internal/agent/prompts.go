package agent

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/itsharex/gpt-4-search/internal/tools"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed templates/summarize.md
var summarizeDirective string

var instructionTmpl = template.Must(template.ParseFS(templatesFS, "templates/instruction.md"))

type toolView struct {
	Name        string
	Args        string
	Description string
}

// InstructionPrompt renders the prompt that opens a query session.
// A non-empty context is injected as the previous assistant's summary.
func InstructionPrompt(query string, available []tools.Tool, context string) (string, error) {
	views := make([]toolView, 0, len(available))
	for _, t := range available {
		views = append(views, toolView{Name: t.Name(), Args: t.Args(), Description: t.Description()})
	}

	data := struct {
		Tools   []toolView
		Context string
		Query   string
	}{
		Tools:   views,
		Context: context,
		Query:   query,
	}

	var buf bytes.Buffer
	if err := instructionTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render instruction prompt: %w", err)
	}
	return buf.String(), nil
}

// SummarizeDirective asks the model to condense the session for its successor
func SummarizeDirective() string {
	return summarizeDirective
}

// ToolResult wraps a tool's output in a fenced result block
func ToolResult(result string) string {
	return "```result\n" + result + "\n```"
}
