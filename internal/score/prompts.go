package score

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/screen.md
var screenPromptRaw string

// ScreenTemplate is the parsed screening prompt. Parsed once at package init;
// reused on every Score call.
var ScreenTemplate = template.Must(template.New("screen").Parse(screenPromptRaw))
