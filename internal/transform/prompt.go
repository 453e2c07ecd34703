// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"bytes"
	"text/template"

	"github.com/jaden/paper-pipeline/internal/assemble"
)

// transcriptPromptTmpl is the prompt for the neighbor-window stage. Section
// order is fixed: instructions, previous window, current window (the material
// to process), next window, previous output, final directive. The banner
// layout and labels are part of the contract with the instructions files.
var transcriptPromptTmpl = template.Must(template.New("transcript").Parse(`{{.Instructions}}

================================================================================
PREVIOUS ORIGINAL WINDOW (for context only):
================================================================================
{{.Previous}}

================================================================================
CURRENT ORIGINAL WINDOW (PROCESS THIS):
================================================================================
{{.Current}}

================================================================================
NEXT ORIGINAL WINDOW (for context only):
================================================================================
{{.Next}}

================================================================================
PREVIOUS TRANSCRIPT OUTPUT (for consistency):
================================================================================
{{.PreviousOutput}}

================================================================================
YOUR TASK:
Convert ONLY the CURRENT ORIGINAL WINDOW into transcript format following all rules.
Return ONLY the transcript text, nothing else.
`))

// expansionPromptTmpl is the prompt for the full-document stage. It carries
// the entire input document for long-range references and, when
// RepeatCurrent is set, restates the current window after the previous output
// to discourage rewording.
var expansionPromptTmpl = template.Must(template.New("expansion").Parse(`{{.Instructions}}

================================================================================
FULL ORIGINAL TRANSCRIPT (for paper-wide context and references):
================================================================================
{{.FullDocument}}

================================================================================
CURRENT TRANSCRIPT WINDOW (EXPAND THIS):
================================================================================
{{.Current}}

================================================================================
PREVIOUS EXPANSION OUTPUT (for consistency):
================================================================================
{{.PreviousOutput}}
{{if .RepeatCurrent}}
================================================================================
CURRENT WINDOW REPEATED (to reduce risk of rewording):
================================================================================
{{.Current}}
{{end}}
================================================================================
YOUR TASK:
Expand ONLY the CURRENT TRANSCRIPT WINDOW following all rules.
Quote each sentence/phrase, then provide the expansion.
Return ONLY the expanded text, nothing else.
`))

// promptData is the template input: the stage instructions plus the window's
// context bundle.
type promptData struct {
	Instructions string
	assemble.Bundle
}

// renderPrompt executes the mode-appropriate template for one window.
func renderPrompt(instructions string, bundle assemble.Bundle) (string, error) {
	tmpl := transcriptPromptTmpl
	if bundle.Mode == assemble.ModeFullDocument {
		tmpl = expansionPromptTmpl
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, promptData{Instructions: instructions, Bundle: bundle}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
