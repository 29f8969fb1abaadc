package engine

import (
	"fmt"
	"strings"

	"github.com/voidlock/gaffer/internal/domain"
)

// Transcript markers written by the runner. Tool markers are distinct
// from prose so a later reader (human or agent) can tell actions from
// explanations.
const (
	toolMarkerPrefix    = "[tool] "
	errorMarkerPrefix   = "[error] "
	followUpSeparator   = "\n\n## Follow-up Session\n\n"
	autoRetryMarkerTmpl = "\n\n[auto-retry #%d]\n\n"
)

// buildPrompt assembles the conversation prompt for one run from the
// feature's description, spec and steps. For resumes and follow-ups
// the previous transcript and the new instructions are appended as
// distinct sections so the agent sees its own prior work verbatim.
func buildPrompt(f *domain.Feature, previousTranscript, followUp string) string {
	var b strings.Builder

	b.WriteString("You are implementing a feature in this repository.\n\n")
	if f.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n\n", f.Category)
	}
	b.WriteString("## Feature\n\n")
	b.WriteString(strings.TrimSpace(f.Description))
	b.WriteString("\n")

	if f.Spec != "" {
		b.WriteString("\n## Specification\n\n")
		b.WriteString(strings.TrimSpace(f.Spec))
		b.WriteString("\n")
	}

	if len(f.Steps) > 0 {
		b.WriteString("\n## Steps\n\n")
		for i, step := range f.Steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
	}

	for _, img := range f.Images {
		fmt.Fprintf(&b, "\nAttached image: %s", img.Path)
		if img.MimeType != "" {
			fmt.Fprintf(&b, " (%s)", img.MimeType)
		}
		b.WriteString("\n")
	}

	if previousTranscript != "" {
		b.WriteString("\n## Previous session transcript\n\n")
		b.WriteString(previousTranscript)
		b.WriteString("\n")
	}

	if followUp != "" {
		b.WriteString("\n## Follow-up instructions\n\n")
		b.WriteString(strings.TrimSpace(followUp))
		b.WriteString("\n")
	} else if previousTranscript != "" {
		b.WriteString("\nContinue where the previous session left off and finish the feature.\n")
	}

	if f.SkipTests {
		b.WriteString("\nDo not run the test suite; a human will review the change.\n")
	} else {
		fmt.Fprintf(&b, "\nWhen the feature is implemented and its tests pass, run `gaffer verify %s` to mark it verified.\n", f.ID)
	}

	return b.String()
}
