package prompt

import (
	"fmt"
	"os"
	"strings"
)

// DefaultInstruction asks for a two-line FILENAME/CATEGORY reply.
const DefaultInstruction = `
Analyze the following content (from a doc or text).
Your task is to:
1.  Propose a concise, descriptive filename (5-10 words, no extension, use spaces).
2.  Propose a single, concise category name for a folder (e.g., "Resumes", "Recipes", "Projects", "Invoices").

Respond with ONLY text in the following two-line format:
FILENAME: Your Suggested Filename
CATEGORY: Your Suggested Category

Example response:
FILENAME: Quarterly Business Report Q4 2024
CATEGORY: Reports
`

const (
	contentStart = "\n\n--- FILE CONTENT START --- \n"
	contentEnd   = "\n--- FILE CONTENT END ---"
)

// Template builds the request parts for one excerpt.
type Template struct {
	Instruction string
	Redactor    *Redactor // optional
}

// New returns a Template with the default instruction.
func New() *Template {
	return &Template{Instruction: DefaultInstruction}
}

// LoadInstruction reads a replacement instruction from path. An empty path
// yields the default template.
func LoadInstruction(path string) (*Template, error) {
	if path == "" {
		return New(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt file: %w", err)
	}
	text := string(b)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("prompt file %s is empty", path)
	}
	return &Template{Instruction: text}, nil
}

// Parts returns the instruction followed by the framed excerpt.
func (t *Template) Parts(excerpt string) []string {
	if t.Redactor != nil {
		excerpt = t.Redactor.Redact(excerpt)
	}
	return []string{t.Instruction, contentStart + excerpt + contentEnd}
}
