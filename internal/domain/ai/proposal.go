package ai

import (
	"regexp"
	"slices"
	"strings"
)

// Proposal is the suggested name and category for one file. Never persisted.
type Proposal struct {
	Filename string `json:"filename"`
	Category string `json:"category"`
}

var (
	rxFilename = regexp.MustCompile(`(?i)FILENAME:[ \t]*(.*)`)
	rxCategory = regexp.MustCompile(`(?i)CATEGORY:[ \t]*(.*)`)
)

// ParseProposal reads the two-line reply format. Line order and surrounding
// text do not matter; both values must be non-empty after trimming.
func ParseProposal(text string) (Proposal, bool) {
	filename := captureLine(rxFilename, text)
	category := captureLine(rxCategory, text)
	if filename == "" || category == "" {
		return Proposal{}, false
	}
	return Proposal{Filename: filename, Category: category}, true
}

func captureLine(rx *regexp.Regexp, text string) string {
	m := rx.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return cleanValue(m[1])
}

// cleanValue trims whitespace plus markdown emphasis and quotes models like to add.
func cleanValue(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*`\""))
}

// SelectModel picks the first catalog entry that can generate content, whose
// name carries the family marker and that is not an embedding model.
func SelectModel(models []Model, family string) (Model, error) {
	family = strings.ToLower(family)
	for _, m := range models {
		name := strings.ToLower(m.Name)
		if !slices.Contains(m.Methods, MethodGenerateContent) {
			continue
		}
		if family != "" && !strings.Contains(name, family) {
			continue
		}
		if strings.Contains(name, "embed") {
			continue
		}
		return m, nil
	}
	return Model{}, ErrNoModelAvailable
}
