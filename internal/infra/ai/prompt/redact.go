package prompt

import (
	"regexp"
)

// Secret and credential detectors. Matches are replaced before an excerpt
// is sent to the model.
var detectors = []struct {
	re    *regexp.Regexp
	label string
}{
	// Private keys
	{regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----[\s\S]*?(?:-----END (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----|$)`), "private-key"},
	// AWS
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), "aws-access-key"},
	{regexp.MustCompile(`(?i)aws_secret_access_key\s*[:=]\s*["']?[A-Za-z0-9/+=]{20,}`), "aws-secret"},
	// GitHub
	{regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{20,}`), "github-token"},
	{regexp.MustCompile(`github_pat_[A-Za-z0-9_]{20,}`), "github-pat"},
	// Google
	{regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`), "google-api-key"},
	// Slack
	{regexp.MustCompile(`xox[baprs]-[A-Za-z0-9\-]{10,}`), "slack-token"},
	// Stripe
	{regexp.MustCompile(`sk_(?:live|test)_[0-9A-Za-z]{10,}`), "stripe-key"},
	// OpenAI
	{regexp.MustCompile(`\bsk-(?:proj-)?[A-Za-z0-9_-]{20,}`), "openai-key"},
	// JWT/Bearer-like
	{regexp.MustCompile(`[A-Za-z0-9-_]{8,}\.eyJ[A-Za-z0-9-_]{5,}\.[A-Za-z0-9-_]{10,}`), "jwt"},
	{regexp.MustCompile(`(?i)authorization\s*[:=]\s*["']?bearer\s+[A-Za-z0-9\-\._~\+\/]+=*`), "bearer-token"},
	// Generic key hints
	{regexp.MustCompile(`(?i)(api[_-]?key|client[_-]?secret|secret|token|password)\s*[:=]\s*["']?[^\s"']{12,}`), "credential"},
	// URL with basic auth
	{regexp.MustCompile(`://[^\s/:@]+:[^\s/@]+@`), "url-credentials"},
}

// Redactor masks credential-looking substrings.
type Redactor struct {
	// Hits counts replacements by detector label over the redactor's lifetime.
	Hits map[string]int
}

func NewRedactor() *Redactor {
	return &Redactor{Hits: make(map[string]int)}
}

// Redact replaces every detector match with [REDACTED:<label>].
func (r *Redactor) Redact(text string) string {
	for _, d := range detectors {
		text = d.re.ReplaceAllStringFunc(text, func(string) string {
			if r.Hits != nil {
				r.Hits[d.label]++
			}
			return "[REDACTED:" + d.label + "]"
		})
	}
	return text
}
