package extract

import "strings"

// Classifier guesses the language of a code snippet. It is a best-effort
// classifier, not a parser; keep callers behind this interface so a proper
// lexical scanner can replace it.
type Classifier interface {
	Classify(snippet string) string
}

// KeywordClassifier sniffs a handful of statement keywords per language
// family. Returns "" when nothing matches.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(snippet string) string {
	switch {
	case strings.Contains(snippet, "def ") || strings.Contains(snippet, "class ") || strings.Contains(snippet, "import "):
		return "python"
	case strings.Contains(snippet, "function ") || strings.Contains(snippet, "const ") || strings.Contains(snippet, "let "):
		return "javascript"
	case strings.Contains(snippet, "<") && strings.Contains(snippet, ">"):
		return "html"
	case strings.Contains(snippet, "{") && strings.Contains(snippet, "}") && strings.Contains(snippet, ";"):
		return "css"
	}
	return ""
}
