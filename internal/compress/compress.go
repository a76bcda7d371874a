// Package compress reduces the token footprint of source-like text before
// it is persisted or sent upstream. It is a line-oriented heuristic, not a
// parser: comment and string conventions are simplified, and nested or
// escaped quotes will be mis-handled. Best-effort size reduction only.
package compress

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	docstringOpen = regexp.MustCompile(`^\s*('''|""")`)
	fullLineHash  = regexp.MustCompile(`^\s*#`)
)

// File compresses content according to its file extension. Structured
// formats are passed through untouched since compression would corrupt
// them.
func File(path, content string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "json", "yaml", "yml":
		return content
	}
	return Source(content)
}

// Source strips blank lines, comments and redundant whitespace while
// preserving doc-comment regions verbatim.
func Source(content string) string {
	lines := strings.Split(content, "\n")
	processed := make([]string, 0, len(lines))

	inDocstring := false
	docQuotes := ""

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if !inDocstring {
			if m := docstringOpen.FindStringSubmatch(line); m != nil {
				processed = append(processed, trimmed)
				docQuotes = m[1]
				// A one-line docstring opens and closes on the same line.
				rest := trimmed[strings.Index(trimmed, docQuotes)+len(docQuotes):]
				if !strings.HasSuffix(rest, docQuotes) {
					inDocstring = true
				}
				continue
			}
		}

		if inDocstring {
			processed = append(processed, trimmed)
			if strings.HasSuffix(trimmed, docQuotes) {
				inDocstring = false
			}
			continue
		}

		if fullLineHash.MatchString(line) {
			continue
		}

		line = stripInlineComment(line)
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			processed = append(processed, line)
		}
	}

	return dedent(strings.Join(processed, "\n"))
}

// stripInlineComment truncates a line at the first # that is not inside a
// quoted string. A simple quote-state scan: toggles on ' and ", no escape
// handling.
func stripInlineComment(line string) string {
	inString := false
	var stringChar byte

	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '"' || c == '\'' {
			if !inString {
				inString = true
				stringChar = c
			} else if c == stringChar {
				inString = false
			}
		}
		if c == '#' && !inString {
			return strings.TrimRight(line[:i], " \t")
		}
	}
	return line
}

// dedent removes leading indentation common to every non-empty line.
func dedent(content string) string {
	lines := strings.Split(content, "\n")

	common := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			common = indent
			first = false
			continue
		}
		j := 0
		for j < len(common) && j < len(indent) && common[j] == indent[j] {
			j++
		}
		common = common[:j]
		if common == "" {
			return content
		}
	}
	if common == "" {
		return content
	}

	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, common)
	}
	return strings.Join(lines, "\n")
}
