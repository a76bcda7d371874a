// Package extract scans model replies for embedded code, persists each
// region as a code artifact and substitutes a short placeholder so the
// same code is not duplicated in the rendered prose.
package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"codechat/internal/models"
)

// ArtifactStore is the persistence dependency of the extractor.
type ArtifactStore interface {
	AddCodeArtifact(ctx context.Context, conversationID int64, content, language string, isExecutable bool, metadata models.Metadata) (int64, error)
}

var fencedBlock = regexp.MustCompile("```" + `(\w+)?` + "\n" + `([\s\S]*?)` + "```")

// unfenced patterns, tried in this order. All non-overlapping matches per
// pattern are captured independently.
var codePatterns = []struct {
	re       *regexp.Regexp
	language string
}{
	{regexp.MustCompile(`(?:^|\n)((?:def|class|async def|from|import) [^\n]+(?:\n(?:    |\t)[^\n]+)*)`), "python"},
	{regexp.MustCompile(`(?:^|\n)((?:function|const|let|var|class|async function) [^\n]+(?:\n    [^\n]+)*)`), "javascript"},
	{regexp.MustCompile(`(?:^|\n)((?:<[^>]+>)(?:\n|.)*?(?:</[^>]+>))`), "html"},
	{regexp.MustCompile(`(?:^|\n)([a-z-]+\s*\{[^}]*\})`), "css"},
}

// Extractor persists code regions found in assistant replies.
type Extractor struct {
	store    ArtifactStore
	classify Classifier
	log      *log.Entry
}

// New constructs an Extractor with the default keyword classifier.
func New(store ArtifactStore) *Extractor {
	return &Extractor{
		store:    store,
		classify: KeywordClassifier{},
		log:      log.WithField("component", "extract"),
	}
}

// Extract runs both passes over text and returns the placeholder-substituted
// text plus the artifacts stored during this call. Fenced blocks always take
// precedence: their matches are replaced before the heuristic pass runs.
// Duplicate suppression is exact content equality within this call only.
func (e *Extractor) Extract(ctx context.Context, conversationID int64, text string) (string, []models.CodeArtifact, error) {
	var artifacts []models.CodeArtifact

	// Pass 1: fenced blocks with an optional language tag.
	for _, m := range fencedBlock.FindAllStringSubmatch(text, -1) {
		content := strings.TrimSpace(m[2])
		if content == "" {
			continue
		}
		language := m[1]
		if language == "" || language == "text" {
			if guess := e.classify.Classify(content); guess != "" {
				language = guess
			} else if language == "" {
				language = "text"
			}
		}

		id, err := e.store.AddCodeArtifact(ctx, conversationID, content, language, false, nil)
		if err != nil {
			return text, artifacts, err
		}
		artifacts = append(artifacts, models.CodeArtifact{
			ID:             id,
			ConversationID: conversationID,
			Content:        content,
			Language:       language,
			Timestamp:      time.Now().UTC(),
		})

		// Remove the block so pass 2 does not re-match the same text.
		text = strings.ReplaceAll(text, m[0], fmt.Sprintf("[Code block in %s]", language))
	}

	// Pass 2: unfenced heuristics over the placeholder-substituted text.
	for _, p := range codePatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			content := strings.TrimSpace(m[1])
			if content == "" || containsContent(artifacts, content) {
				continue
			}
			id, err := e.store.AddCodeArtifact(ctx, conversationID, content, p.language, false, nil)
			if err != nil {
				return text, artifacts, err
			}
			artifacts = append(artifacts, models.CodeArtifact{
				ID:             id,
				ConversationID: conversationID,
				Content:        content,
				Language:       p.language,
				Timestamp:      time.Now().UTC(),
			})
		}
	}

	if len(artifacts) > 0 {
		e.log.WithFields(log.Fields{
			"conversation_id": conversationID,
			"artifacts":       len(artifacts),
		}).Debug("extracted code artifacts")
	}
	return text, artifacts, nil
}

func containsContent(artifacts []models.CodeArtifact, content string) bool {
	for _, a := range artifacts {
		if a.Content == content {
			return true
		}
	}
	return false
}
