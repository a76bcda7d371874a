package chat

import (
	"context"
	"fmt"
	"strings"

	"codechat/internal/compress"
	"codechat/internal/service/ai"
)

const systemPrompt = `You are CodeChat, an AI assistant specialized in software development.
When processing code, you must ensure the following:
1. Code logic is correct and complete.
2. The code is ready to integrate into a working application.
3. You must check for missing imports, dependencies, or incorrect syntax.
4. If modifications are required, provide the full updated code with proper reasoning.
5. Always refer to the codebase in the attached file for context and ensure consistency.
6. Your output must be clean, well-commented, and adhere to best practices and coding standards.
7. Any suggestions should aim at improving readability, maintainability, and performance.
8. When providing code updates, always give the full file, ensuring it's ready to be copied and pasted.`

// assembleContext builds the outbound payload for one conversation: the
// system prompt extended with compressed file contexts and stored
// artifacts, plus all prior turns in order.
func (s *Service) assembleContext(ctx context.Context, conversationID int64) (string, []ai.Turn, error) {
	messages, err := s.store.GetMessages(ctx, conversationID)
	if err != nil {
		return "", nil, err
	}
	contexts, err := s.store.GetProjectContexts(ctx, conversationID)
	if err != nil {
		return "", nil, err
	}
	artifacts, err := s.store.GetCodeArtifacts(ctx, conversationID)
	if err != nil {
		return "", nil, err
	}

	var system strings.Builder
	system.WriteString(systemPrompt)

	if len(contexts) > 0 {
		system.WriteString("\n\nProject Context Files:\n")
		for _, pc := range contexts {
			compressed := compress.File(pc.FilePath, pc.FileContent)
			fmt.Fprintf(&system, "\n# File: %s\n%s\n", pc.FilePath, compressed)
		}
	}

	if len(artifacts) > 0 {
		system.WriteString("\n\nCode Artifacts:\n")
		for _, a := range artifacts {
			compressed := compress.File("artifact."+a.Language, a.Content)
			fmt.Fprintf(&system, "\n# Language: %s\n%s\n", a.Language, compressed)
		}
	}

	turns := make([]ai.Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, ai.Turn{Role: m.Role, Content: m.Content})
	}
	return system.String(), turns, nil
}
