package synthesis

import (
	"fmt"
	"strings"

	"github.com/askdoc/askdoc/internal/core/domain"
)

// systemInstruction frames the assistant's role and citation rules for
// every generation request.
const systemInstruction = `You are an assistant that answers questions about uploaded documents.

Rules:
1. Answer only from the retrieved passages below. Combine related passages logically and avoid repetition.
2. Cite the page number of every passage you rely on, in the form (p.N).
3. If the passages do not contain enough information, say so plainly instead of guessing.
4. Use the conversation history to resolve follow-up references and keep the dialogue coherent.
5. Be factual and concise.`

// noContextNotice replaces the passage section when retrieval found
// nothing, so the model does not invent citations.
const noContextNotice = `No relevant passages were found in the document for this question.
State that the document does not appear to contain this information. Do not cite any pages.`

// BuildPrompt assembles the single generation prompt: system
// instruction, history oldest-first, retrieved passages in rank order
// tagged with their source page, then the question.
func BuildPrompt(question string, retrieved []domain.RetrievedChunk, history []domain.Turn) string {
	var b strings.Builder
	b.WriteString(systemInstruction)

	if len(history) > 0 {
		b.WriteString("\n\nConversation history:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", turn.Question, turn.Answer)
		}
	}

	b.WriteString("\n\nRetrieved passages:\n")
	if len(retrieved) == 0 {
		b.WriteString(noContextNotice)
		b.WriteString("\n")
	} else {
		for i, rc := range retrieved {
			fmt.Fprintf(&b, "[%d] (p.%d) %s\n\n", i+1, rc.Chunk.Page, strings.TrimSpace(rc.Chunk.Content))
		}
	}

	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	return b.String()
}
