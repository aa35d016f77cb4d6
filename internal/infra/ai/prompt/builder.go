package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/analysis"
)

// DefaultLanguage is the language the answers are written in unless configured.
const DefaultLanguage = "Brazilian Portuguese"

// Builder composes the instruction text for one analysis.
type Builder struct {
	Language string
}

func NewBuilder(language string) *Builder {
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}
	return &Builder{Language: language}
}

// Build is deterministic: the same request always yields the same prompt.
func (b *Builder) Build(req analysis.Request) analysis.Prompt {
	return analysis.Prompt{
		Text:   b.text(req),
		Schema: OutputSchema(),
	}
}

func (b *Builder) text(req analysis.Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze the GitHub repository: %s\n\n", req.RepositoryURL)
	sb.WriteString("Context: this code was most likely produced by rapid prototyping. ")
	sb.WriteString("Act as an experienced CTO and CPO whose goal is to turn it into a real product.\n\n")
	sb.WriteString("Instructions:\n")
	sb.WriteString("1. Use Google Search to understand the repository content, README and structure.\n")
	sb.WriteString("2. Infer the business logic and the data requirements.\n")
	sb.WriteString(storageInstructions(req.StorageModel))
	sb.WriteString("6. Explain your technical choices in 'explanation'.\n")
	sb.WriteString("7. Define a technical and product strategy in 'strategy'.\n")
	sb.WriteString("8. Create 2 to 3 detailed personas of who would use this.\n")
	sb.WriteString("9. Create a sales plan: how to sell, where to advertise, how to charge.\n")
	sb.WriteString("10. Point out common mistakes in apps of this kind (logic bugs, security flaws, poor UX) in 'critiques'.\n")
	sb.WriteString("11. Suggest concrete improvements to professionalize the app in 'improvements'.\n\n")
	fmt.Fprintf(&sb, "Answer everything strictly in %s.\n", b.Language)
	sb.WriteString("Keep the enum values of the response schema exactly as written, in English.\n")
	sb.WriteString("Reply with a single JSON object that follows the response schema, without code fences.\n")
	return sb.String()
}

func storageInstructions(m analysis.StorageModel) string {
	if m == analysis.StorageDocument {
		return "3. Design a document-oriented NoSQL data structure for Firebase (Firestore).\n" +
			"4. Provide a Mermaid diagram of the collections and sub-collections in 'mermaidDiagram'.\n" +
			"5. In 'schemaCode', provide a JSON document describing the data structure AND the basic security rules (firestore.rules).\n"
	}
	return "3. Design a normalized relational database schema (PostgreSQL).\n" +
		"4. Provide the entity-relationship diagram in 'mermaidDiagram' using valid Mermaid 'erDiagram' syntax.\n" +
		"5. Write the SQL DDL statements that create the tables and relationships in 'schemaCode'.\n"
}
