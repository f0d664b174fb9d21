package pipeline

import (
	"strings"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/ledger-bot/internal/domain"
)

// buildExtractionPrompt constructs the system instruction listing every active
// category name, grouped by section, formatted for LLM consumption.
func buildExtractionPrompt(categories []domain.Category) string {
	var b strings.Builder
	b.WriteString("You parse personal finance messages for a chat bot.\n")
	b.WriteString("The message is short and may use abbreviations (12k, 2.5k) or words for numbers.\n\n")
	b.WriteString("Return ONLY a JSON object with these fields:\n")
	b.WriteString("- \"op_date\": string, ISO format \"YYYY-MM-DD\"; the operation date, today if not stated\n")
	b.WriteString("- \"amount\": integer, whole currency units; 0 if no amount is present\n")
	b.WriteString("- \"category\": string, EXACTLY one of the allowed names below, or \"\"\n")
	b.WriteString("- \"needs_review\": boolean, true when the category is uncertain\n\n")

	b.WriteString("Allowed categories:\n")
	section := ""
	for _, c := range categories {
		if c.Section != section {
			section = c.Section
			b.WriteString(section + ":\n")
		}
		b.WriteString("  - " + c.Name + "\n")
	}

	b.WriteString("\nRules:\n")
	b.WriteString("1. If the category is unclear or several fit, set category to \"\" and needs_review to true.\n")
	b.WriteString("2. If the category is clear, set needs_review to false.\n")
	b.WriteString("3. Normalize amounts: \"12k\" = 12000, \"two thousand\" = 2000.\n")
	b.WriteString("4. Resolve relative dates (\"yesterday\") against the given today.\n")
	b.WriteString("\nReturn ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	return b.String()
}

// buildUserPrompt carries the reference date and the raw message.
func buildUserPrompt(text string, today civil.Date) string {
	return "today=" + today.String() + "\ntext=" + text
}

const transcribePrompt = "Transcribe this voice note verbatim in its original language. " +
	"Return only the spoken text, without quotes, labels or commentary. " +
	"If nothing intelligible is said, return an empty response."
