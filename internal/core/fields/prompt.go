package fields

import (
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// Request is what the extraction service receives for one document.
type Request struct {
	DocumentID string
	System     string
	User       string
}

const systemPrompt = "You are an expert at extracting structured data from invoices. " +
	"Always return valid JSON format with the exact field names provided. Be thorough and accurate."

// BuildSystemPrompt returns the fixed system message.
func BuildSystemPrompt() string { return systemPrompt }

// BuildUserPrompt lists every canonical field with its synonym hints, the
// formatting rules and then the cleaned invoice text.
func BuildUserPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Extract the following information from the provided invoice text and return it in JSON format.\n")
	b.WriteString("If any information is not found, use \"" + constants.NotAvailable + "\" as the value.\n\n")
	b.WriteString("Look for these fields with various possible names/abbreviations:\n")
	for _, f := range constants.Fields() {
		b.WriteString("- ")
		b.WriteString(string(f))
		if syn := constants.Synonyms(f); len(syn) > 0 {
			b.WriteString(" (could be: ")
			b.WriteString(strings.Join(syn, ", "))
			b.WriteString(", etc.)")
		}
		b.WriteString("\n")
	}
	b.WriteString("\nInstructions:\n")
	b.WriteString("1. Look carefully through the entire text\n")
	b.WriteString("2. Extract numerical values as numbers (not strings) when possible\n")
	b.WriteString("3. Extract dates in a consistent format (YYYY-MM-DD if possible)\n")
	b.WriteString("4. Be flexible with field names and variations\n")
	b.WriteString("5. If multiple items are present, extract the first/main item or aggregate data\n")
	b.WriteString("\nInvoice text:\n")
	b.WriteString(text)
	b.WriteString("\n\nReturn only valid JSON format with the above fields as keys. Use the exact field names provided above.")
	return b.String()
}

// BuildRequest assembles the request for text that already passed the length guard.
func BuildRequest(documentID, text string) Request {
	return Request{DocumentID: documentID, System: BuildSystemPrompt(), User: BuildUserPrompt(text)}
}
