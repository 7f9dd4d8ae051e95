package models

// Snippet categories accepted by the content search provider.
const (
	SnippetQuran   = "quran"
	SnippetHadith  = "hadith"
	SnippetOpening = "opening"
	SnippetClosing = "closing"
)

// Snippet holds one reference snippet returned by the content search
// provider: a verse, hadith, opening or closing with its citation.
type Snippet struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	ArabicText  string `json:"arabicText"`
	EnglishText string `json:"englishText"`
	Reference   string `json:"reference"`
	Grade       string `json:"grade,omitempty"` // authenticity tag, hadith only
}
