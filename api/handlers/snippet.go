package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/minbarhq/minbar-api/config"
	"github.com/minbarhq/minbar-api/content"
)

// Snippet exported for testing purposes
type Snippet struct {
	Provider content.SearchProvider
}

// SnippetSearchHandler proxies a reference search to the content provider.
// Short queries are handled downstream by substituting the default topic.
func (s Snippet) SnippetSearchHandler(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	query := r.URL.Query().Get("q")

	snippets, err := s.Provider.Search(r.Context(), category, query)
	if err != nil {
		config.ErrorStatus("failed to search snippets", http.StatusBadGateway, w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"snippets": snippets,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
