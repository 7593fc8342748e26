package extraction

// Request beschreibt einen Extraction-Auftrag: ein natürlichsprachlicher
// Prompt plus ein Schema, das die erwartete Ergebnisform festlegt.
type Request struct {
	Prompt string         `json:"prompt"`
	Schema map[string]any `json:"schema"`
}

// Paper ist ein einzelnes extrahiertes Paper. Name ist Pflicht; alle
// anderen Felder dürfen fehlen bzw. null sein.
type Paper struct {
	Name        string  `json:"name"`
	Author      string  `json:"author"`
	Year        *int    `json:"year"`
	Abstract    *string `json:"abstract"`
	DOI         *string `json:"doi"`
	Relevance   *string `json:"relevance"`
	KeyInsights *string `json:"key_insights"`
}

// Document ist der validierte Inhalt einer erfolgreichen Extraction-Antwort.
type Document struct {
	Papers  []Paper `json:"papers"`
	Summary string  `json:"summary,omitempty"`
}

// extractRequest ist das Wire-Format für POST /v1/extract.
type extractRequest struct {
	URLs   []string       `json:"urls"`
	Prompt string         `json:"prompt"`
	Schema map[string]any `json:"schema,omitempty"`
}

// extractResponse ist das Wire-Format der Extraction-Antwort.
type extractResponse struct {
	Success bool      `json:"success"`
	Data    *Document `json:"data"`
	Error   string    `json:"error,omitempty"`
}

// PaperSchema gibt das JSON-Schema zurück, das der Extraction-Service für
// Paper-Ergebnisse erfüllen muss: name, author und year pro Item, alle
// weiteren Felder optional/nullable.
func PaperSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"papers": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":         map[string]any{"type": "string"},
						"author":       map[string]any{"type": "string"},
						"year":         map[string]any{"type": []string{"integer", "null"}},
						"abstract":     map[string]any{"type": []string{"string", "null"}},
						"doi":          map[string]any{"type": []string{"string", "null"}},
						"relevance":    map[string]any{"type": []string{"string", "null"}},
						"key_insights": map[string]any{"type": []string{"string", "null"}},
					},
					"required": []string{"name", "author", "year"},
				},
			},
			"summary": map[string]any{"type": "string"},
		},
		"required": []string{"papers"},
	}
}
