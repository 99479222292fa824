// Package result defines ranked search hits returned by the index.
package result

// Hit is one ranked document: its relevance score and stored fields.
type Hit struct {
	Score  float64        `json:"score"`
	Fields map[string]any `json:"fields"`
}
