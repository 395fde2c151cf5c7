package types

// QueryRequest is the request body of the query endpoint.
type QueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// QueryResult is one ranked hit returned by the query endpoint.
type QueryResult struct {
	Score   float64 `json:"score" yaml:"score"`
	Content string  `json:"content" yaml:"content"`
	Title   *string `json:"title,omitempty" yaml:"title,omitempty"`
}

// QueryResponse is the response body of the query endpoint.
type QueryResponse struct {
	Results []QueryResult `json:"results"`
}
