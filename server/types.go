package server

// ListResponse wraps the results of the listing endpoints
type ListResponse[T any] struct {
	Results []T `json:"results"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
