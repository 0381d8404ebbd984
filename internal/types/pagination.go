package types

// Page is a paginated result set.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// ErrorResponse is the body of non-validation failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FieldErrors maps a request field to its problems.
type FieldErrors map[string][]string
