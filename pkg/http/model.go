package http

// APIResponse is the envelope of every API reply.
type APIResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string         `json:"code,omitempty"`
	Field   string         `json:"field,omitempty"`
	Message string         `json:"message,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

// ListData wraps the rows of a list endpoint. Truncated is set when the
// rows stopped at the requested limit.
type ListData struct {
	Rows      any  `json:"rows"`
	Total     int  `json:"total"`
	Truncated bool `json:"truncated,omitempty"`
}
