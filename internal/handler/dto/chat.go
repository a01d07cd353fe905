package dto

// CreateChatRequest is the body for POST /chat.
type CreateChatRequest struct {
	Name string `json:"name"`
}

// Validate reports every invalid field.
func (r CreateChatRequest) Validate() []Issue {
	var issues []Issue
	if r.Name == "" {
		issues = append(issues, Issue{
			Path:    []string{"name"},
			Code:    CodeTooSmall,
			Message: "String must contain at least 1 character(s)",
		})
	}
	return issues
}

// PostMessageRequest is the body for POST /chat/{id}/message.
type PostMessageRequest struct {
	Message string `json:"message"`
}

// Validate reports every invalid field.
func (r PostMessageRequest) Validate() []Issue {
	return requireString(nil, "message", r.Message)
}

// DeleteMessageRequest is the body for DELETE /chat. The message id
// travels in the body, not the path, for compatibility with existing
// clients.
type DeleteMessageRequest struct {
	ID string `json:"id"`
}

// Validate reports every invalid field.
func (r DeleteMessageRequest) Validate() []Issue {
	return requireString(nil, "id", r.ID)
}
