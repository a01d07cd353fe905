package dto

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Validate reports every invalid field.
func (r RegisterRequest) Validate() []Issue {
	var issues []Issue
	issues = requireEmail(issues, "email", r.Email)
	issues = requireString(issues, "password", r.Password)
	issues = requireString(issues, "name", r.Name)
	return issues
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate reports every invalid field.
func (r LoginRequest) Validate() []Issue {
	var issues []Issue
	issues = requireEmail(issues, "email", r.Email)
	issues = requireString(issues, "password", r.Password)
	return issues
}

// TokenResponse is the 200 body for a successful login.
type TokenResponse struct {
	Token string `json:"token"`
}

// SuccessResponse is the 201 body for a successful registration.
type SuccessResponse struct {
	Success bool `json:"success"`
}
