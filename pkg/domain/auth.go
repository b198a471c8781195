package domain

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest is the account registration payload.
type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned by the login endpoint. Access is empty when the
// backend accepted the credentials but issued no token.
type LoginResponse struct {
	Access string `json:"access"`
}

// Profile is the authenticated user's dashboard data.
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}
