package domain

// AuthUser is the authenticated caller, taken from the session token
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
