package domain

// User is the identity record the engine receives from the authentication
// state provider. Token issuance and profile management live elsewhere.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
