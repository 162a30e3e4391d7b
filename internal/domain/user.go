package domain

type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// TokenPair is the bearer token pair issued on login/register.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
