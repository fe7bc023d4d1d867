package models

type RegisterIn struct {
	Username string `json:"username" validate:"required,min=2,max=50"`
	Password string `json:"password" validate:"required,min=4,max=100"`
}

type LoginIn struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=100"`
}

type AuthOut struct {
	Username    string `json:"username"`
	AccessToken string `json:"access_token"`
}

type UserMeOut struct {
	Username  string `json:"username"`
	ItemCount int    `json:"item_count"`
}

// Account is the authenticated user of a request.
type Account struct {
	Username  string
	SessionID string
}
