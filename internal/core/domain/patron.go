package domain

type Patron struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
}
