package domain

type Book struct {
	ID       string
	Title    string
	Author   string
	ISBN     string
	Borrowed bool
}
