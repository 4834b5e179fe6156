package models

// StudentGroup is referenced by lessons.
type StudentGroup struct {
	ID     string `db:"id" json:"id"`
	Number int    `db:"number" json:"number"`
}
