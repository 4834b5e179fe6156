package models

// Classroom is a bookable room.
type Classroom struct {
	ID     string `db:"id" json:"id"`
	Number int    `db:"number" json:"number"`
}
