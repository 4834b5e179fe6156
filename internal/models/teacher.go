package models

// Teacher is referenced by lessons.
type Teacher struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"fullName"`
}
