package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kosterror/time-flow-api/internal/models"
)

// TeacherRepository reads the teacher directory.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository creates a new repository instance.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByID fetches a teacher by id.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, `SELECT id, full_name FROM teachers WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// List returns every teacher ordered by name.
func (r *TeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, `SELECT id, full_name FROM teachers ORDER BY full_name ASC`); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}
