package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kosterror/time-flow-api/internal/models"
)

// ClassroomRepository reads the classroom directory.
type ClassroomRepository struct {
	db *sqlx.DB
}

// NewClassroomRepository creates a new repository instance.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

// FindByID fetches a classroom by id.
func (r *ClassroomRepository) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	var classroom models.Classroom
	if err := r.db.GetContext(ctx, &classroom, `SELECT id, number FROM classrooms WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &classroom, nil
}

// List returns every classroom ordered by number.
func (r *ClassroomRepository) List(ctx context.Context) ([]models.Classroom, error) {
	var classrooms []models.Classroom
	if err := r.db.SelectContext(ctx, &classrooms, `SELECT id, number FROM classrooms ORDER BY number ASC`); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	return classrooms, nil
}
