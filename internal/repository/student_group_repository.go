package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kosterror/time-flow-api/internal/models"
)

// StudentGroupRepository reads the student group directory.
type StudentGroupRepository struct {
	db *sqlx.DB
}

// NewStudentGroupRepository creates a new repository instance.
func NewStudentGroupRepository(db *sqlx.DB) *StudentGroupRepository {
	return &StudentGroupRepository{db: db}
}

// FindByID fetches a student group by id.
func (r *StudentGroupRepository) FindByID(ctx context.Context, id string) (*models.StudentGroup, error) {
	var group models.StudentGroup
	if err := r.db.GetContext(ctx, &group, `SELECT id, number FROM student_groups WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// List returns every student group ordered by number.
func (r *StudentGroupRepository) List(ctx context.Context) ([]models.StudentGroup, error) {
	var groups []models.StudentGroup
	if err := r.db.SelectContext(ctx, &groups, `SELECT id, number FROM student_groups ORDER BY number ASC`); err != nil {
		return nil, fmt.Errorf("list student groups: %w", err)
	}
	return groups, nil
}
