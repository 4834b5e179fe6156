package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kosterror/time-flow-api/internal/models"
)

// SubjectRepository reads the subject directory.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// FindByID fetches a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, `SELECT id, name FROM subjects WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// List returns every subject ordered by name.
func (r *SubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, `SELECT id, name FROM subjects ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}
