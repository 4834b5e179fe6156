package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kosterror/time-flow-api/internal/models"
)

// TimeslotRepository reads the daily period directory.
type TimeslotRepository struct {
	db *sqlx.DB
}

// NewTimeslotRepository creates a new repository instance.
func NewTimeslotRepository(db *sqlx.DB) *TimeslotRepository {
	return &TimeslotRepository{db: db}
}

// FindByID fetches a timeslot by id.
func (r *TimeslotRepository) FindByID(ctx context.Context, id string) (*models.Timeslot, error) {
	const query = `SELECT id, sequence_number, begin_time::text AS begin_time, end_time::text AS end_time FROM timeslots WHERE id = $1`
	var timeslot models.Timeslot
	if err := r.db.GetContext(ctx, &timeslot, query, id); err != nil {
		return nil, err
	}
	return &timeslot, nil
}

// List returns every timeslot in sequence order.
func (r *TimeslotRepository) List(ctx context.Context) ([]models.Timeslot, error) {
	const query = `SELECT id, sequence_number, begin_time::text AS begin_time, end_time::text AS end_time FROM timeslots ORDER BY sequence_number ASC`
	var timeslots []models.Timeslot
	if err := r.db.SelectContext(ctx, &timeslots, query); err != nil {
		return nil, fmt.Errorf("list timeslots: %w", err)
	}
	return timeslots, nil
}
