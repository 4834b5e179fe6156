package models

// Timeslot is a recurring daily period, independent of the calendar date.
type Timeslot struct {
	ID             string `db:"id" json:"id"`
	SequenceNumber int    `db:"sequence_number" json:"sequenceNumber"`
	BeginTime      string `db:"begin_time" json:"beginTime"`
	EndTime        string `db:"end_time" json:"endTime"`
}
