package models

import "time"

// Week is an inclusive calendar window. Number is zero when the window was
// given explicitly rather than resolved from a page.
type Week struct {
	Number    int       `json:"number,omitempty"`
	BeginDate time.Time `json:"-"`
	EndDate   time.Time `json:"-"`
}

// Contains reports whether day lies inside the window, bounds included.
func (w Week) Contains(day time.Time) bool {
	return !day.Before(w.BeginDate) && !day.After(w.EndDate)
}
