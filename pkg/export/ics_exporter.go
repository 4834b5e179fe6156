package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

const icsProductID = "-//time-flow-api//timetable//EN"

// ICSExporter renders events into an iCalendar document.
type ICSExporter struct {
	now func() time.Time
}

// NewICSExporter constructs an iCalendar exporter.
func NewICSExporter() *ICSExporter {
	return &ICSExporter{now: time.Now}
}

// Render publishes one VEVENT per event under a calendar named name.
func (e *ICSExporter) Render(name string, events []Event) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	stamp := e.now().UTC()
	for _, evt := range events {
		if evt.UID == "" {
			return nil, fmt.Errorf("ics event requires a uid")
		}
		if !evt.End.After(evt.Start) {
			return nil, fmt.Errorf("ics event %s ends before it starts", evt.UID)
		}
		vevent := cal.AddEvent(evt.UID)
		vevent.SetDtStampTime(stamp)
		vevent.SetStartAt(evt.Start)
		vevent.SetEndAt(evt.End)
		vevent.SetSummary(evt.Summary)
		if evt.Location != "" {
			vevent.SetLocation(evt.Location)
		}
		if evt.Description != "" {
			vevent.SetDescription(evt.Description)
		}
	}
	return []byte(cal.Serialize()), nil
}
