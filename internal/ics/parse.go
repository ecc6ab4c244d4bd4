package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "barbercal/internal/log"
	"barbercal/internal/model"
)

// Event is a VEVENT read back from a document, with TEXT values unescaped.
type Event struct {
	model.Appointment

	UID   string
	Stamp time.Time
	RRule string
}

// ParseICS reads one or more concatenated VCALENDAR documents.
//
//   - Floating DATE-TIME values are placed in loc (nil means time.Local);
//     UTC values keep their zone.
//   - A VEVENT with an unreadable DTSTART is logged and skipped.
//   - Format is left unset: the layout tag is not stored in the document.
func ParseICS(body []byte, loc *time.Location) ([]Event, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	events := make([]Event, 0)
	for i, doc := range splitDocuments(string(body)) {
		cal, err := ical.ParseCalendar(strings.NewReader(doc))
		if err != nil {
			appLog.Error("ics parse failed", err, "document", i)
			return nil, fmt.Errorf("ics: document %d: %w", i, err)
		}

		for _, ve := range cal.Events() {
			ev, perr := parseVEvent(ve, loc)
			if perr != nil {
				// Log and skip this event, but keep parsing others.
				appLog.Error("ics vevent parse failed", perr, "document", i)
				continue
			}
			events = append(events, ev)
		}
	}

	appLog.Info("ics parse completed", "event_count", len(events))
	return events, nil
}

// splitDocuments cuts body after each END:VCALENDAR line; the parser only
// accepts a single calendar per stream.
func splitDocuments(body string) []string {
	var docs []string
	var cur strings.Builder
	for _, line := range strings.SplitAfter(body, "\n") {
		cur.WriteString(line)
		if strings.EqualFold(strings.TrimSpace(line), "END:VCALENDAR") {
			docs = append(docs, cur.String())
			cur.Reset()
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		docs = append(docs, cur.String())
	}
	return docs
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (Event, error) {
	var out Event

	out.UID = ve.Id()

	text := func(p ical.ComponentProperty) string {
		if prop := ve.GetProperty(p); prop != nil {
			return ical.FromText(prop.Value)
		}
		return ""
	}
	out.Title = text(ical.ComponentPropertySummary)
	out.Location = text(ical.ComponentPropertyLocation)
	out.Description = text(ical.ComponentPropertyDescription)

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return out, errors.New("missing DTSTART")
	}
	start, err := parseICSTime(startProp.Value, loc)
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	out.Start = start
	out.End = start

	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
		if end, err := parseICSTime(p.Value, loc); err == nil {
			out.End = end
		}
	}
	if p := ve.GetProperty(ical.ComponentPropertyDtstamp); p != nil {
		if ts, err := parseICSTime(p.Value, loc); err == nil {
			out.Stamp = ts
		}
	}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}

	return out, nil
}

// parseICSTime parses a basic ICS date/date-time string. Floating and
// date-only values are interpreted in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}

	// Floating date-time, e.g., 20250101T090000
	if strings.Contains(v, "T") {
		return time.ParseInLocation(floatingLayout, v, loc)
	}

	// Date-only (all-day), e.g., 20250101
	return time.ParseInLocation("20060102", v, loc)
}
