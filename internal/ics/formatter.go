package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "barbercal/internal/log"
	"barbercal/internal/model"
)

const (
	DefaultProductID = "-//Barber Appointment//Calendar App//EN"
	DefaultUIDDomain = "barberappt.com"

	// floatingLayout is DATE-TIME without a zone designator; calendar
	// clients interpret it in the viewer's local zone.
	floatingLayout = "20060102T150405"

	crlf = "\r\n"
)

// Formatter renders appointments as iCalendar documents.
type Formatter struct {
	ProductID string
	UIDDomain string

	// Repeat is an optional RRULE value attached to every VEVENT.
	Repeat string

	// Now supplies DTSTAMP and the UID token. Nil means time.Now.
	Now func() time.Time
}

// NewFormatter returns a Formatter with default PRODID and UID domain.
func NewFormatter() *Formatter {
	return &Formatter{
		ProductID: DefaultProductID,
		UIDDomain: DefaultUIDDomain,
	}
}

func (f *Formatter) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *Formatter) productID() string {
	if f.ProductID == "" {
		return DefaultProductID
	}
	return f.ProductID
}

func (f *Formatter) uidDomain() string {
	if f.UIDDomain == "" {
		return DefaultUIDDomain
	}
	return f.UIDDomain
}

// Format renders one appointment as a complete VCALENDAR document.
func (f *Formatter) Format(appt model.Appointment) string {
	now := f.now()
	return f.format(appt, now, now.UnixMilli())
}

// FormatAll renders each appointment as its own document. The UID token of
// the i-th record is the current millisecond plus i, so UIDs stay unique
// within one batch.
func (f *Formatter) FormatAll(appts []model.Appointment) []string {
	now := f.now()
	base := now.UnixMilli()

	out := make([]string, 0, len(appts))
	for i, a := range appts {
		out = append(out, f.format(a, now, base+int64(i)))
	}
	return out
}

func (f *Formatter) format(appt model.Appointment, now time.Time, token int64) string {
	cal := f.build(appt, now, token)

	var b strings.Builder
	writeCalendar(&b, cal)

	appLog.Debug("ics document formatted",
		"uid", fmt.Sprintf("%d@%s", token, f.uidDomain()),
		"start", appt.Start.Format(floatingLayout),
		"bytes", b.Len(),
	)
	return b.String()
}

// build assembles the golang-ical model. Property order here is the order
// written to the document.
func (f *Formatter) build(appt model.Appointment, now time.Time, token int64) *ical.Calendar {
	cal := &ical.Calendar{}
	cal.SetVersion("2.0")
	cal.SetProductId(f.productID())

	ev := ical.NewEvent(fmt.Sprintf("%d@%s", token, f.uidDomain()))
	ev.SetProperty(ical.ComponentPropertyDtstamp, now.Format(floatingLayout))
	ev.SetProperty(ical.ComponentPropertyDtStart, appt.Start.Format(floatingLayout),
		ical.WithValue(string(ical.ValueDataTypeDateTime)))
	ev.SetProperty(ical.ComponentPropertyDtEnd, appt.End.Format(floatingLayout),
		ical.WithValue(string(ical.ValueDataTypeDateTime)))
	ev.SetProperty(ical.ComponentPropertySummary, ical.ToText(appt.Title))
	ev.SetProperty(ical.ComponentPropertyLocation, ical.ToText(appt.Location))
	ev.SetProperty(ical.ComponentPropertyDescription, ical.ToText(appt.Description))
	// The property name is written separately, so a "RRULE:" prefix on the
	// configured rule must not reach the value.
	if rule := normalizeRule(f.Repeat); rule != "" {
		ev.SetProperty(ical.ComponentPropertyRrule, rule)
	}

	cal.AddVEvent(ev)
	return cal
}

// writeCalendar serializes cal with CRLF terminators and no line folding.
// Parameters are written in a fixed order so output is byte-stable.
func writeCalendar(b *strings.Builder, cal *ical.Calendar) {
	b.WriteString("BEGIN:VCALENDAR" + crlf)
	for _, p := range cal.CalendarProperties {
		writeProperty(b, p.BaseProperty)
	}
	for _, ev := range cal.Events() {
		b.WriteString("BEGIN:VEVENT" + crlf)
		for _, p := range ev.Properties {
			writeProperty(b, p.BaseProperty)
		}
		b.WriteString("END:VEVENT" + crlf)
	}
	b.WriteString("END:VCALENDAR" + crlf)
}

func writeProperty(b *strings.Builder, p ical.BaseProperty) {
	b.WriteString(p.IANAToken)
	if vs, ok := p.ICalParameters[string(ical.ParameterValue)]; ok && len(vs) > 0 {
		b.WriteString(";" + string(ical.ParameterValue) + "=" + strings.Join(vs, ","))
	}
	b.WriteString(":")
	b.WriteString(p.Value)
	b.WriteString(crlf)
}
