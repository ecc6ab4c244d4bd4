package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barbercal/internal/model"
)

var fixedNow = time.Date(2025, time.March, 1, 9, 30, 0, 0, time.UTC)

func fixedFormatter() *Formatter {
	f := NewFormatter()
	f.Now = func() time.Time { return fixedNow }
	return f
}

func sampleAppointment() model.Appointment {
	start := time.Date(2025, time.May, 17, 13, 0, 0, 0, time.UTC)
	return model.Appointment{
		Title:       "Gentlemen Jacks - Shave with Alex",
		Location:    "Gentlemen Jacks",
		Description: "Shave with Alex\nPrice: £19.50\nDuration: 45 mins",
		Start:       start,
		End:         start.Add(45 * time.Minute),
		Format:      model.Format2,
	}
}

func TestFormat_Golden(t *testing.T) {
	got := fixedFormatter().Format(sampleAppointment())

	want := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Barber Appointment//Calendar App//EN",
		"BEGIN:VEVENT",
		"UID:1740821400000@barberappt.com",
		"DTSTAMP:20250301T093000",
		"DTSTART;VALUE=DATE-TIME:20250517T130000",
		"DTEND;VALUE=DATE-TIME:20250517T134500",
		"SUMMARY:Gentlemen Jacks - Shave with Alex",
		"LOCATION:Gentlemen Jacks",
		`DESCRIPTION:Shave with Alex\nPrice: £19.50\nDuration: 45 mins`,
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Format() mismatch (-want +got):\n%s", diff)
	}
}

func TestFormat_EveryLineEndsWithCRLF(t *testing.T) {
	got := fixedFormatter().Format(sampleAppointment())

	require.True(t, strings.HasSuffix(got, "\r\n"))
	for _, line := range strings.Split(strings.TrimSuffix(got, "\r\n"), "\r\n") {
		assert.NotContains(t, line, "\n")
		assert.NotContains(t, line, "\r")
	}
}

func TestFormat_EscapesText(t *testing.T) {
	a := sampleAppointment()
	a.Title = `Cut, wash; dry \ done`

	got := fixedFormatter().Format(a)
	assert.Contains(t, got, "SUMMARY:Cut\\, wash\\; dry \\\\ done\r\n")
}

func TestFormat_RepeatRuleAddsRRULE(t *testing.T) {
	tests := []struct {
		name   string
		repeat string
	}{
		{"bare", "FREQ=WEEKLY;INTERVAL=4;COUNT=6"},
		{"prefixed", "RRULE:FREQ=WEEKLY;INTERVAL=4;COUNT=6"},
		{"lower-case prefix with spaces", "  rrule:FREQ=WEEKLY;INTERVAL=4;COUNT=6 "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fixedFormatter()
			f.Repeat = tt.repeat

			got := f.Format(sampleAppointment())
			assert.Contains(t, got, "DESCRIPTION:Shave with Alex\\nPrice: £19.50\\nDuration: 45 mins\r\nRRULE:FREQ=WEEKLY;INTERVAL=4;COUNT=6\r\nEND:VEVENT")
			assert.NotContains(t, got, "RRULE:RRULE:")
			assert.Equal(t, 1, strings.Count(got, "RRULE:"))

			events, err := ParseICS([]byte(got), time.UTC)
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, "FREQ=WEEKLY;INTERVAL=4;COUNT=6", events[0].RRule)
		})
	}
}

func TestFormat_BlankRepeatRuleOmitsRRULE(t *testing.T) {
	f := fixedFormatter()
	f.Repeat = "RRULE:"

	assert.NotContains(t, f.Format(sampleAppointment()), "RRULE")
}

func TestFormat_CustomProductAndDomain(t *testing.T) {
	f := fixedFormatter()
	f.ProductID = "-//Fade Factory//Bookings//EN"
	f.UIDDomain = "fade.example"

	got := f.Format(sampleAppointment())
	assert.Contains(t, got, "PRODID:-//Fade Factory//Bookings//EN\r\n")
	assert.Contains(t, got, "UID:1740821400000@fade.example\r\n")
}

func TestFormatAll_UniqueUIDs(t *testing.T) {
	a := sampleAppointment()
	docs := fixedFormatter().FormatAll([]model.Appointment{a, a, a})
	require.Len(t, docs, 3)

	assert.Contains(t, docs[0], "UID:1740821400000@barberappt.com")
	assert.Contains(t, docs[1], "UID:1740821400001@barberappt.com")
	assert.Contains(t, docs[2], "UID:1740821400002@barberappt.com")
}

func TestParseICS_RoundTrip(t *testing.T) {
	a := sampleAppointment()
	a.Title = "Corner, Barbers - Cut; with Jo"

	f := fixedFormatter()
	f.Repeat = "FREQ=WEEKLY;COUNT=2"
	body := strings.Join(f.FormatAll([]model.Appointment{a, sampleAppointment()}), "")

	got, err := ParseICS([]byte(body), time.UTC)
	require.NoError(t, err)
	require.Len(t, got, 2)

	ev := got[0]
	assert.Equal(t, "1740821400000@barberappt.com", ev.UID)
	assert.Equal(t, a.Title, ev.Title)
	assert.Equal(t, a.Location, ev.Location)
	assert.Equal(t, a.Description, ev.Description)
	assert.True(t, a.Start.Equal(ev.Start))
	assert.True(t, a.End.Equal(ev.End))
	assert.True(t, fixedNow.Equal(ev.Stamp))
	assert.Equal(t, "FREQ=WEEKLY;COUNT=2", ev.RRule)

	assert.Equal(t, "1740821400001@barberappt.com", got[1].UID)
}

func TestParseICS_FloatingTimesUseLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	body := fixedFormatter().Format(sampleAppointment())

	got, err := ParseICS([]byte(body), loc)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, time.Date(2025, time.May, 17, 13, 0, 0, 0, loc), got[0].Start)
}

func TestParseICS_Errors(t *testing.T) {
	_, err := ParseICS(nil, nil)
	assert.Error(t, err)

	_, err = ParseICS([]byte(" \r\n\t"), nil)
	assert.Error(t, err)
}

func TestParseICS_SkipsEventWithoutStart(t *testing.T) {
	body := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nBEGIN:VEVENT\r\nUID:x@y\r\nSUMMARY:No start\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"

	got, err := ParseICS([]byte(body), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseICSTime(t *testing.T) {
	utc, err := parseICSTime("20250101T090000Z", time.Local)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), utc)

	day, err := parseICSTime("20250101", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), day)

	_, err = parseICSTime(" ", time.UTC)
	assert.Error(t, err)
}

func TestValidateRule(t *testing.T) {
	assert.NoError(t, ValidateRule(""))
	assert.NoError(t, ValidateRule("FREQ=WEEKLY;INTERVAL=4;COUNT=6"))
	assert.NoError(t, ValidateRule("RRULE:FREQ=MONTHLY;COUNT=2"))
	assert.Error(t, ValidateRule("FREQ=SOMETIMES"))
}

func TestOccurrences(t *testing.T) {
	a := sampleAppointment()

	got, err := Occurrences(a, "FREQ=WEEKLY;INTERVAL=4;COUNT=3", 0)
	require.NoError(t, err)

	want := []Occurrence{
		{Start: a.Start, End: a.End},
		{Start: a.Start.AddDate(0, 0, 28), End: a.End.AddDate(0, 0, 28)},
		{Start: a.Start.AddDate(0, 0, 56), End: a.End.AddDate(0, 0, 56)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Occurrences() mismatch (-want +got):\n%s", diff)
	}
}

func TestOccurrences_OpenEndedIsCapped(t *testing.T) {
	got, err := Occurrences(sampleAppointment(), "RRULE:FREQ=DAILY", 5)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestOccurrences_NoRuleAndInvalidRule(t *testing.T) {
	a := sampleAppointment()

	got, err := Occurrences(a, "", 3)
	require.NoError(t, err)
	assert.Equal(t, []Occurrence{{Start: a.Start, End: a.End}}, got)

	_, err = Occurrences(a, "FREQ=NEVER", 3)
	assert.Error(t, err)
}
