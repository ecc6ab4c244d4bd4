package model

import (
	"encoding/json"
	"time"
)

// Format identifies which of the two known paste layouts produced a record.
type Format int

const (
	// Format1 is the "date / header / location / time / service / with X" layout.
	Format1 Format = iota + 1
	// Format2 is the "date / time / * service / with X / price / duration" layout.
	Format2
)

func (f Format) String() string {
	switch f {
	case Format1:
		return "Format 1"
	case Format2:
		return "Format 2"
	default:
		return "Unknown"
	}
}

func (f Format) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// Appointment is one extracted booking. It is built once per parse pass and
// never mutated afterwards.
type Appointment struct {
	Title       string
	Location    string
	Description string

	// Start / End are wall-clock times; they are written to ICS without a
	// timezone. End is always after Start.
	Start time.Time
	End   time.Time

	Format Format

	// Raw fields as they appeared in the pasted text.
	AnchorDate string
	Service    string
	Stylist    string
	Price      string
	Duration   string
}

// Length returns the booked duration.
func (a Appointment) Length() time.Duration {
	return a.End.Sub(a.Start)
}

// appointmentJSON is the wire shape used by the web API and `parse --json`.
type appointmentJSON struct {
	Title       string `json:"title"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Format      Format `json:"format"`
	AnchorDate  string `json:"anchor_date"`
	Service     string `json:"service"`
	Stylist     string `json:"stylist"`
	Price       string `json:"price,omitempty"`
	Duration    string `json:"duration,omitempty"`
}

// wallClockLayout renders times without an offset since appointments are floating.
const wallClockLayout = "2006-01-02T15:04:05"

func (a Appointment) MarshalJSON() ([]byte, error) {
	return json.Marshal(appointmentJSON{
		Title:       a.Title,
		Location:    a.Location,
		Description: a.Description,
		Start:       a.Start.Format(wallClockLayout),
		End:         a.End.Format(wallClockLayout),
		Format:      a.Format,
		AnchorDate:  a.AnchorDate,
		Service:     a.Service,
		Stylist:     a.Stylist,
		Price:       a.Price,
		Duration:    a.Duration,
	})
}
