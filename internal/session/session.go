// Package session holds the presentation state shared by the terminal UI,
// the web server and the watch loop.
package session

import (
	"time"

	"barbercal/internal/model"
	"barbercal/internal/parser"
)

// Parser is satisfied by *parser.Parser.
type Parser interface {
	Parse(text string) ([]model.Appointment, error)
}

// Observer is notified after every pass, e.g. by the metrics collector.
type Observer interface {
	ObserveParse(appts []model.Appointment, err error, took time.Duration)
}

// State is the input text, the latest result set, the user-facing status
// message and whether a pass is in flight. It is not safe for concurrent
// use; callers that share one across goroutines guard it themselves.
type State struct {
	Input   string
	Results []model.Appointment
	Message string
	Busy    bool
}

// Begin marks a pass as started for input and clears the previous message.
func (s *State) Begin(input string) {
	s.Input = input
	s.Message = ""
	s.Busy = true
}

// Finish stores the outcome of a pass. Results are replaced wholesale; on
// error the set is emptied so a stale list never sits under an error
// message.
func (s *State) Finish(appts []model.Appointment, err error) {
	s.Busy = false
	if err != nil {
		s.Results = nil
		s.Message = parser.StatusMessage(err)
		return
	}
	s.Results = appts
	s.Message = ""
}

// Run performs a complete pass of p over input. obs may be nil.
func (s *State) Run(p Parser, input string, obs Observer) error {
	s.Begin(input)

	start := time.Now()
	appts, err := p.Parse(input)
	if obs != nil {
		obs.ObserveParse(appts, err, time.Since(start))
	}

	s.Finish(appts, err)
	return err
}

// At returns the i-th result.
func (s *State) At(i int) (model.Appointment, bool) {
	if i < 0 || i >= len(s.Results) {
		return model.Appointment{}, false
	}
	return s.Results[i], true
}

// Snapshot returns a copy whose Results slice does not alias s.
func (s *State) Snapshot() State {
	out := *s
	if s.Results != nil {
		out.Results = append([]model.Appointment(nil), s.Results...)
	}
	return out
}
