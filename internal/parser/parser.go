// Package parser extracts barber appointments from pasted booking text.
//
// The input is scanned line by line for date anchors ("11 Apr 2025"). Each
// anchor opens a block whose layout (Format 1 or Format 2) is guessed from
// the next one or two lines, then read field by field at fixed offsets.
// Parsing is a best-effort heuristic: odd input yields an odd record rather
// than an error.
package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	appLog "barbercal/internal/log"
	"barbercal/internal/model"
)

// Options configures a Parser.
type Options struct {
	// Location is attached to the wall-clock times. Nil means time.Local.
	Location *time.Location
	// ShopName is the location used for Format 2 records, which carry none.
	// Empty means DefaultShopName.
	ShopName string
}

// Parser is stateless; one value can be reused for any number of passes.
type Parser struct {
	loc  *time.Location
	shop string
}

// New creates a Parser from opts, filling in defaults.
func New(opts Options) *Parser {
	p := &Parser{loc: opts.Location, shop: opts.ShopName}
	if p.loc == nil {
		p.loc = time.Local
	}
	if p.shop == "" {
		p.shop = DefaultShopName
	}
	return p
}

// Parse runs one pass with default options.
func Parse(text string) ([]model.Appointment, error) {
	return New(Options{}).Parse(text)
}

// Parse extracts every appointment from text in document order.
//
// It returns ErrEmptyInput for blank text, ErrNoRecords when no anchor
// produced a record and *FailureError when building a record failed. No
// partial results accompany an error.
func (p *Parser) Parse(text string) (out []model.Appointment, err error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &FailureError{Err: fmt.Errorf("panic: %v", r)}
		}
		var fe *FailureError
		if errors.As(err, &fe) {
			appLog.Error("appointment parse failed", fe.Err)
		}
	}()

	c := &cursor{lines: Tokenize(text)}
	appointments := make([]model.Appointment, 0)

	for !c.done() {
		line, _ := c.peek(0)
		a, ok := matchAnchor(line)
		if !ok {
			c.skip()
			continue
		}
		c.skip()

		if c.done() {
			// Anchor on the last line: nothing to extract.
			appLog.Debug("discarding bare date anchor", "anchor", a.raw)
			continue
		}

		format, format2Signal := c.guessFormat()
		appLog.Debug("date anchor found",
			"anchor", a.raw,
			"line", c.pos,
			"format", format,
			"format2_signal", format2Signal,
		)

		var appt model.Appointment
		var berr error
		if format == model.Format1 {
			appt, berr = p.extractFormat1(c, a)
		} else {
			appt, berr = p.extractFormat2(c, a)
		}
		if berr != nil {
			return nil, &FailureError{Err: berr}
		}
		appointments = append(appointments, appt)
	}

	if len(appointments) == 0 {
		return nil, ErrNoRecords
	}

	appLog.Info("appointment parse completed", "appointments", len(appointments))
	return appointments, nil
}
