package parser

import (
	"fmt"

	"barbercal/internal/model"
)

// extractFormat1 reads an optional header, then location, time, service and
// "with X" lines.
func (p *Parser) extractFormat1(c *cursor, a anchorDate) (model.Appointment, error) {
	if hasHeader(c) {
		c.skip()
	}

	location, _ := c.next()
	clk := parseClock(c.next())
	service, _ := c.next()
	stylist := matchStylist(c.next())
	c.skipToAnchor()

	start, err := buildStart(a, clk.hour, clk.minute, p.loc)
	if err != nil {
		return model.Appointment{}, err
	}

	return model.Appointment{
		Title:       title(location, service, stylist),
		Location:    location,
		Description: fmt.Sprintf("%s with %s", service, stylist),
		Start:       start,
		End:         start.Add(DefaultLength),
		Format:      model.Format1,
		AnchorDate:  a.raw,
		Service:     service,
		Stylist:     stylist,
	}, nil
}

// extractFormat2 reads time, starred service, "with X", then optional price
// and duration lines.
func (p *Parser) extractFormat2(c *cursor, a anchorDate) (model.Appointment, error) {
	clk := parseClock(c.next())
	service := matchService(c.next())
	stylist := matchStylist(c.next())

	price := ""
	if l, ok := c.peek(0); ok && priceRe.MatchString(l) {
		price = l
		c.skip()
	}

	duration := DefaultDuration
	if l, ok := c.peek(0); ok && durationRe.MatchString(l) {
		duration = l
		c.skip()
	}
	c.skipToAnchor()

	start, err := buildStart(a, clk.hour, clk.minute, p.loc)
	if err != nil {
		return model.Appointment{}, err
	}

	location := p.shop
	return model.Appointment{
		Title:       title(location, service, stylist),
		Location:    location,
		Description: fmt.Sprintf("%s with %s\nPrice: %s\nDuration: %s", service, stylist, price, duration),
		Start:       start,
		End:         start.Add(durationLength(duration)),
		Format:      model.Format2,
		AnchorDate:  a.raw,
		Service:     service,
		Stylist:     stylist,
		Price:       price,
		Duration:    duration,
	}, nil
}

// hasHeader reports whether the current line is a label such as "Upcoming".
// It is one when neither it nor the line after it is a clock time; when the
// next line is the time, the current line is already the location.
func hasHeader(c *cursor) bool {
	l0, ok := c.peek(0)
	if !ok || clockRe.MatchString(l0) {
		return false
	}
	l1, ok := c.peek(1)
	return !ok || !clockRe.MatchString(l1)
}

func title(location, service, stylist string) string {
	return fmt.Sprintf("%s - %s with %s", location, service, stylist)
}
