// Package model contains domain models passed between layers.
package model

import "time"

// TripRequest describes one trip to estimate.
type TripRequest struct {
	ConferenceID   string    `json:"conference_id,omitempty"`
	ConferenceName string    `json:"conference_name,omitempty"`
	Origin         string    `json:"origin" validate:"required"`
	Destination    string    `json:"destination" validate:"required"`
	Start          time.Time `json:"start" validate:"required"`
	End            time.Time `json:"end"`
	// PreDays and PostDays are buffer days around the conference; nil means the configured default.
	PreDays  *int `json:"pre_days,omitempty" validate:"omitempty,gte=0,lte=30"`
	PostDays *int `json:"post_days,omitempty" validate:"omitempty,gte=0,lte=30"`
	// TicketPrice is the conference ticket, passed through into the total.
	TicketPrice float64 `json:"ticket_price" validate:"gte=0"`
	// IncludeBudgetCarriers disables the alliance filter on API offers.
	IncludeBudgetCarriers bool `json:"include_budget_carriers"`
}

// Label names the trip for cache keys and logs: the conference if known, else the destination.
func (t TripRequest) Label() string {
	switch {
	case t.ConferenceName != "":
		return t.ConferenceName
	case t.ConferenceID != "":
		return t.ConferenceID
	default:
		return t.Destination
	}
}

// Conference is a reference conference the batch runner can estimate.
type Conference struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Location string    `json:"location" yaml:"location"`
	Start    time.Time `json:"start" yaml:"start"`
	End      time.Time `json:"end" yaml:"end"`
	Ticket   float64   `json:"ticket_price" yaml:"ticket_price"`
}

// Trip builds a request from origin to this conference.
func (c Conference) Trip(origin string) TripRequest {
	return TripRequest{
		ConferenceID:   c.ID,
		ConferenceName: c.Name,
		Origin:         origin,
		Destination:    c.Location,
		Start:          c.Start,
		End:            c.End,
		TicketPrice:    c.Ticket,
	}
}
