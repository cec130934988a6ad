package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/JaimeStill/wayfinder/pkg/formatting"
)

// Option is a single flight candidate proposed by the search agent.
// Options are never mutated once generated; they are referenced by their
// 1-based position within the batch that produced them.
type Option struct {
	FlightNumber      string  `json:"flight_number"`
	Price             float64 `json:"price"`
	DepartureDatetime string  `json:"departure_datetime"`
	ArrivalDatetime   string  `json:"arrival_datetime"`
	DepartureCity     string  `json:"departure_city"`
	DestinationCity   string  `json:"destination_city"`
}

// Batch is the option listing returned by the search agent.
type Batch struct {
	Flights []Option `json:"flights"`
}

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// Validate checks that every field is present, the price is non-negative and
// both timestamps are ISO-8601 date-times.
func (o Option) Validate() error {
	required := map[string]string{
		"flight_number":      o.FlightNumber,
		"departure_datetime": o.DepartureDatetime,
		"arrival_datetime":   o.ArrivalDatetime,
		"departure_city":     o.DepartureCity,
		"destination_city":   o.DestinationCity,
	}
	for field, v := range required {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s required", ErrInvalidOption, field)
		}
	}

	if o.Price < 0 {
		return fmt.Errorf("%w: price %.2f is negative", ErrInvalidOption, o.Price)
	}
	if !isDatetime(o.DepartureDatetime) {
		return fmt.Errorf("%w: departure_datetime %q is not a date-time", ErrInvalidOption, o.DepartureDatetime)
	}
	if !isDatetime(o.ArrivalDatetime) {
		return fmt.Errorf("%w: arrival_datetime %q is not a date-time", ErrInvalidOption, o.ArrivalDatetime)
	}
	return nil
}

// Validate checks every option in the batch.
func (b Batch) Validate() error {
	for i, o := range b.Flights {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("option %d: %w", i+1, err)
		}
	}
	return nil
}

// ParseBatch decodes and validates the search agent's response text.
func ParseBatch(content string) (Batch, error) {
	batch, err := formatting.Parse[Batch](content)
	if err != nil {
		return Batch{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if err := batch.Validate(); err != nil {
		return Batch{}, err
	}
	return batch, nil
}

// Listing renders the batch the way reviewers see it, one numbered line per option.
func Listing(options []Option) []string {
	if len(options) == 0 {
		return []string{"No flights available."}
	}

	lines := make([]string, len(options))
	for i, o := range options {
		lines[i] = fmt.Sprintf(
			"[%d] %s | %s -> %s | Departs: %s | Arrives: %s | Price: $%.2f",
			i+1,
			o.FlightNumber,
			o.DepartureCity,
			o.DestinationCity,
			o.DepartureDatetime,
			o.ArrivalDatetime,
			o.Price,
		)
	}
	return lines
}

func isDatetime(s string) bool {
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
