package workflow

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/JaimeStill/go-agents/pkg/agent"
	"github.com/JaimeStill/go-agents/pkg/response"
)

// GenerateFlightInfo is the name of the flight search tool offered to the
// search agent.
const GenerateFlightInfo = "generate_flight_info"

const (
	minFlights     = 2
	maxFlights     = 10
	minFare        = 100.0
	minFlightMins  = 60
	maxFlightMins  = 360
	localLayout    = "2006-01-02T15:04:05"
)

// FlightQuery is the argument set of the flight search tool. Unset window and
// price fall back to the configured search defaults.
type FlightQuery struct {
	OriginCity              string   `json:"origin_city"`
	DestinationCity         string   `json:"destination_city"`
	DepartureDatetime       string   `json:"departure_datetime"`
	MaxDepartureWindowHours *int     `json:"max_departure_window_hours,omitempty"`
	MaxPrice                *float64 `json:"max_price,omitempty"`
}

// FlightTool describes the flight search tool in the function calling schema.
func FlightTool() agent.Tool {
	return agent.Tool{
		Name:        GenerateFlightInfo,
		Description: "Generate a list of flight options based on search criteria.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"origin_city": map[string]any{
					"type":        "string",
					"description": "City the flight departs from",
				},
				"destination_city": map[string]any{
					"type":        "string",
					"description": "City the flight arrives in",
				},
				"departure_datetime": map[string]any{
					"type":        "string",
					"description": "Preferred departure as an ISO 8601 datetime",
				},
				"max_departure_window_hours": map[string]any{
					"type":        "integer",
					"description": "Hours either side of the preferred departure a flight may leave",
				},
				"max_price": map[string]any{
					"type":        "number",
					"description": "Highest acceptable fare in dollars",
				},
			},
			"required": []string{"origin_city", "destination_city", "departure_datetime"},
		},
	}
}

// FlightGenerator answers flight search tool calls with synthetic options.
// Its output is journaled with the search result, so a replayed instance
// never calls it again for the same iteration.
type FlightGenerator struct {
	defaults SearchDefaults
	now      func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewFlightGenerator creates a FlightGenerator. A nil rng seeds a random
// source; a nil now uses time.Now.
func NewFlightGenerator(defaults SearchDefaults, rng *rand.Rand, now func() time.Time) *FlightGenerator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if now == nil {
		now = time.Now
	}
	return &FlightGenerator{
		defaults: defaults,
		now:      now,
		rng:      rng,
	}
}

// Resolve fills unset or non-positive window and price from the defaults.
func (g *FlightGenerator) Resolve(q FlightQuery) FlightQuery {
	if q.MaxDepartureWindowHours == nil || *q.MaxDepartureWindowHours <= 0 {
		w := g.defaults.DepartureWindowHours
		q.MaxDepartureWindowHours = &w
	}
	if q.MaxPrice == nil || *q.MaxPrice <= 0 {
		p := g.defaults.MaxPrice
		q.MaxPrice = &p
	}
	return q
}

// Generate returns between two and ten options departing within the query
// window around the requested departure and priced at or below its maximum.
// An unparseable departure is measured from the current time.
func (g *FlightGenerator) Generate(q FlightQuery) []Option {
	q = g.Resolve(q)

	base, layout := g.base(q.DepartureDatetime)
	window := *q.MaxDepartureWindowHours * 60
	ceiling := *q.MaxPrice
	floor := math.Min(minFare, ceiling)

	g.mu.Lock()
	defer g.mu.Unlock()

	count := minFlights + g.rng.IntN(maxFlights-minFlights+1)
	options := make([]Option, count)

	for i := range options {
		offset := g.rng.IntN(2*window+1) - window
		departs := base.Add(time.Duration(offset) * time.Minute)
		arrives := departs.Add(time.Duration(minFlightMins+g.rng.IntN(maxFlightMins-minFlightMins+1)) * time.Minute)
		price := floor + g.rng.Float64()*(ceiling-floor)

		options[i] = Option{
			FlightNumber:      g.flightNumber(),
			Price:             math.Floor(price*100) / 100,
			DepartureDatetime: departs.Format(layout),
			ArrivalDatetime:   arrives.Format(layout),
			DepartureCity:     q.OriginCity,
			DestinationCity:   q.DestinationCity,
		}
	}

	return options
}

// Answer turns a tools response into a search result. Every flight search
// call contributes its options to one batch carried as the structured
// payload. A response without tool calls is returned as plain text for the
// caller to parse.
func (g *FlightGenerator) Answer(resp *response.ToolsResponse) (Result, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("%w: empty tools response", ErrParse)
	}

	msg := resp.Choices[0].Message
	result := Result{Response: msg.Content}

	var batch Batch
	called := false

	for _, call := range msg.ToolCalls {
		if call.Function.Name != GenerateFlightInfo {
			continue
		}
		called = true

		var q FlightQuery
		if err := json.Unmarshal([]byte(call.Function.Arguments), &q); err != nil {
			return Result{}, fmt.Errorf("%w: %s arguments: %w", ErrParse, GenerateFlightInfo, err)
		}
		batch.Flights = append(batch.Flights, g.Generate(q)...)
	}

	if !called {
		return result, nil
	}

	if batch.Flights == nil {
		batch.Flights = []Option{}
	}

	structured, err := json.Marshal(batch)
	if err != nil {
		return Result{}, fmt.Errorf("marshal flights: %w", err)
	}
	result.Structured = structured
	return result, nil
}

func (g *FlightGenerator) base(departure string) (time.Time, string) {
	s := strings.TrimSpace(departure)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, time.RFC3339
	}
	for _, layout := range datetimeLayouts[1:] {
		if t, err := time.Parse(layout, s); err == nil {
			return t, localLayout
		}
	}
	return g.now().UTC().Truncate(time.Second), time.RFC3339
}

func (g *FlightGenerator) flightNumber() string {
	var b strings.Builder
	for range 3 {
		b.WriteByte(byte('A' + g.rng.IntN(26)))
	}
	fmt.Fprintf(&b, "%04d", g.rng.IntN(10000))
	return b.String()
}
