package workflow

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Stage identifies which agent role a call is made for.
type Stage string

const (
	StageSearch    Stage = "search"
	StageInterpret Stage = "interpret"
	StageSummarize Stage = "summarize"
)

var stages = []Stage{StageSearch, StageInterpret, StageSummarize}

// Stages returns the agent stages in the order an instance reaches them.
func Stages() []Stage {
	return slices.Clone(stages)
}

// Valid reports whether s is a known agent stage.
func (s Stage) Valid() bool {
	return slices.Contains(stages, s)
}

// InstructionSource resolves the system instructions an agent stage runs
// with. Implementations fall back to the built-in defaults themselves.
type InstructionSource interface {
	Resolve(ctx context.Context, stage Stage) (string, error)
}

// SearchDefaults are the criteria the search agent applies when the
// reviewer leaves them unspecified.
type SearchDefaults struct {
	DepartureWindowHours int
	MaxPrice             float64
}

const searchInstructions = `You provide a list of flight options based on user search criteria.
Use the generate_flight_info tool to generate flight options.
If the tool is unavailable, return JSON with the following structure and nothing else:

{
  "flights": [
    {
      "flight_number": "string",
      "price": number,
      "departure_datetime": "ISO 8601 datetime string",
      "arrival_datetime": "ISO 8601 datetime string",
      "departure_city": "string",
      "destination_city": "string"
    }
  ]
}

Respect the user's criteria, including departure city, destination city,
departure datetime, maximum departure window and maximum price.
If no maximum departure window is specified, use %d hours.
If no maximum price is specified, use $%.2f.`

const interpretInstructions = `You interpret a user's natural language feedback about the flight options listed earlier in this conversation.
Decide whether they are selecting one of the flights by number or refining the search criteria.
Respond with JSON only:

{
  "selection": integer or null,
  "refinement_prompt": "string" or null
}

If the user selects a flight, set "selection" to the 1-based number of the flight and "refinement_prompt" to null.
If the user refines the search, set "refinement_prompt" to the clarified instructions and "selection" to null.
Exactly one of the two fields must be non-null.`

const summarizeInstructions = `You summarize a customer interaction in which they reviewed, refined and chose a flight itinerary.
Use the full conversation to summarize the user's interactions and the final selected flight.
Keep the summary concise and suitable for a notification.
Never ask the user what to do next.`

// Instructions returns the system instructions for a stage.
func (d SearchDefaults) Instructions(stage Stage) string {
	switch stage {
	case StageSearch:
		return fmt.Sprintf(searchInstructions, d.DepartureWindowHours, d.MaxPrice)
	case StageInterpret:
		return interpretInstructions
	default:
		return summarizeInstructions
	}
}

// Resolve implements InstructionSource with the built-in instructions.
func (d SearchDefaults) Resolve(_ context.Context, stage Stage) (string, error) {
	return d.Instructions(stage), nil
}

// Compose renders a full prompt: stage instructions, the thread so far and
// the new message.
func Compose(instructions string, thread Thread, message string) string {
	var b strings.Builder

	b.WriteString(instructions)
	b.WriteString("\n\n")

	if len(thread.Turns) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, t := range thread.Turns {
			fmt.Fprintf(&b, "[%s] %s\n", t.Role, t.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "[%s] %s", RoleUser, message)
	return b.String()
}
