package travel

import (
	"net/url"
	"strings"

	"github.com/JaimeStill/wayfinder/pkg/query"
	"github.com/JaimeStill/wayfinder/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "instances", "i").
	Project("id", "ID").
	Project("state", "State").
	Project("runtime_status", "RuntimeStatus").
	Project("attempt", "Attempt").
	Project("input", "Input").
	Project("workflow_status", "WorkflowStatus").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters narrows instance listings. Each field accepts a set of values;
// empty sets are ignored.
type Filters struct {
	State         []string `json:"state,omitempty"`
	RuntimeStatus []string `json:"runtime_status,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereIn("State", anys(f.State)).
		WhereIn("RuntimeStatus", anys(f.RuntimeStatus))
}

// FiltersFromQuery extracts filters from URL query parameters. Values may be
// repeated or comma separated.
func FiltersFromQuery(values url.Values) Filters {
	return Filters{
		State:         splitValues(values["state"]),
		RuntimeStatus: splitValues(values["runtime_status"]),
	}
}

func splitValues(raw []string) []string {
	var out []string
	for _, v := range raw {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func anys(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func scanSummary(s repository.Scanner) (Summary, error) {
	var sm Summary
	err := s.Scan(
		&sm.ID,
		&sm.State,
		&sm.RuntimeStatus,
		&sm.Attempt,
		&sm.Input,
		&sm.WorkflowStatus,
		&sm.CreatedAt,
		&sm.UpdatedAt,
	)
	return sm, err
}
