package prompts

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/wayfinder/internal/workflow"
	"github.com/JaimeStill/wayfinder/pkg/query"
	"github.com/JaimeStill/wayfinder/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "prompts", "p").
	Project("id", "ID").
	Project("name", "Name").
	Project("stage", "Stage").
	Project("instructions", "Instructions").
	Project("description", "Description").
	Project("active", "Active").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{Field: "Name"}

const returning = `RETURNING id, name, stage, instructions, description, active, created_at, updated_at`

// Filters narrows prompt queries. Nil fields are ignored.
type Filters struct {
	Stage  *workflow.Stage `json:"stage,omitempty"`
	Name   *string         `json:"name,omitempty"`
	Active *bool           `json:"active,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Stage", f.Stage).
		WhereContains("Name", f.Name).
		WhereEquals("Active", f.Active)
}

// FiltersFromQuery reads stage, name and active from URL query values.
// Unknown stages and unparseable booleans are dropped.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := workflow.Stage(values.Get("stage")); s.Valid() {
		f.Stage = &s
	}

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	if a := values.Get("active"); a != "" {
		if v, err := strconv.ParseBool(a); err == nil {
			f.Active = &v
		}
	}

	return f
}

func scanPrompt(s repository.Scanner) (Prompt, error) {
	var p Prompt
	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Stage,
		&p.Instructions,
		&p.Description,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}
