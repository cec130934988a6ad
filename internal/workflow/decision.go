package workflow

import (
	"fmt"
	"strings"
)

// RefinementPrefix annotates a reviewer's refinement before it replaces the
// current search prompt.
const RefinementPrefix = "User refinement: "

// Decision is the interpreted reviewer response: a 1-based selection into
// the latest batch, or refinement text for another search.
type Decision struct {
	Selection        *int    `json:"selection"`
	RefinementPrompt *string `json:"refinement_prompt"`
}

// Resolution is a Decision checked against the batch it refers to.
// Exactly one of Index or Prompt is meaningful, as reported by Selected.
type Resolution struct {
	Selected bool
	Index    int
	Prompt   string
}

// Validate enforces that exactly one of Selection and RefinementPrompt is set.
// An empty refinement string counts as unset.
func (d Decision) Validate() error {
	hasSelection := d.Selection != nil
	hasRefinement := d.RefinementPrompt != nil && *d.RefinementPrompt != ""

	if hasSelection == hasRefinement {
		return ErrInvalidDecision
	}
	return nil
}

// Resolve checks the decision against a batch of n options.
func (d Decision) Resolve(n int) (Resolution, error) {
	if err := d.Validate(); err != nil {
		return Resolution{}, err
	}

	if d.Selection != nil {
		k := *d.Selection
		if k < 1 || k > n {
			return Resolution{}, fmt.Errorf("%w: selection %d not in [1, %d]", ErrSelectionOutOfRange, k, n)
		}
		return Resolution{Selected: true, Index: k - 1}, nil
	}

	text := strings.TrimSpace(*d.RefinementPrompt)
	if text == "" {
		return Resolution{}, ErrEmptyRefinement
	}
	return Resolution{Prompt: RefinementPrefix + text}, nil
}
