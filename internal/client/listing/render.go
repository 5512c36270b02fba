package listing

import (
	"fmt"
	"io"
	"strings"

	"github.com/aanand-mishra/schools-api/internal/types"
)

const (
	MsgLoading       = "Loading schools..."
	MsgErrorTitle    = "Error loading schools"
	MsgEmpty         = "No schools have been added to the database yet."
	MsgNoMatchesHint = "Try adjusting your search terms or browse all schools."
	ActionRetry      = "Try Again"
	ActionShowAll    = "Show All Schools"
	SearchHint       = "Search schools by name, city, or state..."
)

// Kind says which screen to show.
type Kind int

const (
	KindLoading Kind = iota
	KindError
	KindEmpty
	KindNoMatches
	KindResults
)

// RenderState is everything needed to draw the view.
type RenderState struct {
	Kind Kind
	// Message is the headline text for every kind except Results.
	Message string
	// Action is the label of the one affordance on the screen, if any.
	Action string
	// Schools are the visible cards, in server order.
	Schools []types.School
	// Total is the unfiltered count.
	Total   int
	Summary string
}

// Render derives the screen from the current state.
func (v *View) Render() RenderState {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch v.phase {
	case Loading:
		return RenderState{Kind: KindLoading, Message: MsgLoading}
	case Failed:
		return RenderState{Kind: KindError, Message: v.errMsg, Action: ActionRetry}
	}

	total := len(v.schools)
	if total == 0 {
		return RenderState{Kind: KindEmpty, Message: MsgEmpty}
	}

	visible := Filter(v.schools, v.search)
	if len(visible) == 0 {
		return RenderState{
			Kind:    KindNoMatches,
			Message: fmt.Sprintf("No schools found for \"%s\"", v.search),
			Action:  ActionShowAll,
			Total:   total,
		}
	}

	return RenderState{
		Kind:    KindResults,
		Schools: visible,
		Total:   total,
		Summary: fmt.Sprintf("Showing %d of %d schools", len(visible), total),
	}
}

// Text writes the current screen as plain text.
func (v *View) Text(w io.Writer) error {
	rs := v.Render()

	var b strings.Builder
	switch rs.Kind {
	case KindLoading, KindEmpty:
		fmt.Fprintln(&b, rs.Message)
	case KindError:
		fmt.Fprintf(&b, "%s: %s\n", MsgErrorTitle, rs.Message)
	case KindNoMatches:
		fmt.Fprintln(&b, rs.Message)
		fmt.Fprintln(&b, MsgNoMatchesHint)
		fmt.Fprintf(&b, "[%s]\n", rs.Action)
	case KindResults:
		for _, s := range rs.Schools {
			writeCard(&b, s)
		}
		fmt.Fprintln(&b, rs.Summary)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeCard(b *strings.Builder, s types.School) {
	fmt.Fprintf(b, "#%d %s\n", s.ID, s.Name)
	fmt.Fprintf(b, "  %s\n", s.Address)
	fmt.Fprintf(b, "  %s, %s\n", s.City, s.State)
	if s.Contact != "" {
		fmt.Fprintf(b, "  phone: %s\n", s.Contact)
	}
	if s.Email != "" {
		fmt.Fprintf(b, "  email: %s\n", s.Email)
	}
	if s.Image != nil && *s.Image != "" {
		fmt.Fprintf(b, "  image: %s\n", *s.Image)
	}
	b.WriteString("\n")
}
