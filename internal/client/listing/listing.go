// Package listing is the read side of the client: it fetches the school
// list once, filters it by a search term and describes what to show.
package listing

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/aanand-mishra/schools-api/internal/client/api"
	"github.com/aanand-mishra/schools-api/internal/types"
)

const (
	MsgInvalidFormat = "Invalid response format from server"
	MsgFetchFailed   = "Failed to fetch schools. Please try again later."
)

// Phase is where the view's fetch stands.
type Phase int

const (
	Loading Phase = iota
	Failed
	Loaded
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Failed:
		return "error"
	case Loaded:
		return "loaded"
	}
	return "unknown"
}

// Fetcher returns every school. *api.Client satisfies it.
type Fetcher interface {
	ListSchools(ctx context.Context) ([]types.School, error)
}

// View holds one listing screen's state.
type View struct {
	fetcher Fetcher

	mu      sync.Mutex
	started bool
	phase   Phase
	schools []types.School
	errMsg  string
	search  string
}

// New returns a view in the Loading phase. Nothing is fetched until Load.
func New(fetcher Fetcher) *View {
	return &View{fetcher: fetcher}
}

// Load fetches the list the first time it is called. Later calls are
// no-ops; use Refetch to try again.
func (v *View) Load(ctx context.Context) {
	v.mu.Lock()
	if v.started {
		v.mu.Unlock()
		return
	}
	v.started = true
	v.mu.Unlock()

	v.fetch(ctx)
}

// Refetch puts the view back into Loading and fetches again. The search
// term is kept.
func (v *View) Refetch(ctx context.Context) {
	v.mu.Lock()
	v.started = true
	v.phase = Loading
	v.errMsg = ""
	v.schools = nil
	v.mu.Unlock()

	v.fetch(ctx)
}

func (v *View) fetch(ctx context.Context) {
	schools, err := v.fetcher.ListSchools(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()

	if err != nil {
		slog.Error("error fetching schools", slog.String("error", err.Error()))
		v.phase = Failed
		v.errMsg = errorMessage(err)
		return
	}
	v.phase = Loaded
	v.schools = schools
}

func errorMessage(err error) string {
	if errors.Is(err, api.ErrMalformed) {
		return MsgInvalidFormat
	}
	return MsgFetchFailed
}

// Phase returns the current phase.
func (v *View) Phase() Phase {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phase
}

// SetSearch changes the filter term.
func (v *View) SetSearch(term string) {
	v.mu.Lock()
	v.search = term
	v.mu.Unlock()
}

// ClearSearch is the "Show All Schools" action.
func (v *View) ClearSearch() { v.SetSearch("") }

// Search returns the current term.
func (v *View) Search() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.search
}

// Filter keeps the schools whose name, city or state contains term,
// ignoring case. An empty term returns schools unchanged.
func Filter(schools []types.School, term string) []types.School {
	if term == "" {
		return schools
	}
	needle := strings.ToLower(term)

	out := make([]types.School, 0, len(schools))
	for _, s := range schools {
		if strings.Contains(strings.ToLower(s.Name), needle) ||
			strings.Contains(strings.ToLower(s.City), needle) ||
			strings.Contains(strings.ToLower(s.State), needle) {
			out = append(out, s)
		}
	}
	return out
}
