// Package query turns task list parameters into a filter/sort plan and
// re-ranks fetched tasks when ordering by priority.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskhub/internal/model"
)

// Sort fields accepted in the sortBy parameter.
const (
	SortFieldDueDate   = "dueDate"
	SortFieldCreatedAt = "createdAt"
	SortFieldPriority  = "priority"
)

const SortAscending = "asc"

// Params are the raw list parameters as they arrive on the query string.
type Params struct {
	Status       string `form:"status"`
	Priority     string `form:"priority"`
	Search       string `form:"search"`
	AssignedToMe string `form:"assignedToMe"`
	CreatedByMe  string `form:"createdByMe"`
	Overdue      string `form:"overdue"`
	SortBy       string `form:"sortBy"`
	SortOrder    string `form:"sortOrder"`
}

// Plan is what the task store executes. Fields left nil do not filter.
type Plan struct {
	// Empty is set when a filter can never match, e.g. an unknown status.
	Empty bool

	Status        *model.Status
	ExcludeStatus *model.Status
	Priority      *model.Priority
	Search        string
	AssigneeID    *uuid.UUID
	CreatorID     *uuid.UUID
	DueBefore     *time.Time

	// OrderColumn is pushed down to the store; PriorityRerank is applied after the fetch.
	OrderColumn    string
	Descending     bool
	PriorityRerank bool
	// PriorityAscending is the re-rank direction. The fetch stays newest
	// first so equal priorities keep that order.
	PriorityAscending bool
}

// Build composes the filters with AND. A nil actor leaves the
// assignedToMe/createdByMe flags inert.
func Build(p Params, actorID *uuid.UUID, now time.Time) Plan {
	plan := Plan{
		OrderColumn: "created_at",
		Descending:  true,
	}

	if p.Status != "" {
		s := model.Status(p.Status)
		if !s.Valid() {
			plan.Empty = true
		}
		plan.Status = &s
	}
	if p.Priority != "" {
		pr := model.Priority(p.Priority)
		if !pr.Valid() {
			plan.Empty = true
		}
		plan.Priority = &pr
	}

	plan.Search = strings.TrimSpace(p.Search)

	if isTrue(p.AssignedToMe) && actorID != nil {
		id := *actorID
		plan.AssigneeID = &id
	}
	if isTrue(p.CreatedByMe) && actorID != nil {
		id := *actorID
		plan.CreatorID = &id
	}

	if isTrue(p.Overdue) {
		cutoff := now
		completed := model.StatusCompleted
		plan.DueBefore = &cutoff
		plan.ExcludeStatus = &completed
		if plan.Status != nil && *plan.Status == model.StatusCompleted {
			plan.Empty = true
		}
	}

	ascending := p.SortOrder == SortAscending
	switch p.SortBy {
	case SortFieldDueDate:
		plan.OrderColumn = "due_date"
		plan.Descending = !ascending
	case SortFieldCreatedAt:
		plan.Descending = !ascending
	case SortFieldPriority:
		plan.PriorityRerank = true
		plan.PriorityAscending = ascending
	}

	return plan
}

// Apply runs the post-fetch step of the plan on tasks already ordered by the store.
func (p Plan) Apply(tasks []model.Task) {
	if p.PriorityRerank {
		SortByPriority(tasks, p.PriorityAscending)
	}
}

// SortByPriority orders tasks by priority rank, highest first unless ascending.
// The sort is stable, so equal priorities keep the order they were fetched in.
func SortByPriority(tasks []model.Task, ascending bool) {
	sort.SliceStable(tasks, func(i, j int) bool {
		ri, rj := tasks[i].Priority.Rank(), tasks[j].Priority.Rank()
		if ascending {
			return ri < rj
		}
		return ri > rj
	})
}

// EscapeLike escapes LIKE wildcards so the search term matches literally.
func EscapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}

func isTrue(v string) bool {
	return v == "true"
}
