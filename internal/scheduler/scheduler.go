// Package scheduler places duration-bearing tasks onto the free time of a
// single shared calendar. Two engines implement the same contract: an exact
// CP-style optimizer with a large-neighborhood-search escape hatch (CPLNS) and
// a squeaky-wheel greedy heuristic (SWO).
package scheduler

import (
	"time"

	"github.com/me/goplan/internal/timegrid"
	"github.com/me/goplan/pkg/model"
)

// Engine produces a schedule for one self-contained request. Engines are
// stateless and re-entrant; a single instance may serve concurrent calls as
// long as each call owns its request.
type Engine interface {
	Schedule(req model.ScheduleRequest) model.ScheduleResult
	Module() model.Module
}

// runGrid derives the shared slot grid and horizon for a request: base is the
// earliest task or meeting start aligned down to the granularity, horizon
// covers the latest due or meeting end plus slack.
func runGrid(req model.ScheduleRequest, granularity int) (timegrid.Grid, int) {
	starts := make([]time.Time, 0, len(req.Tasks)+len(req.Meetings))
	for _, t := range req.Tasks {
		starts = append(starts, t.EarliestStart)
	}
	for _, m := range req.Meetings {
		starts = append(starts, m.Start)
	}
	base := timegrid.BaseFor(starts, granularity)
	g := timegrid.Grid{Base: base, Granularity: granularity}

	latest := base
	for _, t := range req.Tasks {
		if t.Due.After(latest) {
			latest = t.Due
		}
	}
	for _, m := range req.Meetings {
		if m.End.After(latest) {
			latest = m.End
		}
	}
	return g, g.Horizon(latest)
}

func emptyResult() model.ScheduleResult {
	zero := int64(0)
	return model.ScheduleResult{
		Assignments:      []model.AssignedTask{},
		UnscheduledTasks: []string{},
		ObjectiveValue:   &zero,
	}
}
