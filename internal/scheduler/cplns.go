package scheduler

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/me/goplan/internal/config"
	"github.com/me/goplan/internal/timegrid"
	"github.com/me/goplan/pkg/model"
)

// CPLNSOptions configures the exact optimizer.
type CPLNSOptions struct {
	GranularityMinutes int           // slot width, default 5
	TimeLimit          time.Duration // hard wall-clock deadline for the search, default 15s
	Weights            config.CPWeights
	WorkdayStartHour   int // inclusive, [0,24)
	WorkdayEndHour     int // exclusive, (start,24]
}

// CPLNS is the constraint-model scheduler. It builds a single-machine
// no-overlap model over integer slots with optional task intervals and solves
// it exactly with a bounded branch-and-bound search. A neighborhood window
// turns it into the repair step of a large-neighborhood search: tasks whose
// previous start falls outside the window are kept where they were.
type CPLNS struct {
	granularity int
	timeLimit   time.Duration
	weights     config.CPWeights
	workStart   int
	workEnd     int
	logger      *slog.Logger
}

// NewCPLNS validates the options and returns a ready engine.
func NewCPLNS(opts CPLNSOptions, logger *slog.Logger) (*CPLNS, error) {
	if opts.WorkdayStartHour < 0 || opts.WorkdayStartHour >= opts.WorkdayEndHour || opts.WorkdayEndHour > 24 {
		return nil, fmt.Errorf("working day hours must satisfy 0 <= start < end <= 24, got [%d, %d)",
			opts.WorkdayStartHour, opts.WorkdayEndHour)
	}
	if opts.GranularityMinutes <= 0 {
		opts.GranularityMinutes = 5
	}
	if opts.TimeLimit <= 0 {
		opts.TimeLimit = 15 * time.Second
	}
	if opts.Weights == (config.CPWeights{}) {
		opts.Weights = config.DefaultWeights().CP
	}
	return &CPLNS{
		granularity: opts.GranularityMinutes,
		timeLimit:   opts.TimeLimit,
		weights:     opts.Weights,
		workStart:   opts.WorkdayStartHour,
		workEnd:     opts.WorkdayEndHour,
		logger:      logger.With("component", "cplns"),
	}, nil
}

// Module implements Engine.
func (s *CPLNS) Module() model.Module { return model.ModuleCPLNS }

// cpTask is one task's compiled decision space.
type cpTask struct {
	id          string
	priority    int
	dur         int // slots
	earliest    int
	latestStart int
	dueCeil     int
	prev        *int // previous start slot, when a prior assignment exists
	pin         *int // forced start slot (fixed start or frozen outside the LNS window)
	mustPresent bool

	// options are the feasible decisions against the fixed occupancy, sorted
	// by cost; start == absentStart encodes leaving the task unscheduled.
	options []cpOption
	minCost int64
}

type cpOption struct {
	start int
	cost  int64
}

const absentStart = -1

// Schedule implements Engine.
func (s *CPLNS) Schedule(req model.ScheduleRequest) model.ScheduleResult {
	if len(req.Tasks) == 0 {
		return emptyResult()
	}

	g, horizon := runGrid(req, s.granularity)
	occupied := s.fixedOccupancy(req, g, horizon)

	var windowRange *[2]int
	if w := req.NeighborhoodWindow; w != nil {
		windowRange = &[2]int{g.Slot(w.Start), g.SlotCeil(w.End)}
	}

	tasks := make([]*cpTask, 0, len(req.Tasks))
	for _, task := range req.Tasks {
		ct, feasible := s.compileTask(task, req.PreviousAssignments, windowRange, g, horizon, occupied)
		if !feasible {
			// A forced-present task with no legal placement makes the whole
			// model infeasible, matching the solver's INFEASIBLE status.
			return s.infeasible(req)
		}
		tasks = append(tasks, ct)
	}

	sol := solve(tasks, occupied, s.timeLimit)
	if !sol.found {
		return s.infeasible(req)
	}

	assignments := make([]model.AssignedTask, 0, len(tasks))
	unscheduled := []string{}
	for i, ct := range tasks {
		start := sol.starts[i]
		if start == absentStart {
			unscheduled = append(unscheduled, ct.id)
			continue
		}
		end := start + ct.dur

		deviation := 0
		if ct.prev != nil {
			deviation = abs(start-*ct.prev) * s.granularity
		}
		tardiness := 0
		if over := end - ct.dueCeil; over > 0 {
			tardiness = over * s.granularity
		}
		assignments = append(assignments, model.AssignedTask{
			TaskID:           ct.id,
			Start:            g.Time(start),
			End:              g.Time(start).Add(time.Duration(req.Tasks[i].DurationMinutes) * time.Minute),
			DeviationMinutes: deviation,
			TardinessMinutes: tardiness,
		})
	}
	sort.SliceStable(assignments, func(i, j int) bool {
		return assignments[i].Start.Before(assignments[j].Start)
	})

	var objective *int64
	if sol.optimal {
		v := sol.cost
		objective = &v
	}
	s.logger.Debug("cp solve finished",
		"tasks", len(tasks),
		"assigned", len(assignments),
		"unscheduled", len(unscheduled),
		"optimal", sol.optimal,
	)
	return model.ScheduleResult{
		Assignments:      assignments,
		UnscheduledTasks: unscheduled,
		ObjectiveValue:   objective,
	}
}

// compileTask translates one request task into its decision space. The second
// return is false when the task is forced present but has no legal placement.
func (s *CPLNS) compileTask(
	task model.ScheduleTask,
	previous map[string]model.Interval,
	windowRange *[2]int,
	g timegrid.Grid,
	horizon int,
	occupied []bool,
) (*cpTask, bool) {
	dur := g.DurationSlots(task.DurationMinutes)
	earliest := g.Slot(task.EarliestStart)
	if earliest < 0 {
		earliest = 0
	}
	dueCeil := g.SlotCeil(task.Due)
	latestStart := dueCeil - dur
	if h := horizon - dur; h < latestStart {
		latestStart = h
	}
	if latestStart < earliest {
		latestStart = earliest
	}

	ct := &cpTask{
		id:          task.TaskID,
		priority:    task.Priority,
		dur:         dur,
		earliest:    earliest,
		latestStart: latestStart,
		dueCeil:     dueCeil,
	}

	if prev, ok := previous[task.TaskID]; ok {
		slot := g.Slot(prev.Start)
		ct.prev = &slot
	}

	switch {
	case task.FixedStart != nil:
		slot := g.Slot(*task.FixedStart)
		ct.pin = &slot
		ct.prev = &slot
		ct.mustPresent = true
	case windowRange != nil && ct.prev != nil &&
		(*ct.prev < windowRange[0] || *ct.prev > windowRange[1]):
		// LNS freeze: the previous start lies outside the neighborhood.
		ct.pin = ct.prev
		ct.mustPresent = true
	case ct.prev == nil:
		// New tasks must be scheduled if at all possible.
		ct.mustPresent = true
	}

	s.buildOptions(ct, occupied, horizon)
	if len(ct.options) == 0 {
		return nil, false
	}
	return ct, true
}

// buildOptions enumerates the legal start slots (against fixed occupancy) plus
// the absence decision, sorted by objective contribution.
func (s *CPLNS) buildOptions(ct *cpTask, occupied []bool, horizon int) {
	lo, hi := ct.earliest, ct.latestStart
	if ct.pin != nil {
		lo, hi = *ct.pin, *ct.pin
	}
	if byDue := ct.dueCeil - ct.dur; hi > byDue {
		hi = byDue
	}

slots:
	for start := lo; start <= hi; start++ {
		if start < ct.earliest || start > ct.latestStart || start+ct.dur > horizon {
			continue
		}
		for slot := start; slot < start+ct.dur; slot++ {
			if occupied[slot] {
				continue slots
			}
		}
		cost := int64(s.weights.StartTime) * int64(ct.priority) * int64(start)
		if ct.prev != nil {
			cost += int64(s.weights.Stability) * int64(abs(start-*ct.prev))
		}
		ct.options = append(ct.options, cpOption{start: start, cost: cost})
	}
	if !ct.mustPresent {
		ct.options = append(ct.options, cpOption{start: absentStart, cost: int64(s.weights.Unscheduled)})
	}

	sort.SliceStable(ct.options, func(i, j int) bool {
		if ct.options[i].cost != ct.options[j].cost {
			return ct.options[i].cost < ct.options[j].cost
		}
		return ct.options[i].start < ct.options[j].start
	})
	ct.minCost = math.MaxInt64
	for _, opt := range ct.options {
		if opt.cost < ct.minCost {
			ct.minCost = opt.cost
		}
	}
}

// fixedOccupancy marks the slots no task may use: meetings and the non-working
// stretches of every day the horizon spans.
func (s *CPLNS) fixedOccupancy(req model.ScheduleRequest, g timegrid.Grid, horizon int) []bool {
	occupied := make([]bool, horizon)

	mark := func(startSlot, endSlot int) {
		if startSlot < 0 {
			startSlot = 0
		}
		if endSlot > horizon {
			endSlot = horizon
		}
		for slot := startSlot; slot < endSlot; slot++ {
			occupied[slot] = true
		}
	}

	for _, m := range req.Meetings {
		minutes := int(math.Ceil(m.End.Sub(m.Start).Minutes()))
		if minutes < 1 {
			minutes = 1
		}
		start := g.Slot(m.Start)
		mark(start, start+g.DurationSlots(minutes))
	}

	if s.workStart > 0 || s.workEnd < 24 {
		horizonEnd := g.Time(horizon)
		day := time.Date(g.Base.Year(), g.Base.Month(), g.Base.Day(), 0, 0, 0, 0, g.Base.Location())
		if day.After(g.Base) {
			day = day.AddDate(0, 0, -1)
		}
		for day.Before(horizonEnd) {
			next := day.AddDate(0, 0, 1)
			workStart := day.Add(time.Duration(s.workStart) * time.Hour)
			workEnd := day.Add(time.Duration(s.workEnd) * time.Hour)
			mark(g.Slot(day), g.SlotCeil(workStart))
			mark(g.Slot(workEnd), g.SlotCeil(next))
			day = next
		}
	}
	return occupied
}

// infeasible reports every task as unscheduled with no objective value.
func (s *CPLNS) infeasible(req model.ScheduleRequest) model.ScheduleResult {
	unscheduled := make([]string, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		unscheduled = append(unscheduled, t.TaskID)
	}
	s.logger.Debug("cp model infeasible", "tasks", len(req.Tasks))
	return model.ScheduleResult{
		Assignments:      []model.AssignedTask{},
		UnscheduledTasks: unscheduled,
		ObjectiveValue:   nil,
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
