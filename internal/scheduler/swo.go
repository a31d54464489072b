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

// SWOOptions configures the squeaky-wheel scheduler.
type SWOOptions struct {
	GranularityMinutes int // slot width, default 15
	Weights            config.SWOWeights
	WorkdayStartHour   int
	WorkdayEndHour     int
}

// SWO is the squeaky-wheel optimization scheduler: greedy first-fit
// construction in priority order, then per-task penalty feedback promotes the
// tasks that fared worst to the front of the next pass.
type SWO struct {
	granularity   int
	maxIterations int
	unschedPen    int
	deviationW    int
	slackW        int
	workStart     int
	workEnd       int
	logger        *slog.Logger
}

// NewSWO validates the options and returns a ready engine.
func NewSWO(opts SWOOptions, logger *slog.Logger) (*SWO, error) {
	if opts.WorkdayStartHour < 0 || opts.WorkdayStartHour >= opts.WorkdayEndHour || opts.WorkdayEndHour > 24 {
		return nil, fmt.Errorf("working day hours must satisfy 0 <= start < end <= 24, got [%d, %d)",
			opts.WorkdayStartHour, opts.WorkdayEndHour)
	}
	if opts.GranularityMinutes <= 0 {
		opts.GranularityMinutes = 15
	}
	if opts.Weights == (config.SWOWeights{}) {
		opts.Weights = config.DefaultWeights().SWO
	}
	maxIter := opts.Weights.MaxIterations
	if maxIter <= 0 {
		maxIter = 6
	}
	return &SWO{
		granularity:   opts.GranularityMinutes,
		maxIterations: maxIter,
		unschedPen:    opts.Weights.UnscheduledPenalty,
		deviationW:    opts.Weights.Deviation,
		slackW:        opts.Weights.Slack,
		workStart:     opts.WorkdayStartHour,
		workEnd:       opts.WorkdayEndHour,
		logger:        logger.With("component", "swo"),
	}, nil
}

// Module implements Engine.
func (s *SWO) Module() model.Module { return model.ModuleSWO }

// segmentInfo is one task's compiled placement bounds.
type segmentInfo struct {
	task          model.ScheduleTask
	durationSlots int
	earliestSlot  int
	latestStart   int
	dueSlot       int
	prevStart     *int
}

// Schedule implements Engine.
func (s *SWO) Schedule(req model.ScheduleRequest) model.ScheduleResult {
	if len(req.Tasks) == 0 {
		return emptyResult()
	}

	g, horizon := runGrid(req, s.granularity)

	infos := make(map[string]*segmentInfo, len(req.Tasks))
	order := make([]model.ScheduleTask, len(req.Tasks))
	copy(order, req.Tasks)

	for _, task := range req.Tasks {
		dur := g.DurationSlots(task.DurationMinutes)
		earliest := g.SlotCeil(task.EarliestStart)
		dueSlot := g.SlotCeil(task.Due)
		latest := dueSlot - dur
		if h := horizon - dur; h < latest {
			latest = h
		}
		if latest < earliest {
			latest = earliest
		}

		info := &segmentInfo{
			task:          task,
			durationSlots: dur,
			earliestSlot:  earliest,
			latestStart:   latest,
			dueSlot:       dueSlot,
		}
		if prev, ok := req.PreviousAssignments[task.TaskID]; ok {
			slot := g.Slot(prev.Start)
			info.prevStart = &slot
		}
		infos[task.TaskID] = info
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].Priority != order[j].Priority {
			return order[i].Priority > order[j].Priority
		}
		return order[i].EarliestStart.Before(order[j].EarliestStart)
	})

	base := s.baseOccupancy(req, g, horizon)

	var best *model.ScheduleResult
	bestUnscheduled := math.MaxInt
	var bestObjective int64 = math.MaxInt64

	penalties := make(map[string]float64, len(req.Tasks))
	for _, task := range req.Tasks {
		penalties[task.TaskID] = 0
	}

	for iteration := 0; iteration < s.maxIterations; iteration++ {
		assignments, unscheduled := s.construct(order, infos, base, horizon)
		result := s.buildResult(order, assignments, unscheduled, infos, g)

		objective := int64(len(unscheduled)) * int64(s.unschedPen)
		if best == nil || len(unscheduled) < bestUnscheduled ||
			(len(unscheduled) == bestUnscheduled && objective < bestObjective) {
			best = &result
			bestUnscheduled = len(unscheduled)
			bestObjective = objective
		}

		newPenalties := s.evaluatePenalties(assignments, unscheduled, infos)
		changed := false
		for _, task := range order {
			if math.Abs(newPenalties[task.TaskID]-penalties[task.TaskID]) > 1e-6 {
				changed = true
				break
			}
		}
		penalties = newPenalties

		newOrder := make([]model.ScheduleTask, len(order))
		copy(newOrder, order)
		sort.SliceStable(newOrder, func(i, j int) bool {
			pi, pj := penalties[newOrder[i].TaskID], penalties[newOrder[j].TaskID]
			if pi != pj {
				return pi > pj
			}
			if newOrder[i].Priority != newOrder[j].Priority {
				return newOrder[i].Priority > newOrder[j].Priority
			}
			return newOrder[i].EarliestStart.Before(newOrder[j].EarliestStart)
		})

		if !changed || sameOrder(newOrder, order) {
			s.logger.Debug("swo converged", "iteration", iteration+1)
			break
		}
		order = newOrder
	}

	best.ObjectiveValue = &bestObjective
	return *best
}

// construct runs one greedy pass over the current order.
func (s *SWO) construct(
	order []model.ScheduleTask,
	infos map[string]*segmentInfo,
	base []bool,
	horizon int,
) (map[string]int, []string) {
	occupancy := append([]bool(nil), base...)
	assignments := make(map[string]int)
	unscheduled := []string{}

	for _, task := range order {
		info := infos[task.TaskID]
		slot, ok := s.findSlot(info, occupancy, horizon)
		if !ok {
			unscheduled = append(unscheduled, task.TaskID)
			continue
		}
		for i := slot; i < slot+info.durationSlots; i++ {
			occupancy[i] = true
		}
		assignments[task.TaskID] = slot
	}
	return assignments, unscheduled
}

// findSlot returns the earliest start where the whole segment fits before its
// deadline.
func (s *SWO) findSlot(info *segmentInfo, occupancy []bool, horizon int) (int, bool) {
	latest := info.latestStart
	if h := horizon - info.durationSlots; h < latest {
		latest = h
	}
next:
	for slot := info.earliestSlot; slot <= latest; slot++ {
		end := slot + info.durationSlots
		if end > info.dueSlot {
			continue
		}
		for i := slot; i < end; i++ {
			if occupancy[i] {
				continue next
			}
		}
		return slot, true
	}
	return 0, false
}

func (s *SWO) buildResult(
	order []model.ScheduleTask,
	assignments map[string]int,
	unscheduled []string,
	infos map[string]*segmentInfo,
	g timegrid.Grid,
) model.ScheduleResult {
	assigned := make([]model.AssignedTask, 0, len(assignments))
	for _, task := range order {
		startSlot, ok := assignments[task.TaskID]
		if !ok {
			continue
		}
		info := infos[task.TaskID]
		start := g.Time(startSlot)
		end := start.Add(time.Duration(info.task.DurationMinutes) * time.Minute)

		deviation := 0
		if info.prevStart != nil {
			deviation = abs(startSlot-*info.prevStart) * s.granularity
		}
		tardiness := 0
		if end.After(info.task.Due) {
			tardiness = int(end.Sub(info.task.Due).Minutes())
		}
		assigned = append(assigned, model.AssignedTask{
			TaskID:           task.TaskID,
			Start:            start,
			End:              end,
			DeviationMinutes: deviation,
			TardinessMinutes: tardiness,
		})
	}
	sort.SliceStable(assigned, func(i, j int) bool {
		return assigned[i].Start.Before(assigned[j].Start)
	})
	return model.ScheduleResult{Assignments: assigned, UnscheduledTasks: unscheduled}
}

func (s *SWO) evaluatePenalties(
	assignments map[string]int,
	unscheduled []string,
	infos map[string]*segmentInfo,
) map[string]float64 {
	failed := make(map[string]bool, len(unscheduled))
	for _, id := range unscheduled {
		failed[id] = true
	}

	penalties := make(map[string]float64, len(infos))
	for id, info := range infos {
		if failed[id] {
			penalties[id] = float64(s.unschedPen)
			continue
		}
		startSlot := assignments[id]
		endSlot := startSlot + info.durationSlots
		slack := info.dueSlot - endSlot
		if slack < 0 {
			slack = 0
		}
		deviationMinutes := 0
		if info.prevStart != nil {
			deviationMinutes = abs(startSlot-*info.prevStart) * s.granularity
		}
		penalties[id] = float64(s.deviationW)*float64(deviationMinutes) +
			float64(s.slackW)*(1/float64(slack+1))
	}
	return penalties
}

// baseOccupancy blocks out non-working hours and meetings before any task is
// placed.
func (s *SWO) baseOccupancy(req model.ScheduleRequest, g timegrid.Grid, horizon int) []bool {
	occupancy := make([]bool, horizon)

	if s.workStart > 0 || s.workEnd < 24 {
		for slot := 0; slot < horizon; slot++ {
			t := g.Time(slot)
			hour := float64(t.Hour()) + float64(t.Minute())/60
			if hour < float64(s.workStart) || hour >= float64(s.workEnd) {
				occupancy[slot] = true
			}
		}
	}

	for _, m := range req.Meetings {
		start := g.Slot(m.Start)
		if start < 0 {
			start = 0
		}
		end := g.SlotCeil(m.End)
		if end > horizon {
			end = horizon
		}
		for slot := start; slot < end; slot++ {
			occupancy[slot] = true
		}
	}
	return occupancy
}

func sameOrder(a, b []model.ScheduleTask) bool {
	for i := range a {
		if a[i].TaskID != b[i].TaskID {
			return false
		}
	}
	return true
}
