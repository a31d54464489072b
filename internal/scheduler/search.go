package scheduler

import (
	"math"
	"sort"
	"time"
)

// solution is the outcome of one branch-and-bound run. starts holds one entry
// per task in the order passed to solve; absentStart marks absence. optimal is
// true when the search space was exhausted before the deadline, which is the
// CP notion of a proven optimum.
type solution struct {
	found   bool
	optimal bool
	cost    int64
	starts  []int
}

// searcher carries the mutable state of one depth-first branch-and-bound pass
// over the compiled tasks. Tasks are explored most-constrained first; options
// within a task are pre-sorted by cost, so the first full assignment found is
// already good and tightens the bound early.
type searcher struct {
	tasks    []*cpTask
	order    []int // exploration order (indexes into tasks)
	occupied []bool
	suffix   []int64 // suffix[i] = sum of minCost over order[i:]

	deadline  time.Time
	nodeCount int
	aborted   bool

	bestCost   int64
	bestStarts []int // per exploration position
	found      bool
}

// deadlineCheckInterval bounds how often the wall clock is read.
const deadlineCheckInterval = 1024

// solve runs the exact search. occupied is the fixed occupancy (meetings and
// non-working blocks); it is copied, never mutated.
func solve(tasks []*cpTask, occupied []bool, limit time.Duration) solution {
	order := make([]int, len(tasks))
	for i := range order {
		order[i] = i
	}
	// Most-constrained first: fewer options near the root means earlier
	// conflict detection and cheaper backtracking.
	sort.SliceStable(order, func(a, b int) bool {
		return len(tasks[order[a]].options) < len(tasks[order[b]].options)
	})

	suffix := make([]int64, len(tasks)+1)
	for i := len(tasks) - 1; i >= 0; i-- {
		suffix[i] = suffix[i+1] + tasks[order[i]].minCost
	}

	s := &searcher{
		tasks:      tasks,
		order:      order,
		occupied:   append([]bool(nil), occupied...),
		suffix:     suffix,
		deadline:   time.Now().Add(limit),
		bestCost:   math.MaxInt64,
		bestStarts: make([]int, len(tasks)),
	}
	current := make([]int, len(tasks))
	s.dfs(0, 0, current)

	if !s.found {
		return solution{}
	}
	starts := make([]int, len(tasks))
	for pos, idx := range order {
		starts[idx] = s.bestStarts[pos]
	}
	return solution{
		found:   true,
		optimal: !s.aborted,
		cost:    s.bestCost,
		starts:  starts,
	}
}

func (s *searcher) dfs(pos int, acc int64, current []int) {
	if s.aborted {
		return
	}
	s.nodeCount++
	if s.nodeCount%deadlineCheckInterval == 0 && time.Now().After(s.deadline) {
		s.aborted = true
		return
	}

	if pos == len(s.order) {
		if acc < s.bestCost {
			s.bestCost = acc
			copy(s.bestStarts, current)
			s.found = true
		}
		return
	}

	task := s.tasks[s.order[pos]]
	for _, opt := range task.options {
		// Options are cost-sorted, so once the optimistic completion exceeds
		// the incumbent no later option can beat it either.
		if acc+opt.cost+s.suffix[pos+1] >= s.bestCost {
			break
		}
		if opt.start != absentStart && !s.free(opt.start, task.dur) {
			continue
		}
		current[pos] = opt.start
		if opt.start != absentStart {
			s.set(opt.start, task.dur, true)
			s.dfs(pos+1, acc+opt.cost, current)
			s.set(opt.start, task.dur, false)
		} else {
			s.dfs(pos+1, acc+opt.cost, current)
		}
		if s.aborted {
			return
		}
	}
}

func (s *searcher) free(start, dur int) bool {
	for slot := start; slot < start+dur; slot++ {
		if s.occupied[slot] {
			return false
		}
	}
	return true
}

func (s *searcher) set(start, dur int, v bool) {
	for slot := start; slot < start+dur; slot++ {
		s.occupied[slot] = v
	}
}
