// Package planner bridges persistent tasks and the solver contract: it fans
// tasks out into bounded segments, threads previous-plan state in, runs the
// requested engine, and folds the result back onto task identities.
package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/me/goplan/pkg/model"
)

// Segment length bounds: no solver interval exceeds MaxBlockMinutes and none
// falls below MinBlockMinutes.
const (
	MaxBlockMinutes = 120
	MinBlockMinutes = 15
)

// SegmentDurations splits a total duration into chunks of [MinBlockMinutes,
// MaxBlockMinutes]. The chunks sum to max(total, MinBlockMinutes); a greedy
// take of MaxBlockMinutes is shrunk whenever it would leave a remainder too
// small to form a valid final chunk.
func SegmentDurations(totalMinutes int) []int {
	remaining := totalMinutes
	if remaining < MinBlockMinutes {
		remaining = MinBlockMinutes
	}

	var chunks []int
	for remaining > 0 {
		chunk := MaxBlockMinutes
		if remaining < chunk {
			chunk = remaining
		}
		remainder := remaining - chunk
		if remainder > 0 && remainder < MinBlockMinutes {
			deficit := MinBlockMinutes - remainder
			adjustment := chunk - MinBlockMinutes
			if deficit < adjustment {
				adjustment = deficit
			}
			chunk -= adjustment
		}
		if chunk < MinBlockMinutes {
			chunk = MinBlockMinutes
		}
		if chunk > remaining {
			chunk = remaining
		}
		chunks = append(chunks, chunk)
		remaining -= chunk
	}
	return chunks
}

// SegmentID tags one solver-level segment with its root task and position.
type SegmentID struct {
	Root  string
	Index int // zero-based
}

// WireID renders the identifier placed on ScheduleTask.TaskID: the plain root
// for the first segment, "root::segN" (N >= 2) for the rest.
func (s SegmentID) WireID() string {
	if s.Index == 0 {
		return s.Root
	}
	return fmt.Sprintf("%s::seg%d", s.Root, s.Index+1)
}

// segMarker separates the root from the segment tag in a wire ID.
const segMarker = "::seg"

// RootID recovers the root task ID from a wire ID. IDs without a segment tag
// map to themselves, which makes the remap idempotent.
func RootID(wireID string) string {
	if i := strings.LastIndex(wireID, segMarker); i >= 0 {
		return wireID[:i]
	}
	return wireID
}

// RemapResult rewrites segment identities in a solver result back to root task
// IDs. Assignments keep their order; unscheduled roots are deduplicated and
// sorted.
func RemapResult(result model.ScheduleResult) model.ScheduleResult {
	assignments := make([]model.AssignedTask, len(result.Assignments))
	for i, a := range result.Assignments {
		a.TaskID = RootID(a.TaskID)
		assignments[i] = a
	}

	seen := make(map[string]bool, len(result.UnscheduledTasks))
	unscheduled := make([]string, 0, len(result.UnscheduledTasks))
	for _, id := range result.UnscheduledTasks {
		root := RootID(id)
		if !seen[root] {
			seen[root] = true
			unscheduled = append(unscheduled, root)
		}
	}
	sort.Strings(unscheduled)

	return model.ScheduleResult{
		Assignments:      assignments,
		UnscheduledTasks: unscheduled,
		ObjectiveValue:   result.ObjectiveValue,
	}
}
