package planner

import (
	"reflect"
	"testing"

	"github.com/me/goplan/pkg/model"
)

func TestSegmentDurations(t *testing.T) {
	tests := []struct {
		total int
		want  []int
	}{
		{10, []int{15}},
		{15, []int{15}},
		{60, []int{60}},
		{120, []int{120}},
		{121, []int{106, 15}},
		{130, []int{115, 15}},
		{240, []int{120, 120}},
		{250, []int{120, 115, 15}},
		{360, []int{120, 120, 120}},
	}
	for _, tt := range tests {
		got := SegmentDurations(tt.total)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SegmentDurations(%d) = %v, want %v", tt.total, got, tt.want)
		}
	}
}

func TestSegmentDurationsProperties(t *testing.T) {
	for total := 1; total <= 1000; total++ {
		chunks := SegmentDurations(total)
		sum := 0
		for _, c := range chunks {
			if c < MinBlockMinutes || c > MaxBlockMinutes {
				t.Fatalf("total=%d: chunk %d outside [%d, %d]", total, c, MinBlockMinutes, MaxBlockMinutes)
			}
			sum += c
		}
		want := total
		if want < MinBlockMinutes {
			want = MinBlockMinutes
		}
		if sum != want {
			t.Fatalf("total=%d: chunks %v sum to %d, want %d", total, chunks, sum, want)
		}
	}
}

func TestWireIDAndRootID(t *testing.T) {
	tests := []struct {
		seg  SegmentID
		wire string
	}{
		{SegmentID{Root: "abc", Index: 0}, "abc"},
		{SegmentID{Root: "abc", Index: 1}, "abc::seg2"},
		{SegmentID{Root: "abc", Index: 4}, "abc::seg5"},
	}
	for _, tt := range tests {
		if got := tt.seg.WireID(); got != tt.wire {
			t.Errorf("WireID(%+v) = %q, want %q", tt.seg, got, tt.wire)
		}
		if got := RootID(tt.wire); got != "abc" {
			t.Errorf("RootID(%q) = %q, want abc", tt.wire, got)
		}
	}
}

func TestRemapResultDedupesAndSorts(t *testing.T) {
	result := model.ScheduleResult{
		Assignments: []model.AssignedTask{
			{TaskID: "b::seg2"},
			{TaskID: "b"},
		},
		UnscheduledTasks: []string{"z::seg3", "a", "z", "a::seg2"},
	}

	remapped := RemapResult(result)

	if remapped.Assignments[0].TaskID != "b" || remapped.Assignments[1].TaskID != "b" {
		t.Errorf("assignments not re-rooted: %+v", remapped.Assignments)
	}
	want := []string{"a", "z"}
	if !reflect.DeepEqual(remapped.UnscheduledTasks, want) {
		t.Errorf("unscheduled = %v, want %v", remapped.UnscheduledTasks, want)
	}
}

func TestRemapResultIdempotent(t *testing.T) {
	result := model.ScheduleResult{
		Assignments:      []model.AssignedTask{{TaskID: "t::seg2"}, {TaskID: "t"}},
		UnscheduledTasks: []string{"u::seg4", "u"},
	}
	once := RemapResult(result)
	twice := RemapResult(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("remap not idempotent: %+v vs %+v", once, twice)
	}
}
