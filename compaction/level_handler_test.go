package compaction

import (
	"reflect"
	"testing"

	"hummock/model"
)

func TestLevelHandlerReservation(t *testing.T) {
	h := NewLevelHandler(0)
	h.AddTask(1, []*model.SstableInfo{table(1, "a", "c"), table(2, "c", "f")})

	if !h.IsPending(1) || !h.IsPending(2) {
		t.Error("reserved tables not pending")
	}
	if h.IsPending(3) {
		t.Error("unreserved table pending")
	}
	if h.PendingTaskCount() != 1 {
		t.Errorf("pending task count = %d, want 1", h.PendingTaskCount())
	}

	h.RemoveTask(1)
	if h.IsPending(1) || h.IsPending(2) {
		t.Error("released tables still pending")
	}
}

func TestLevelHandlerRemoveIdempotent(t *testing.T) {
	h := NewLevelHandler(0)
	h.AddTask(7, []*model.SstableInfo{table(1, "a", "c")})

	h.RemoveTask(7)
	before := h.toRecord()
	h.RemoveTask(7)
	// unknown ids are no-ops too
	h.RemoveTask(42)
	after := h.toRecord()

	if !reflect.DeepEqual(before, after) {
		t.Errorf("repeated remove changed state: %+v != %+v", before, after)
	}
}

func TestLevelHandlerRecordRoundTrip(t *testing.T) {
	h := NewLevelHandler(1)
	h.AddTask(3, []*model.SstableInfo{table(9, "m", "p"), table(4, "a", "c")})
	h.AddTask(1, []*model.SstableInfo{table(7, "x", "z")})

	rec := h.toRecord()
	// deterministic record: tasks by id, tables ascending
	if rec.Tasks[0].TaskId != 1 || rec.Tasks[1].TaskId != 3 {
		t.Fatalf("tasks not sorted: %+v", rec.Tasks)
	}
	if rec.Tasks[1].TableIds[0] != 4 || rec.Tasks[1].TableIds[1] != 9 {
		t.Fatalf("table ids not sorted: %+v", rec.Tasks[1])
	}

	restored := levelHandlerFromRecord(rec)
	if restored.LevelIdx() != 1 {
		t.Errorf("level idx = %d, want 1", restored.LevelIdx())
	}
	for _, id := range []uint64{9, 4, 7} {
		if !restored.IsPending(id) {
			t.Errorf("table %d lost across round trip", id)
		}
	}
	if !reflect.DeepEqual(restored.toRecord(), rec) {
		t.Errorf("round trip record mismatch")
	}
}
