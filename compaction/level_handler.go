package compaction

import (
	"sort"

	"hummock/model"
)

// LevelHandler tracks which tables of one level are reserved by in-flight
// compaction tasks. A table id is held by at most one task at a time; the
// picker upholds that by never selecting pending tables, so AddTask only
// records what was already checked.
type LevelHandler struct {
	levelIdx uint32
	tasks    map[uint64][]uint64 // task id -> reserved table ids
	pending  map[uint64]uint64   // table id -> owning task id
}

func NewLevelHandler(levelIdx uint32) *LevelHandler {
	return &LevelHandler{
		levelIdx: levelIdx,
		tasks:    make(map[uint64][]uint64),
		pending:  make(map[uint64]uint64),
	}
}

func (h *LevelHandler) LevelIdx() uint32 {
	return h.levelIdx
}

func (h *LevelHandler) AddTask(taskID uint64, tables []*model.SstableInfo) {
	if len(tables) == 0 {
		return
	}
	ids := h.tasks[taskID]
	for _, t := range tables {
		ids = append(ids, t.Id)
		h.pending[t.Id] = taskID
	}
	h.tasks[taskID] = ids
}

func (h *LevelHandler) IsPending(tableID uint64) bool {
	_, ok := h.pending[tableID]
	return ok
}

// RemoveTask releases every table the task reserved. Removing an unknown
// task id is a no-op so completion reports can be delivered more than once.
func (h *LevelHandler) RemoveTask(taskID uint64) {
	ids, ok := h.tasks[taskID]
	if !ok {
		return
	}
	for _, id := range ids {
		delete(h.pending, id)
	}
	delete(h.tasks, taskID)
}

// PendingTaskCount reports how many tasks currently hold reservations.
func (h *LevelHandler) PendingTaskCount() int {
	return len(h.tasks)
}

type taskReservationRecord struct {
	TaskId   uint64   `msgpack:"task_id"`
	TableIds []uint64 `msgpack:"table_ids"`
}

type levelHandlerRecord struct {
	LevelIdx uint32                  `msgpack:"level_idx"`
	Tasks    []taskReservationRecord `msgpack:"tasks"`
}

// toRecord produces a deterministic snapshot for persistence: tasks sorted
// by id, table ids ascending.
func (h *LevelHandler) toRecord() levelHandlerRecord {
	rec := levelHandlerRecord{LevelIdx: h.levelIdx}
	for taskID, tableIDs := range h.tasks {
		ids := append([]uint64(nil), tableIDs...)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		rec.Tasks = append(rec.Tasks, taskReservationRecord{TaskId: taskID, TableIds: ids})
	}
	sort.Slice(rec.Tasks, func(i, j int) bool { return rec.Tasks[i].TaskId < rec.Tasks[j].TaskId })
	return rec
}

func levelHandlerFromRecord(rec levelHandlerRecord) *LevelHandler {
	h := NewLevelHandler(rec.LevelIdx)
	for _, task := range rec.Tasks {
		h.tasks[task.TaskId] = append([]uint64(nil), task.TableIds...)
		for _, id := range task.TableIds {
			h.pending[id] = task.TaskId
		}
	}
	return h
}
