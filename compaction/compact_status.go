package compaction

import (
	"github.com/juju/errors"

	"hummock/meta"
	"hummock/model"
)

// compactStatusKey locates the persisted status inside DefaultCFName.
const compactStatusKey = "compact_status"

// CompactStatus is the durable aggregate of the compaction scheduler: the
// per-level reservation handlers plus the task id counter. All mutating
// calls must run under a single writer per compaction group; the
// coordinator's command loop provides that.
type CompactStatus struct {
	levelHandlers     []*LevelHandler
	nextCompactTaskID uint64

	opts *Options
}

// NewCompactStatus returns the state a stream starts with: empty handlers
// for level 0 and level 1, first task id 1.
func NewCompactStatus(opts *Options) *CompactStatus {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &CompactStatus{
		levelHandlers:     []*LevelHandler{NewLevelHandler(0), NewLevelHandler(1)},
		nextCompactTaskID: 1,
		opts:              opts,
	}
}

// LoadCompactStatus reads the persisted status. It returns (nil, nil) when
// nothing was persisted yet; a record that fails to decode is corruption
// and surfaces as a hard error, never as a silently fresh status.
func LoadCompactStatus(store meta.Store, opts *Options) (*CompactStatus, error) {
	value, err := store.GetCF(DefaultCFName, []byte(compactStatusKey))
	if err != nil {
		if err == meta.ErrNotFound {
			return nil, nil
		}
		return nil, errors.Trace(err)
	}
	rec := &compactStatusRecord{}
	if err := model.DecodeRecord(value, rec); err != nil {
		return nil, errors.Annotate(err, "decode compact status")
	}
	return compactStatusFromRecord(rec, opts), nil
}

// NextCompactTaskID exposes the counter for observation only.
func (s *CompactStatus) NextCompactTaskID() uint64 {
	return s.nextCompactTaskID
}

// LevelHandlers exposes the reservation state for observation only.
func (s *CompactStatus) LevelHandlers() []*LevelHandler {
	return s.levelHandlers
}

// GetCompactTask picks one compaction from the given levels and reserves
// its inputs under a fresh task id. It returns (nil, nil) when nothing is
// eligible. The caller must persist the status before handing the task to
// a worker, otherwise a crash could re-pick the same files.
func (s *CompactStatus) GetCompactTask(levels []*model.Level) (*model.CompactTask, error) {
	picker := NewTierCompactionPicker(s.nextCompactTaskID, NewRangeOverlapStrategy(), s.opts)
	ret, err := picker.PickCompaction(levels, s.levelHandlers)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if ret == nil {
		return nil, nil
	}

	selectLevelIdx := ret.SelectLevel.LevelIdx
	targetLevelIdx := ret.TargetLevel.LevelIdx

	task := &model.CompactTask{
		InputSsts:                   []*model.Level{ret.SelectLevel, ret.TargetLevel},
		Splits:                      ret.SplitRanges,
		Watermark:                   model.MaxEpoch,
		TaskId:                      s.nextCompactTaskID,
		TargetLevel:                 targetLevelIdx,
		IsTargetUltimateAndLeveling: targetLevelIdx == s.ultimateLevel() && selectLevelIdx > 0,
		Metrics: &model.CompactMetrics{
			ReadLevelN:      &model.TableSetStatistics{LevelIdx: selectLevelIdx},
			ReadLevelNplus1: &model.TableSetStatistics{LevelIdx: targetLevelIdx},
			Write:           &model.TableSetStatistics{LevelIdx: targetLevelIdx},
		},
	}
	s.nextCompactTaskID++
	return task, nil
}

func (s *CompactStatus) ultimateLevel() uint32 {
	if s.opts.UltimateLevel != 0 {
		return s.opts.UltimateLevel
	}
	return uint32(len(s.levelHandlers) - 1)
}

// ReportCompactTask releases every reservation the task holds, whether it
// finished or was canceled. Reports may arrive more than once.
func (s *CompactStatus) ReportCompactTask(task *model.CompactTask) {
	for _, level := range task.InputSsts {
		s.levelHandlers[level.LevelIdx].RemoveTask(task.TaskId)
	}
}

// UpsertIn stages the status into the batch under its fixed location.
func (s *CompactStatus) UpsertIn(batch meta.Batch) error {
	value, err := model.EncodeRecord(s.toRecord())
	if err != nil {
		return errors.Trace(err)
	}
	batch.Put(DefaultCFName, []byte(compactStatusKey), value)
	return nil
}

// DeleteIn stages removal of the status, used on stream teardown.
func (s *CompactStatus) DeleteIn(batch meta.Batch) {
	batch.Delete(DefaultCFName, []byte(compactStatusKey))
}

type compactStatusRecord struct {
	LevelHandlers     []levelHandlerRecord `msgpack:"level_handlers"`
	NextCompactTaskId uint64               `msgpack:"next_compact_task_id"`
}

func (s *CompactStatus) toRecord() *compactStatusRecord {
	rec := &compactStatusRecord{NextCompactTaskId: s.nextCompactTaskID}
	for _, h := range s.levelHandlers {
		rec.LevelHandlers = append(rec.LevelHandlers, h.toRecord())
	}
	return rec
}

func compactStatusFromRecord(rec *compactStatusRecord, opts *Options) *CompactStatus {
	if opts == nil {
		opts = DefaultOptions()
	}
	s := &CompactStatus{
		nextCompactTaskID: rec.NextCompactTaskId,
		opts:              opts,
	}
	for _, h := range rec.LevelHandlers {
		s.levelHandlers = append(s.levelHandlers, levelHandlerFromRecord(h))
	}
	return s
}
