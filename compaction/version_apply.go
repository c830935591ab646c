package compaction

import (
	"fmt"
	"sort"

	"hummock/model"
)

// ApplyCompactResult merges a finished task's outputs into a new version.
// It is pure: the based version is cloned, never touched, so already
// published snapshots stay valid for lock-free readers. Malformed input
// (task and version produced by different histories) is a programming
// error and panics.
func ApplyCompactResult(task *model.CompactTask, based *model.HummockVersion) *model.HummockVersion {
	version := based.Clone()
	if task.Watermark > version.SafeEpoch {
		version.SafeEpoch = task.Watermark
	}

	if task.TargetLevel == 0 {
		applyLevel0Reorganization(task, version)
	} else {
		applyLeveling(task, version)
	}
	return version
}

// applyLevel0Reorganization splices the outputs into level 0 at the
// position of the first consumed table, keeping the relative order of all
// untouched tables. Level 0 order encodes flush recency, so a plain
// remove-and-append would reorder epochs.
func applyLevel0Reorganization(task *model.CompactTask, version *model.HummockVersion) {
	if task.InputSsts[0].LevelIdx != 0 {
		panic(fmt.Sprintf("compaction: level-0 reorganization consuming level %d", task.InputSsts[0].LevelIdx))
	}

	consumed := inputTableIDs(task.InputSsts[0])
	newTables := make([]*model.SstableInfo, 0, len(version.Levels[0].TableInfos))
	spliced := false
	for _, table := range version.Levels[0].TableInfos {
		if _, ok := consumed[table.Id]; !ok {
			newTables = append(newTables, table)
		} else if !spliced {
			newTables = append(newTables, cloneTables(task.SortedOutputSsts)...)
			spliced = true
		}
	}
	version.Levels[0].TableInfos = newTables
}

// applyLeveling removes each input level's consumed tables (input levels
// match version levels by position), appends the outputs to the target
// level and re-sorts it, restoring the sorted non-overlapping run
// invariant of levels >= 1.
func applyLeveling(task *model.CompactTask, version *model.HummockVersion) {
	for idx, inputLevel := range task.InputSsts {
		consumed := inputTableIDs(inputLevel)
		if len(consumed) == 0 {
			continue
		}
		tables := version.Levels[idx].TableInfos
		kept := tables[:0]
		for _, table := range tables {
			if _, ok := consumed[table.Id]; !ok {
				kept = append(kept, table)
			}
		}
		version.Levels[idx].TableInfos = kept
	}

	target := version.Levels[task.TargetLevel]
	target.TableInfos = append(target.TableInfos, cloneTables(task.SortedOutputSsts)...)
	sort.Sort(model.TablesByKeyRangeSlice(target.TableInfos))
}

func inputTableIDs(level *model.Level) map[uint64]struct{} {
	ids := make(map[uint64]struct{}, len(level.TableInfos))
	for _, t := range level.TableInfos {
		ids[t.Id] = struct{}{}
	}
	return ids
}
