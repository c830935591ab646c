package compaction

import "hummock/model"

// OverlapStrategy decides when two key ranges conflict. Missing an overlap
// could let a stale key shadow a newer one after a merge, so FindOverlap
// must never produce false negatives; false positives only waste work.
//
// Exactly one policy ships today; alternative tolerances (for example for
// tombstone-heavy workloads) plug in here without touching the picker.
type OverlapStrategy interface {
	Overlaps(a, b model.KeyRange) bool

	// FindOverlap returns every table of the level whose range intersects
	// target.
	FindOverlap(target model.KeyRange, level *model.Level) []*model.SstableInfo
}

// RangeOverlapStrategy compares closed-open byte intervals lexicographically.
type RangeOverlapStrategy struct{}

func NewRangeOverlapStrategy() OverlapStrategy {
	return RangeOverlapStrategy{}
}

func (RangeOverlapStrategy) Overlaps(a, b model.KeyRange) bool {
	return a.Overlaps(b)
}

func (s RangeOverlapStrategy) FindOverlap(target model.KeyRange, level *model.Level) []*model.SstableInfo {
	if level == nil {
		return nil
	}
	var overlap []*model.SstableInfo
	for _, table := range level.TableInfos {
		if s.Overlaps(target, table.KeyRange) {
			overlap = append(overlap, table)
		}
	}
	return overlap
}
