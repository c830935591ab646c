package compaction

import (
	"bytes"
	"sort"

	"github.com/juju/errors"

	"hummock/model"
)

// SearchResult is one eligible compaction: the level-0 tables to consume,
// the target level with the tables it rewrites there, and the split ranges
// partitioning the selected key span.
type SearchResult struct {
	SelectLevel *model.Level
	TargetLevel *model.Level
	SplitRanges []model.KeyRange
}

type Picker interface {
	PickCompaction(levels []*model.Level, handlers []*LevelHandler) (*SearchResult, error)
}

// TierCompactionPicker batches mutually overlapping level-0 tables and
// merges them into level 1, or reorganizes them inside level 0 when they
// touch nothing below. Tables already reserved by an in-flight task are
// never considered, which is what keeps reservation conflicts structurally
// impossible.
type TierCompactionPicker struct {
	taskID  uint64
	opts    *Options
	overlap OverlapStrategy
}

func NewTierCompactionPicker(taskID uint64, strategy OverlapStrategy, opts *Options) *TierCompactionPicker {
	return &TierCompactionPicker{
		taskID:  taskID,
		opts:    opts,
		overlap: strategy,
	}
}

// candidateGroup is one connected component of overlapping level-0 tables.
// All files of a component touching the same keys must be merged atomically
// or the per-key epoch ordering across levels would break.
type candidateGroup struct {
	tables []*model.SstableInfo // sorted by table id
	span   model.KeyRange
}

func (g candidateGroup) minTableID() uint64 {
	return g.tables[0].Id
}

func (p *TierCompactionPicker) PickCompaction(levels []*model.Level, handlers []*LevelHandler) (*SearchResult, error) {
	for _, l := range levels {
		if l.LevelIdx > 1 {
			return nil, errors.NotImplementedf("picking from level %d", l.LevelIdx)
		}
	}
	if len(handlers) < 2 {
		return nil, errors.NotImplementedf("level topology with %d handlers", len(handlers))
	}

	l0 := levelByIdx(levels, 0)
	l1 := levelByIdx(levels, 1)
	if l0 == nil || len(l0.TableInfos) < p.opts.TriggerL0FileNumber {
		return nil, nil
	}

	var free, busy []*model.SstableInfo
	for _, t := range l0.TableInfos {
		if handlers[0].IsPending(t.Id) {
			busy = append(busy, t)
		} else {
			free = append(free, t)
		}
	}

	for _, group := range p.groupByOverlap(free) {
		// keys already owned by an in-flight level-0 task must not be
		// merged underneath it
		if p.overlapsAny(group.span, busy) {
			continue
		}

		targetTables := p.overlap.FindOverlap(group.span, l1)
		if p.anyPending(handlers[1], targetTables) {
			continue
		}

		targetIdx := uint32(0)
		if len(targetTables) > 0 || p.opts.PromoteDisjointL0 {
			targetIdx = 1
		} else if len(group.tables) < 2 {
			// a lone table staying in level 0 would be rewritten in place
			continue
		}

		ret := &SearchResult{
			SelectLevel: &model.Level{LevelIdx: 0, TableInfos: cloneTables(group.tables)},
			TargetLevel: &model.Level{LevelIdx: targetIdx},
			SplitRanges: p.computeSplits(group, targetTables),
		}
		if targetIdx != 0 {
			ret.TargetLevel.TableInfos = cloneTables(targetTables)
		}

		handlers[0].AddTask(p.taskID, group.tables)
		if targetIdx != 0 && len(targetTables) > 0 {
			handlers[targetIdx].AddTask(p.taskID, targetTables)
		}
		return ret, nil
	}

	return nil, nil
}

// groupByOverlap splits tables into connected components under the overlap
// strategy and orders them best-first: largest component, ties broken by
// lowest table id so repeated runs pick deterministically.
func (p *TierCompactionPicker) groupByOverlap(tables []*model.SstableInfo) []candidateGroup {
	visited := make([]bool, len(tables))
	var groups []candidateGroup
	for i := range tables {
		if visited[i] {
			continue
		}
		visited[i] = true
		members := []int{i}
		queue := []int{i}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for j := range tables {
				if visited[j] {
					continue
				}
				if p.overlap.Overlaps(tables[cur].KeyRange, tables[j].KeyRange) {
					visited[j] = true
					members = append(members, j)
					queue = append(queue, j)
				}
			}
		}

		group := candidateGroup{span: tables[members[0]].KeyRange}
		for _, idx := range members {
			group.tables = append(group.tables, tables[idx])
			group.span = group.span.Union(tables[idx].KeyRange)
		}
		sort.Sort(model.TablesByIdSlice(group.tables))
		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].tables) != len(groups[j].tables) {
			return len(groups[i].tables) > len(groups[j].tables)
		}
		return groups[i].minTableID() < groups[j].minTableID()
	})
	return groups
}

func (p *TierCompactionPicker) overlapsAny(span model.KeyRange, tables []*model.SstableInfo) bool {
	for _, t := range tables {
		if p.overlap.Overlaps(span, t.KeyRange) {
			return true
		}
	}
	return false
}

func (p *TierCompactionPicker) anyPending(handler *LevelHandler, tables []*model.SstableInfo) bool {
	for _, t := range tables {
		if handler.IsPending(t.Id) {
			return true
		}
	}
	return false
}

// computeSplits partitions the group's span into contiguous sub-ranges,
// cut at input table boundaries, so each split feeds roughly
// MaxBytesPerSplit into one output stream.
func (p *TierCompactionPicker) computeSplits(group candidateGroup, targetTables []*model.SstableInfo) []model.KeyRange {
	span := group.span.Clone()

	var total uint64
	inputs := make([]*model.SstableInfo, 0, len(group.tables)+len(targetTables))
	inputs = append(inputs, group.tables...)
	inputs = append(inputs, targetTables...)
	for _, t := range inputs {
		total += t.FileSize
	}

	want := int((total + p.opts.MaxBytesPerSplit - 1) / p.opts.MaxBytesPerSplit)
	if want > p.opts.MaxSplits {
		want = p.opts.MaxSplits
	}
	if want <= 1 {
		return []model.KeyRange{span}
	}

	cuts := p.splitCuts(inputs, span, want-1)
	if len(cuts) == 0 {
		return []model.KeyRange{span}
	}

	ranges := make([]model.KeyRange, 0, len(cuts)+1)
	left := span.Left
	for _, cut := range cuts {
		ranges = append(ranges, model.NewKeyRange(left, cut))
		left = cut
	}
	return append(ranges, model.NewKeyRange(left, span.Right))
}

// splitCuts picks up to want table left-bounds strictly inside the span,
// spaced evenly over the available boundaries.
func (p *TierCompactionPicker) splitCuts(inputs []*model.SstableInfo, span model.KeyRange, want int) [][]byte {
	var bounds [][]byte
	for _, t := range inputs {
		cut := t.KeyRange.Left
		if len(cut) == 0 {
			continue
		}
		if len(span.Left) != 0 && bytes.Compare(cut, span.Left) <= 0 {
			continue
		}
		if len(span.Right) != 0 && bytes.Compare(cut, span.Right) >= 0 {
			continue
		}
		bounds = append(bounds, cut)
	}
	sort.Slice(bounds, func(i, j int) bool { return bytes.Compare(bounds[i], bounds[j]) < 0 })
	bounds = dedupeBytes(bounds)

	if len(bounds) <= want {
		return bounds
	}
	cuts := make([][]byte, 0, want)
	for i := 1; i <= want; i++ {
		cuts = append(cuts, bounds[i*len(bounds)/(want+1)])
	}
	return dedupeBytes(cuts)
}

func dedupeBytes(values [][]byte) [][]byte {
	out := values[:0]
	for i, v := range values {
		if i > 0 && bytes.Equal(v, values[i-1]) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func levelByIdx(levels []*model.Level, idx uint32) *model.Level {
	for _, l := range levels {
		if l.LevelIdx == idx {
			return l
		}
	}
	return nil
}

func cloneTables(tables []*model.SstableInfo) []*model.SstableInfo {
	if tables == nil {
		return nil
	}
	out := make([]*model.SstableInfo, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.Clone())
	}
	return out
}
