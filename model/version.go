package model

import "fmt"

// MaxEpoch marks "no watermark constraint" on a freshly picked task.
const MaxEpoch uint64 = ^uint64(0)

// HummockVersion is an immutable snapshot of the whole LSM shape. A new
// value is produced for every committed change; a published version is
// never mutated in place, so readers may hold it without locking.
type HummockVersion struct {
	Levels    []*Level `msgpack:"levels"`
	SafeEpoch uint64   `msgpack:"safe_epoch"`
}

// NewHummockVersion returns an empty two-level version, the shape a stream
// starts with when it is first set up for compaction.
func NewHummockVersion() *HummockVersion {
	return &HummockVersion{
		Levels: []*Level{
			{LevelIdx: 0},
			{LevelIdx: 1},
		},
	}
}

func (v *HummockVersion) Clone() *HummockVersion {
	if v == nil {
		return nil
	}
	out := &HummockVersion{SafeEpoch: v.SafeEpoch}
	out.Levels = make([]*Level, 0, len(v.Levels))
	for _, l := range v.Levels {
		out.Levels = append(out.Levels, l.Clone())
	}
	return out
}

// CheckLevelInvariant verifies that every level >= 1 is sorted by key range
// and pairwise non-overlapping. A violation is a programming error in
// whatever produced the version.
func (v *HummockVersion) CheckLevelInvariant() error {
	for _, l := range v.Levels {
		if l.LevelIdx == 0 {
			continue
		}
		for i := 1; i < len(l.TableInfos); i++ {
			prev, cur := l.TableInfos[i-1], l.TableInfos[i]
			if prev.KeyRange.Compare(cur.KeyRange) > 0 {
				return fmt.Errorf("level %d out of order at table %d", l.LevelIdx, cur.Id)
			}
			if prev.KeyRange.Overlaps(cur.KeyRange) {
				return fmt.Errorf("level %d tables %d and %d overlap", l.LevelIdx, prev.Id, cur.Id)
			}
		}
	}
	return nil
}

func (v *HummockVersion) String() string {
	return fmt.Sprintf("version{levels:%d safe_epoch:%d}", len(v.Levels), v.SafeEpoch)
}
