package model

// SstableInfo describes one immutable sorted run. Sstables are identified
// by Id; the descriptor never changes once the file is sealed.
type SstableInfo struct {
	Id       uint64   `msgpack:"id"`
	KeyRange KeyRange `msgpack:"key_range"`
	FileSize uint64   `msgpack:"file_size"`
}

func (t *SstableInfo) Clone() *SstableInfo {
	if t == nil {
		return nil
	}
	return &SstableInfo{
		Id:       t.Id,
		KeyRange: t.KeyRange.Clone(),
		FileSize: t.FileSize,
	}
}

// Level is one tier of the LSM hierarchy. Level 0 holds freshly flushed
// tables in arrival order, possibly overlapping. For LevelIdx >= 1 the
// tables are sorted by key range and pairwise non-overlapping.
type Level struct {
	LevelIdx   uint32         `msgpack:"level_idx"`
	TableInfos []*SstableInfo `msgpack:"table_infos"`
}

func (l *Level) Clone() *Level {
	if l == nil {
		return nil
	}
	out := &Level{LevelIdx: l.LevelIdx}
	if l.TableInfos != nil {
		out.TableInfos = make([]*SstableInfo, 0, len(l.TableInfos))
		for _, t := range l.TableInfos {
			out.TableInfos = append(out.TableInfos, t.Clone())
		}
	}
	return out
}

// TotalFileSize sums the file sizes of all tables in the level.
func (l *Level) TotalFileSize() uint64 {
	var size uint64
	for _, t := range l.TableInfos {
		size += t.FileSize
	}
	return size
}
