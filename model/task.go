package model

// TableSetStatistics accumulates the size and count of one side of a
// compaction, reported back by the worker for accounting.
type TableSetStatistics struct {
	LevelIdx uint32  `msgpack:"level_idx"`
	SizeGb   float64 `msgpack:"size_gb"`
	Cnt      uint64  `msgpack:"cnt"`
}

// CompactMetrics carries per-task read/write statistics.
type CompactMetrics struct {
	ReadLevelN      *TableSetStatistics `msgpack:"read_level_n"`
	ReadLevelNplus1 *TableSetStatistics `msgpack:"read_level_nplus1"`
	Write           *TableSetStatistics `msgpack:"write"`
}

// CompactTask describes one pick-to-report compaction cycle. It is handed
// to a worker with InputSsts and Splits filled in; the worker hands it back
// with SortedOutputSsts populated on success, or empty on cancel/failure.
// The task itself is ephemeral; only the reservation bookkeeping it caused
// is part of the durable compact status.
type CompactTask struct {
	// InputSsts lists the tables consumed per input level, the select
	// level first.
	InputSsts []*Level `msgpack:"input_ssts"`

	// Splits partitions the selected key span into contiguous sub-ranges,
	// letting the worker bound output file sizes and write in parallel.
	Splits []KeyRange `msgpack:"splits"`

	// Watermark is the epoch below which superseded entries may be
	// discarded. MaxEpoch means no constraint.
	Watermark uint64 `msgpack:"watermark"`

	SortedOutputSsts []*SstableInfo `msgpack:"sorted_output_ssts"`

	TaskId      uint64 `msgpack:"task_id"`
	TargetLevel uint32 `msgpack:"target_level"`

	// IsTargetUltimateAndLeveling tells the worker the output lands in the
	// last level with no level underneath, so permanently deleted entries
	// can be dropped for good.
	IsTargetUltimateAndLeveling bool `msgpack:"is_target_ultimate_and_leveling"`

	Metrics *CompactMetrics `msgpack:"metrics"`

	// TaskStatus is set by the worker: true on success.
	TaskStatus bool `msgpack:"task_status"`
}
