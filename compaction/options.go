package compaction

import "github.com/juju/errors"

const (
	// DefaultCFName is the column family holding all compaction metadata.
	DefaultCFName = "hummock_default"

	defaultTriggerL0FileNumber = 2
	defaultMaxBytesPerSplit    = 256 << 20
	defaultMaxSplits           = 8
)

// Options tunes the picker. They are process configuration, not part of
// the persisted compact status.
type Options struct {
	// TriggerL0FileNumber is the minimum number of level-0 tables before a
	// compaction is considered at all.
	TriggerL0FileNumber int

	// MaxBytesPerSplit bounds the input bytes a single split range should
	// feed into one output stream of the worker.
	MaxBytesPerSplit uint64

	// MaxSplits caps the number of split ranges per task.
	MaxSplits int

	// PromoteDisjointL0 pushes a picked level-0 group down to level 1 even
	// when it overlaps nothing there. When false such groups stay in
	// level 0 and are only reorganized.
	PromoteDisjointL0 bool

	// UltimateLevel is the level index considered the bottom of the
	// hierarchy when flagging tasks whose output may drop deletions for
	// good. Zero means "the deepest tracked level".
	UltimateLevel uint32
}

func DefaultOptions() *Options {
	return &Options{
		TriggerL0FileNumber: defaultTriggerL0FileNumber,
		MaxBytesPerSplit:    defaultMaxBytesPerSplit,
		MaxSplits:           defaultMaxSplits,
		PromoteDisjointL0:   true,
	}
}

func (o *Options) Validate() error {
	if o.TriggerL0FileNumber < 1 {
		return errors.NotValidf("trigger-l0-file-number %d", o.TriggerL0FileNumber)
	}
	if o.MaxBytesPerSplit == 0 {
		return errors.NotValidf("max-bytes-per-split 0")
	}
	if o.MaxSplits < 1 {
		return errors.NotValidf("max-splits %d", o.MaxSplits)
	}
	return nil
}
