package coordinator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/ngaut/log"

	"hummock/compaction"
	"hummock/meta"
	"hummock/model"
)

// currentVersionKey locates the latest committed version next to the
// compact status in the same column family.
const currentVersionKey = "current_version"

var defaultMetricsInterval = time.Minute * 5

type commandKind int

const (
	cmdPick commandKind = iota
	cmdReport
	cmdApply
)

type command struct {
	kind   commandKind
	levels []*model.Level
	task   *model.CompactTask
	reply  chan commandReply
}

type commandReply struct {
	task    *model.CompactTask
	version *model.HummockVersion
	err     error
}

// Coordinator owns one compaction group's compact status. Every mutation
// runs on a single command loop, so pick-and-reserve is atomic against
// other picks without a lock shared across groups. Published versions are
// immutable and swapped by pointer, so CurrentVersion never blocks.
type Coordinator struct {
	store   meta.Store
	status  *compaction.CompactStatus
	version atomic.Pointer[model.HummockVersion]
	metrics Metrics

	cmdCh     chan command
	quit      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Start loads the persisted state (or initializes a fresh stream) and
// spins up the command loop.
func Start(store meta.Store, opts *compaction.Options) (*Coordinator, error) {
	status, err := compaction.LoadCompactStatus(store, opts)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if status == nil {
		status = compaction.NewCompactStatus(opts)
		log.Info("no persisted compact status, starting fresh")
	} else {
		log.Infof("loaded compact status, next task id %d", status.NextCompactTaskID())
	}

	version, err := loadVersion(store)
	if err != nil {
		return nil, errors.Trace(err)
	}

	c := &Coordinator{
		store:  store,
		status: status,
		cmdCh:  make(chan command),
		quit:   make(chan struct{}),
	}
	c.version.Store(version)
	c.wg.Add(1)
	go c.run()
	return c, nil
}

func loadVersion(store meta.Store) (*model.HummockVersion, error) {
	value, err := store.GetCF(compaction.DefaultCFName, []byte(currentVersionKey))
	if err != nil {
		if err == meta.ErrNotFound {
			return model.NewHummockVersion(), nil
		}
		return nil, errors.Trace(err)
	}
	version := &model.HummockVersion{}
	if err := model.DecodeRecord(value, version); err != nil {
		return nil, errors.Annotate(err, "decode current version")
	}
	return version, nil
}

func (c *Coordinator) run() {
	defer c.wg.Done()
	ticker := time.NewTicker(defaultMetricsInterval)
	defer ticker.Stop()
	for {
		select {
		case cmd := <-c.cmdCh:
			c.handle(cmd)
		case <-ticker.C:
			log.Infof("compaction coordinator: %s", c.metrics.Snapshot())
		case <-c.quit:
			return
		}
	}
}

func (c *Coordinator) handle(cmd command) {
	var reply commandReply
	switch cmd.kind {
	case cmdPick:
		reply.task, reply.err = c.pick(cmd.levels)
	case cmdReport:
		reply.err = c.report(cmd.task)
	case cmdApply:
		reply.version, reply.err = c.apply(cmd.task)
	}
	cmd.reply <- reply
}

// pick reserves inputs and persists the status before the task leaves the
// loop. A task that was not durably reserved is never handed out; on a
// failed commit the in-memory reservation is rolled back (the task id is
// burned, ids are never reused).
func (c *Coordinator) pick(levels []*model.Level) (*model.CompactTask, error) {
	task, err := c.status.GetCompactTask(levels)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if task == nil {
		c.metrics.incrEmpty()
		return nil, nil
	}

	if err := c.persistStatus(); err != nil {
		c.status.ReportCompactTask(task)
		return nil, errors.Annotatef(err, "persist status for task %d", task.TaskId)
	}
	c.metrics.incrPicked()
	log.Debugf("picked compact task %d, target level %d", task.TaskId, task.TargetLevel)
	return task, nil
}

func (c *Coordinator) report(task *model.CompactTask) error {
	c.status.ReportCompactTask(task)
	if err := c.persistStatus(); err != nil {
		return errors.Annotatef(err, "persist status for task %d", task.TaskId)
	}
	c.metrics.incrReported()
	log.Debugf("reported compact task %d, success %v", task.TaskId, task.TaskStatus)
	return nil
}

func (c *Coordinator) apply(task *model.CompactTask) (*model.HummockVersion, error) {
	next := compaction.ApplyCompactResult(task, c.version.Load())
	value, err := model.EncodeRecord(next)
	if err != nil {
		return nil, errors.Trace(err)
	}
	batch := c.store.NewBatch()
	batch.Put(compaction.DefaultCFName, []byte(currentVersionKey), value)
	if err := batch.Commit(); err != nil {
		return nil, errors.Annotatef(err, "persist version for task %d", task.TaskId)
	}
	// publish only after the commit, readers never see an unpersisted version
	c.version.Store(next)
	c.metrics.incrApplied()
	return next, nil
}

func (c *Coordinator) persistStatus() error {
	batch := c.store.NewBatch()
	if err := c.status.UpsertIn(batch); err != nil {
		return errors.Trace(err)
	}
	return batch.Commit()
}

func (c *Coordinator) submit(ctx context.Context, cmd command) (commandReply, error) {
	if err := ctx.Err(); err != nil {
		return commandReply{}, errors.Trace(err)
	}
	select {
	case c.cmdCh <- cmd:
	case <-ctx.Done():
		return commandReply{}, errors.Trace(ctx.Err())
	case <-c.quit:
		return commandReply{}, errors.New("coordinator closed")
	}
	select {
	case reply := <-cmd.reply:
		return reply, nil
	case <-ctx.Done():
		return commandReply{}, errors.Trace(ctx.Err())
	}
}

// GetCompactTask picks one task from the given levels, or returns
// (nil, nil) when nothing is eligible.
func (c *Coordinator) GetCompactTask(ctx context.Context, levels []*model.Level) (*model.CompactTask, error) {
	reply, err := c.submit(ctx, command{kind: cmdPick, levels: levels, reply: make(chan commandReply, 1)})
	if err != nil {
		return nil, err
	}
	return reply.task, reply.err
}

// ReportCompactTask releases the task's reservations. Pass the task with
// empty SortedOutputSsts to cancel. Safe to call more than once.
func (c *Coordinator) ReportCompactTask(ctx context.Context, task *model.CompactTask) error {
	reply, err := c.submit(ctx, command{kind: cmdReport, task: task, reply: make(chan commandReply, 1)})
	if err != nil {
		return err
	}
	return reply.err
}

// ApplyCompactResult derives the next version from the latest committed
// one, persists it and publishes it.
func (c *Coordinator) ApplyCompactResult(ctx context.Context, task *model.CompactTask) (*model.HummockVersion, error) {
	reply, err := c.submit(ctx, command{kind: cmdApply, task: task, reply: make(chan commandReply, 1)})
	if err != nil {
		return nil, err
	}
	return reply.version, reply.err
}

// CurrentVersion returns the latest published version without blocking.
func (c *Coordinator) CurrentVersion() *model.HummockVersion {
	return c.version.Load()
}

func (c *Coordinator) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		close(c.quit)
		c.wg.Wait()
	})
}
