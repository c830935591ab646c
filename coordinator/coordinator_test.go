package coordinator

import (
	"context"
	"testing"

	"hummock/compaction"
	"hummock/meta"
	"hummock/model"
)

func kr(left, right string) model.KeyRange {
	return model.NewKeyRange([]byte(left), []byte(right))
}

func table(id uint64, left, right string) *model.SstableInfo {
	return &model.SstableInfo{Id: id, KeyRange: kr(left, right)}
}

func testLevels(l0 []*model.SstableInfo) []*model.Level {
	return []*model.Level{
		{LevelIdx: 0, TableInfos: l0},
		{LevelIdx: 1},
	}
}

func TestCoordinatorPickReportApply(t *testing.T) {
	store := meta.NewMemStore()
	defer store.Close()
	ctx := context.Background()

	c, err := Start(store, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Close()

	levels := testLevels([]*model.SstableInfo{table(1, "a", "m"), table(2, "g", "z")})
	task, err := c.GetCompactTask(ctx, levels)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task == nil {
		t.Fatal("no task for overlapping level-0 tables")
	}
	if task.TaskId != 1 || task.TargetLevel != 1 {
		t.Fatalf("task = id %d target %d, want id 1 target 1", task.TaskId, task.TargetLevel)
	}

	// the status is durable before the task is handed out
	if _, err := store.GetCF(compaction.DefaultCFName, []byte("compact_status")); err != nil {
		t.Fatalf("status not persisted at pick time: %v", err)
	}

	task.SortedOutputSsts = []*model.SstableInfo{table(3, "a", "z")}
	task.TaskStatus = true
	task.Watermark = 17
	if err := c.ReportCompactTask(ctx, task); err != nil {
		t.Fatalf("report: %v", err)
	}

	version, err := c.ApplyCompactResult(ctx, task)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(version.Levels[1].TableInfos) != 1 || version.Levels[1].TableInfos[0].Id != 3 {
		t.Errorf("level 1 = %+v, want [table 3]", version.Levels[1].TableInfos)
	}
	if version.SafeEpoch != 17 {
		t.Errorf("safe epoch = %d, want 17", version.SafeEpoch)
	}
	if c.CurrentVersion() != version {
		t.Error("published version is not the applied one")
	}

	snapshot := c.MetricsSnapshot()
	if snapshot.TaskPicked != 1 || snapshot.TaskReported != 1 || snapshot.VersionApplied != 1 {
		t.Errorf("metrics = %s", snapshot)
	}
}

func TestCoordinatorNoTask(t *testing.T) {
	store := meta.NewMemStore()
	defer store.Close()

	c, err := Start(store, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Close()

	task, err := c.GetCompactTask(context.Background(), testLevels(nil))
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task != nil {
		t.Errorf("task = %+v, want none", task)
	}
	if got := c.MetricsSnapshot().PickEmpty; got != 1 {
		t.Errorf("empty picks = %d, want 1", got)
	}
}

func TestCoordinatorRestartRecovers(t *testing.T) {
	store := meta.NewMemStore()
	defer store.Close()
	ctx := context.Background()

	c, err := Start(store, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	levels := testLevels([]*model.SstableInfo{table(1, "a", "m"), table(2, "g", "z")})
	task, err := c.GetCompactTask(ctx, levels)
	if err != nil || task == nil {
		t.Fatalf("pick = %+v, %v", task, err)
	}
	task.SortedOutputSsts = []*model.SstableInfo{table(3, "a", "z")}
	if err := c.ReportCompactTask(ctx, task); err != nil {
		t.Fatalf("report: %v", err)
	}
	if _, err := c.ApplyCompactResult(ctx, task); err != nil {
		t.Fatalf("apply: %v", err)
	}
	c.Close()

	restarted, err := Start(store, nil)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer restarted.Close()

	// the version survived
	version := restarted.CurrentVersion()
	if len(version.Levels[1].TableInfos) != 1 || version.Levels[1].TableInfos[0].Id != 3 {
		t.Errorf("restored level 1 = %+v, want [table 3]", version.Levels[1].TableInfos)
	}

	// task ids continue monotonically, never reused
	next, err := restarted.GetCompactTask(ctx, testLevels([]*model.SstableInfo{
		table(4, "a", "m"), table(5, "g", "z"),
	}))
	if err != nil || next == nil {
		t.Fatalf("pick after restart = %+v, %v", next, err)
	}
	if next.TaskId != 2 {
		t.Errorf("task id after restart = %d, want 2", next.TaskId)
	}
}

func TestCoordinatorContextCanceled(t *testing.T) {
	store := meta.NewMemStore()
	defer store.Close()

	c, err := Start(store, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.GetCompactTask(ctx, testLevels(nil)); err == nil {
		t.Error("no error for canceled context")
	}
}

func TestCoordinatorCorruptStatusFailsStart(t *testing.T) {
	store := meta.NewMemStore()
	defer store.Close()
	if err := store.PutCF(compaction.DefaultCFName, []byte("compact_status"), []byte("junk")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := Start(store, nil); err == nil {
		t.Error("corrupt status did not fail startup")
	}
}
