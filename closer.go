package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"monks.co/backupcloser/config"
	"monks.co/backupcloser/diff"
	"monks.co/backupcloser/logger"
	"monks.co/backupcloser/model"
	"monks.co/backupcloser/pipeline"
	"monks.co/backupcloser/progress"
	"monks.co/backupcloser/snitch"
	"monks.co/backupcloser/verify"
)

// Closer syncs source pools onto the backup target, one dataset at a time.
// Failures are isolated per dataset: a broken lineage or failed transfer is
// recorded and the pass moves on.
type Closer struct {
	config     *config.Config
	storage    Storage
	logs       logger.Logger
	backupRoot string
	dryrun     bool
	verbose    bool
	diffPass   bool
}

type Options struct {
	DryRun  bool
	Verbose bool
	Diff    bool
}

func New(conf *config.Config, storage Storage, backupRoot string, opts Options) *Closer {
	return &Closer{
		config:     conf,
		storage:    storage,
		logs:       logger.New("global"),
		backupRoot: backupRoot,
		dryrun:     opts.DryRun,
		verbose:    opts.Verbose,
		diffPass:   opts.Diff,
	}
}

// Run synchronizes every dataset of the named pools. It returns a non-nil
// report unless enumeration fails; enumeration failure aborts the whole
// run before any dataset is touched.
func (c *Closer) Run(ctx context.Context, pools []string) (*Report, error) {
	pairs, err := c.enumerate(pools)
	if err != nil {
		return nil, err
	}

	if c.dryrun {
		c.logs.Printf("dry run: no backup-side changes will be made")
	} else if err := c.storage.DisableAutoSnapshot(c.logs, c.config.AutoSnapshotProperty, model.DatasetName(c.backupRoot)); err != nil {
		// Best effort; the external precondition is documented, not enforced.
		c.logs.Printf("disabling auto-snapshot on '%s': %s", c.backupRoot, err)
	}

	report := NewReport()
	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		c.logs.Printf("processing dataset '%s'", pair.Source)
		res := c.syncDataset(ctx, pair)

		if c.diffPass {
			c.diffDataset(pair, &res)
		}

		report.Add(res)
	}

	if report.AllOK() && !c.dryrun && c.config.SnitchID != "" {
		if err := snitch.OK(c.config.SnitchID); err != nil {
			c.logs.Printf("snitch error: %v", err)
		}
	}

	return report, nil
}

// enumerate checks that every named pool (and the backup target's pool)
// exists, then maps each source dataset to its backup-side path.
func (c *Closer) enumerate(pools []string) ([]model.Pair, error) {
	backupPool := strings.SplitN(c.backupRoot, "/", 2)[0]
	for _, pool := range append(append([]string{}, pools...), backupPool) {
		ok, err := c.storage.PoolExists(c.logs, pool)
		if err != nil {
			return nil, fmt.Errorf("%w: checking pool '%s': %v", ErrEnumeration, pool, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: pool '%s' does not exist", ErrEnumeration, pool)
		}
	}

	var pairs []model.Pair
	for _, pool := range pools {
		datasets, err := c.storage.ListDatasets(c.logs, pool)
		if err != nil {
			return nil, fmt.Errorf("%w: listing datasets of '%s': %v", ErrEnumeration, pool, err)
		}
		for _, ds := range datasets {
			pairs = append(pairs, model.Pair{
				Source: ds,
				Backup: model.DatasetName(c.backupRoot + "/" + ds.Path()),
			})
		}
	}
	return pairs, nil
}

func (c *Closer) syncDataset(ctx context.Context, pair model.Pair) Result {
	logs := logger.New(pair.Source.Path())
	res := Result{Dataset: pair.Source}

	source, err := c.storage.ListSnapshots(logs, pair.Source)
	if err != nil {
		res.Status = StatusFailed
		res.Reason = fmt.Sprintf("listing snapshots: %s", err)
		return res
	}
	if source.Len() == 0 {
		res.Status = StatusUpToDate
		res.Reason = "no source snapshots"
		return res
	}

	backup := model.NewSnapshots()
	backupExists, err := c.storage.DatasetExists(logs, pair.Backup)
	if err != nil {
		res.Status = StatusFailed
		res.Reason = fmt.Sprintf("checking backup dataset: %s", err)
		return res
	}
	if backupExists {
		if backup, err = c.storage.ListSnapshots(logs, pair.Backup); err != nil {
			res.Status = StatusFailed
			res.Reason = fmt.Sprintf("listing backup snapshots: %s", err)
			return res
		}
	}

	plan, err := model.Resolve(source, backup)
	if errors.Is(err, model.ErrNoLineage) {
		logs.Printf("%s: %s", ErrLineage, err)
		res.Status = StatusSkipped
		res.Reason = err.Error()
		return res
	} else if err != nil {
		res.Status = StatusFailed
		res.Reason = err.Error()
		return res
	}
	if plan == nil {
		logs.Printf("backup is up to date at %s", source.Newest().Name)
		res.Status = StatusUpToDate
		return res
	}

	logs.Printf("plan: %s", plan)

	if !c.dryrun && !backupExists {
		if err := c.storage.CreateDataset(logs, pair.Backup); err != nil {
			res.Status = StatusFailed
			res.Reason = fmt.Sprintf("creating backup dataset: %s", err)
			return res
		}
	}

	total, err := c.transfer(ctx, logs, pair, plan)
	res.Bytes = total
	if err != nil {
		logs.Printf("%s", err)
		res.Status = StatusFailed
		res.Reason = err.Error()
		return res
	}
	res.Status = StatusSynced

	if !c.dryrun {
		result, err := c.verifyDataset(ctx, logs, pair, plan)
		if err != nil {
			logs.Printf("verification error: %s", err)
			res.VerifyError = err.Error()
		} else if !result.Match() {
			logs.Printf("%s: %s", ErrVerifyMismatch, result)
			res.VerifyMismatch = true
		} else {
			logs.Printf("verified: %s", result)
		}
	}

	return res
}

// transfer runs every phase of the plan through the three-stage pipeline,
// in creation order. The first failing phase abandons the dataset; phases
// already committed stay committed.
func (c *Closer) transfer(ctx context.Context, logs logger.Logger, pair model.Pair, plan *model.TransferPlan) (int64, error) {
	meter := progress.NewMeter(logs)
	if c.verbose {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go meter.Watch(watchCtx, c.config.ProgressInterval())
	}

	for _, phase := range plan.Phases() {
		size, err := c.storage.EstimateSendSize(logs, pair.Source, phase.BaseName, phase.Target.Name)
		if err != nil {
			return meter.Total(), fmt.Errorf("%w: %v", ErrTransfer, err)
		}
		logs.Printf("estimated size of %s@%s: %s", pair.Source, phase.Target.Name, humanize.Bytes(uint64(size)))

		if err := c.runPhase(ctx, logs, meter, pair, phase); err != nil {
			return meter.Total(), fmt.Errorf("%w: %v", ErrTransfer, err)
		}
	}

	meter.Log()
	return meter.Total(), nil
}

// runPhase executes one send stream. In dry-run mode the consumer is a
// discard sink and no receive is ever opened, so nothing backup-side can
// change.
func (c *Closer) runPhase(ctx context.Context, logs logger.Logger, meter *progress.Meter, pair model.Pair, phase model.Phase) error {
	stream, err := c.storage.OpenSendStream(ctx, logs, pair.Source, phase.BaseName, phase.Target.Name, c.dryrun)
	if err != nil {
		return err
	}

	opts := pipeline.Options{ChunkSize: c.config.ChunkSize, Depth: c.config.PipeDepth}

	if c.dryrun {
		runErr := pipeline.Run(ctx, stream, meter, io.Discard, opts)
		closeErr := stream.Close()
		if runErr != nil {
			return runErr
		}
		return closeErr
	}

	sink, err := c.storage.OpenReceiveSink(ctx, logs, pair.Backup)
	if err != nil {
		stream.Close()
		return err
	}

	if err := pipeline.Run(ctx, stream, meter, sink, opts); err != nil {
		sink.Abort()
		stream.Close()
		return err
	}
	if err := stream.Close(); err != nil {
		sink.Abort()
		return err
	}
	if err := sink.Commit(); err != nil {
		return err
	}

	logs.Printf("received %s@%s", pair.Backup, phase.Target.Name)
	return nil
}

// verifyDataset fingerprints the portable MACs of the plan's target
// snapshot rendered on both sides and compares. The raw streams are never
// compared directly: a serialized stream names the dataset it came from,
// so the source and backup renderings differ byte-wise even when their
// content is identical. Read-only on both sides.
func (c *Closer) verifyDataset(ctx context.Context, logs logger.Logger, pair model.Pair, plan *model.TransferPlan) (verify.Result, error) {
	srcMACs, err := c.storage.StreamMACs(ctx, logs, pair.Source, plan.Target.Name)
	if err != nil {
		return verify.Result{}, fmt.Errorf("summarizing source stream: %w", err)
	}
	bakMACs, err := c.storage.StreamMACs(ctx, logs, pair.Backup, plan.Target.Name)
	if err != nil {
		return verify.Result{}, fmt.Errorf("summarizing backup stream: %w", err)
	}
	return verify.Result{
		Source: verify.Fingerprint(srcMACs),
		Backup: verify.Fingerprint(bakMACs),
	}, nil
}

// diffDataset reports the file-level difference between the two newest
// backup snapshots. With fewer than two snapshots there is nothing to
// compare; that's recorded, not failed.
func (c *Closer) diffDataset(pair model.Pair, res *Result) {
	logs := logger.New(pair.Source.Path())

	backupExists, err := c.storage.DatasetExists(logs, pair.Backup)
	if err != nil || !backupExists {
		res.DiffUnavailable = true
		return
	}
	snaps, err := c.storage.ListSnapshots(logs, pair.Backup)
	if err != nil {
		logs.Printf("%s: %s", ErrDiff, err)
		res.DiffUnavailable = true
		return
	}
	if snaps.Len() < 2 {
		logs.Printf("%s: insufficient history (%d snapshots)", ErrDiff, snaps.Len())
		res.DiffUnavailable = true
		return
	}

	var newer, older *model.Snapshot
	for snap := range snaps.AllDesc() {
		if newer == nil {
			newer = snap
			continue
		}
		older = snap
		break
	}

	lines, err := c.storage.Diff(logs, pair.Backup, older.Name, newer.Name)
	if err != nil {
		logs.Printf("%s: %s", ErrDiff, err)
		res.DiffUnavailable = true
		return
	}
	entries, err := diff.Parse(lines)
	if err != nil {
		logs.Printf("%s: %s", ErrDiff, err)
		res.DiffUnavailable = true
		return
	}

	rec := &diff.Record{
		Dataset: pair.Backup.Path(),
		Older:   older.Name,
		Newer:   newer.Name,
		Entries: entries,
	}
	logs.Printf("%s", rec)
	for _, entry := range rec.Entries {
		logs.Printf("  %s", entry)
	}
	res.DiffChanges = len(rec.Entries)
}
