package main

import (
	"context"
	"io"

	"monks.co/backupcloser/env"
	"monks.co/backupcloser/logger"
	"monks.co/backupcloser/model"
)

// Storage is the narrow surface the engine needs from the storage system:
// list, serialize, materialize. env.ZFS provides it against the real zfs
// tool; tests substitute an in-memory fake so lineage, transfer, and
// verification logic run without any pools.
type Storage interface {
	PoolExists(logs logger.Logger, pool string) (bool, error)
	ListDatasets(logs logger.Logger, pool string) ([]model.DatasetName, error)
	DatasetExists(logs logger.Logger, dataset model.DatasetName) (bool, error)
	ListSnapshots(logs logger.Logger, dataset model.DatasetName) (*model.Snapshots, error)
	CreateDataset(logs logger.Logger, dataset model.DatasetName) error
	DisableAutoSnapshot(logs logger.Logger, property string, dataset model.DatasetName) error
	EstimateSendSize(logs logger.Logger, dataset model.DatasetName, baseName, targetName string) (int64, error)
	OpenSendStream(ctx context.Context, logs logger.Logger, dataset model.DatasetName, baseName, targetName string, dryrun bool) (io.ReadCloser, error)
	OpenReceiveSink(ctx context.Context, logs logger.Logger, dataset model.DatasetName) (ReceiveSink, error)
	// StreamMACs returns the portable MAC lines of the dataset's
	// whole-snapshot stream summary; they identify content independent of
	// the dataset path.
	StreamMACs(ctx context.Context, logs logger.Logger, dataset model.DatasetName, targetName string) ([]string, error)
	Diff(logs logger.Logger, dataset model.DatasetName, olderName, newerName string) ([]string, error)
}

// ReceiveSink materializes one send stream on the backup side. Commit is
// all-or-nothing per snapshot: a sink that is aborted, or whose Commit
// fails, leaves the dataset at its previous snapshot state.
type ReceiveSink interface {
	io.Writer
	Commit() error
	Abort() error
}

// zfsStorage adapts env.ZFS to Storage (the sink method returns a concrete
// type there).
type zfsStorage struct {
	*env.ZFS
}

func (z zfsStorage) OpenReceiveSink(ctx context.Context, logs logger.Logger, dataset model.DatasetName) (ReceiveSink, error) {
	return z.ZFS.OpenReceiveSink(ctx, logs, dataset)
}
