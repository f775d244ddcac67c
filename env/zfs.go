package env

import (
	"fmt"
	"strconv"
	"strings"

	"monks.co/backupcloser/logger"
	"monks.co/backupcloser/model"
)

// ZFS wraps the zfs command-line tool. Both the source pools and the
// backup pool live on this host, so one handle serves both sides; every
// method takes full dataset paths.
type ZFS struct {
	x    Executor
	raw  bool // serialize with --raw
	sudo bool // elevate zfs invocations through sudo
}

func NewZFS(x Executor, raw, sudo bool) *ZFS {
	return &ZFS{x: x, raw: raw, sudo: sudo}
}

func (zfs *ZFS) PoolExists(logs logger.Logger, pool string) (bool, error) {
	pools, err := zfs.x.Exec(logs, "zfs", "list", "-H", "-o", "name", "-d", "0")
	if err != nil {
		return false, fmt.Errorf("listing pools: %w", err)
	}
	for _, p := range pools {
		if p == pool {
			return true, nil
		}
	}
	return false, nil
}

func (zfs *ZFS) DatasetExists(logs logger.Logger, dataset model.DatasetName) (bool, error) {
	_, err := zfs.x.Execf(logs, "zfs list -H -o name %s", dataset)
	if err != nil && strings.Contains(err.Error(), "dataset does not exist") {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// ListDatasets returns the pool's filesystem tree in hierarchy order,
// including the pool's root dataset.
func (zfs *ZFS) ListDatasets(logs logger.Logger, pool string) ([]model.DatasetName, error) {
	rows, err := zfs.x.Execf(logs, "zfs list -H -t filesystem -o name -r %s", pool)
	if err != nil {
		return nil, fmt.Errorf("zfs list: %w", err)
	}
	out := make([]model.DatasetName, len(rows))
	for i, row := range rows {
		out[i] = model.DatasetName(row)
	}
	return out, nil
}

func (zfs *ZFS) ListSnapshots(logs logger.Logger, dataset model.DatasetName) (*model.Snapshots, error) {
	rows, err := zfs.x.Execf(logs, "zfs list -H -p -t snapshot -o name,creation -s creation -d 1 %s", dataset)
	if err != nil {
		return nil, fmt.Errorf("zfs list: %w", err)
	}
	snaps := model.NewSnapshots()
	for _, row := range rows {
		cols := strings.Split(row, "\t")
		if len(cols) != 2 {
			continue
		}
		seconds, err := strconv.ParseInt(cols[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing creation time '%s' of '%s'", cols[1], cols[0])
		}
		snaps.Add(&model.Snapshot{
			Dataset:   dataset,
			Name:      strings.SplitN(cols[0], "@", 2)[1],
			CreatedAt: seconds,
		})
	}
	return snaps, nil
}

func (zfs *ZFS) CreateDataset(logs logger.Logger, dataset model.DatasetName) error {
	if _, err := zfs.x.Execf(logs, "zfs create -p %s", dataset); err != nil {
		return err
	}
	return nil
}

// DisableAutoSnapshot clears the scheduler property on the backup target so
// nothing else snapshots it while a transfer is in flight.
func (zfs *ZFS) DisableAutoSnapshot(logs logger.Logger, property string, dataset model.DatasetName) error {
	if _, err := zfs.x.Execf(logs, "zfs set %s=false %s", property, dataset); err != nil {
		return err
	}
	return nil
}

// EstimateSendSize asks zfs for the serialized size of the phase's range
// without sending any data.
func (zfs *ZFS) EstimateSendSize(logs logger.Logger, dataset model.DatasetName, baseName, targetName string) (int64, error) {
	args := append([]string{"zfs", "send", "-n", "-v", "-P"}, zfs.rangeArgs(dataset, baseName, targetName)...)
	rows, err := zfs.x.Exec(logs, args...)
	if err != nil {
		return 0, fmt.Errorf("estimating send size: %w", err)
	}
	for _, row := range rows {
		cols := strings.Fields(row)
		if len(cols) == 2 && cols[0] == "size" {
			size, err := strconv.ParseInt(cols[1], 10, 64)
			if err != nil {
				return 0, fmt.Errorf("parsing estimated size '%s'", cols[1])
			}
			return size, nil
		}
	}
	return 0, fmt.Errorf("no size line in send estimate")
}

// rangeArgs renders a phase as zfs send arguments: a whole snapshot when
// baseName is empty, otherwise an intermediate-inclusive range.
func (zfs *ZFS) rangeArgs(dataset model.DatasetName, baseName, targetName string) []string {
	var args []string
	if zfs.raw {
		args = append(args, "--raw")
	}
	args = append(args, "-p")
	if baseName != "" {
		args = append(args, "-I", "@"+baseName)
	}
	return append(args, fmt.Sprintf("%s@%s", dataset, targetName))
}
