package env

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"monks.co/backupcloser/logger"
	"monks.co/backupcloser/model"
)

// command builds a long-running zfs invocation, elevated through sudo when
// the handle is configured that way.
func (zfs *ZFS) command(ctx context.Context, logs logger.Logger, args ...string) *exec.Cmd {
	logs.Printf("zfs %s", strings.Join(args, " "))
	if zfs.sudo {
		return exec.CommandContext(ctx, "sudo", append([]string{"zfs"}, args...)...)
	}
	return exec.CommandContext(ctx, "zfs", args...)
}

// SendStream is a running zfs send whose stdout feeds the pipeline's
// producer stage. Close waits for the process and surfaces a non-zero exit
// as an error, so a truncated stream can't pass silently.
type SendStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
}

// OpenSendStream serializes the given range of the dataset. In dry-run
// mode the stream carries zfs's own estimation output instead of snapshot
// data: the plan still gets validated against the real snapshot state, but
// no data is rendered.
func (zfs *ZFS) OpenSendStream(ctx context.Context, logs logger.Logger, dataset model.DatasetName, baseName, targetName string, dryrun bool) (io.ReadCloser, error) {
	args := []string{"send"}
	if dryrun {
		args = append(args, "-n", "-v", "-P")
	}
	args = append(args, zfs.rangeArgs(dataset, baseName, targetName)...)

	cmd := zfs.command(ctx, logs, args...)

	stream := &SendStream{cmd: cmd}
	cmd.Stderr = &stream.stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opening send stdout: %w", err)
	}
	stream.stdout = stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting zfs send: %w", err)
	}
	return stream, nil
}

func (s *SendStream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *SendStream) Close() error {
	s.stdout.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("zfs send: %w: %s", err, strings.TrimSpace(s.stderr.String()))
	}
	return nil
}

// RecvSink is a running zfs receive. Writes stream into its stdin; Commit
// closes the stream and reports whether zfs committed the snapshots.
// zfs receive is atomic per snapshot, so an aborted or failed receive
// leaves the dataset at its previous snapshot state.
type RecvSink struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	output bytes.Buffer
}

// OpenReceiveSink starts a zfs receive for one send stream. -F rolls the
// target back to the incremental base before applying; under the documented
// precondition that nothing else mutates the backup during a run, the
// backup holds nothing newer than the base, so the rollback discards no
// snapshots.
func (zfs *ZFS) OpenReceiveSink(ctx context.Context, logs logger.Logger, dataset model.DatasetName) (*RecvSink, error) {
	cmd := zfs.command(ctx, logs, "receive", "-F", "-u", dataset.Path())

	sink := &RecvSink{cmd: cmd}
	cmd.Stdout = &sink.output
	cmd.Stderr = &sink.output

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("opening receive stdin: %w", err)
	}
	sink.stdin = stdin

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting zfs receive: %w", err)
	}
	return sink, nil
}

func (s *RecvSink) Write(p []byte) (int, error) {
	return s.stdin.Write(p)
}

func (s *RecvSink) Commit() error {
	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("zfs receive: %w: %s", err, strings.TrimSpace(s.output.String()))
	}
	return nil
}

func (s *RecvSink) Abort() error {
	s.stdin.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd.Wait()
	return nil
}

// StreamMACs renders the whole-snapshot stream of dataset@target through
// zstreamdump and returns the portable MAC lines of its summary. The MAC
// covers the stream's content but not the dataset path it was rendered
// from, so the source and backup copies of one snapshot summarize
// identically.
func (zfs *ZFS) StreamMACs(ctx context.Context, logs logger.Logger, dataset model.DatasetName, targetName string) ([]string, error) {
	stream, err := zfs.OpenSendStream(ctx, logs, dataset, "", targetName, false)
	if err != nil {
		return nil, err
	}

	logs.Printf("zstreamdump %s@%s", dataset, targetName)
	dump := exec.CommandContext(ctx, "zstreamdump")
	dump.Stdin = stream
	var out, dumpErr bytes.Buffer
	dump.Stdout = &out
	dump.Stderr = &dumpErr
	err = dump.Run()
	closeErr := stream.Close()
	if err != nil {
		return nil, fmt.Errorf("zstreamdump: %w: %s", err, strings.TrimSpace(dumpErr.String()))
	}
	if closeErr != nil {
		return nil, closeErr
	}

	var macs []string
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.Contains(line, "portable_mac") {
			macs = append(macs, strings.TrimSpace(line))
		}
	}
	if len(macs) == 0 {
		return nil, fmt.Errorf("no portable MAC in stream summary of %s@%s", dataset, targetName)
	}
	return macs, nil
}

// Diff returns the changed paths between two snapshots of a dataset, the
// older one first.
func (zfs *ZFS) Diff(logs logger.Logger, dataset model.DatasetName, olderName, newerName string) ([]string, error) {
	rows, err := zfs.x.Execf(logs, "zfs diff -H %s@%s %s@%s", dataset, olderName, dataset, newerName)
	if err != nil {
		return nil, fmt.Errorf("zfs diff: %w", err)
	}
	return rows, nil
}
