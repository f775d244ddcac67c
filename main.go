package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"monks.co/backupcloser/config"
	"monks.co/backupcloser/env"
	"monks.co/backupcloser/logger"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		backupRoot  string
		diffFlag    bool
		verbose     bool
		dryRun      bool
		unprivFlag  bool
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:   "backupcloser [flags] POOL...",
		Short: "Incrementally mirror ZFS pools onto a backup pool",
		Long: `backupcloser mirrors every dataset of the named pools onto a backup
pool, sending only the snapshots the backup doesn't have yet. After each
transfer it verifies the backup by comparing send-stream fingerprints.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "backupcloser %s\n", version)
				return nil
			}

			isRoot, err := runningAsRoot()
			if err != nil {
				return err
			}

			conf, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			logger.UseFile(conf.ResolveLogPath(isRoot), conf.LogMaxMB)

			ctx := NewSigctx()

			// zfs needs elevated privileges unless the user opted out
			// (delegated permissions) or we're already root.
			sudo := !unprivFlag && !isRoot
			x := env.Executor(env.Local)
			if sudo {
				x = env.Sudo
			}
			storage := zfsStorage{env.NewZFS(x, conf.RawSend, sudo)}
			closer := New(conf, storage, backupRoot, Options{
				DryRun:  dryRun,
				Verbose: verbose,
				Diff:    diffFlag,
			})

			report, err := closer.Run(ctx, args)
			if err != nil {
				return err
			}

			report.Print(os.Stdout)
			if code := report.ExitCode(); code != 0 {
				return &exitError{code}
			}
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&backupRoot, "backup", "b", "", "backup pool (or dataset) to receive into")
	rootCmd.Flags().BoolVarP(&diffFlag, "diff", "d", false, "report file changes between the two newest backup snapshots")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log throughput while transferring")
	rootCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "plan and estimate without changing the backup")
	rootCmd.Flags().BoolVarP(&unprivFlag, "user", "u", false, "run without elevated privileges (invoke zfs directly)")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	if err := rootCmd.MarkFlagRequired("backup"); err != nil {
		panic(err)
	}

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			return 1
		}
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 126
	}
	return 0
}

func runningAsRoot() (bool, error) {
	whoami, err := user.Current()
	if err != nil {
		return false, fmt.Errorf("getting user: %w", err)
	}
	return whoami.Username == "root", nil
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
