package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(
		signalCmd("stop", "Stop the running bot", syscall.SIGTERM),
		signalCmd("restart", "Restart the running bot in place", syscall.SIGHUP),
	)
}

// runningPID reads the serve process id from the data directory and checks
// the process is alive.
func runningPID(dataDir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, pidFileName))
	if errors.Is(err, os.ErrNotExist) {
		return 0, errors.New("bot is not running (no PID file)")
	}
	if err != nil {
		return 0, fmt.Errorf("read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file content: %w", err)
	}
	if err := syscall.Kill(pid, 0); err != nil {
		return 0, fmt.Errorf("bot is not running (process %d not found)", pid)
	}
	return pid, nil
}

func signalCmd(use, short string, sig syscall.Signal) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := runningPID(loadConfig().DataDir)
			if err != nil {
				return err
			}
			if err := syscall.Kill(pid, sig); err != nil {
				return fmt.Errorf("send %s: %w", sig, err)
			}
			fmt.Fprintf(os.Stdout, "Sent %s to kinobot (PID %d).\n", sig, pid)
			return nil
		},
	}
}
