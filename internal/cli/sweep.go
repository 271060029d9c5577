// Package cli implements the one-shot commands of the binary.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/datptitudu2/backendthuvienptit/internal/config"
	"github.com/datptitudu2/backendthuvienptit/internal/database"
	"github.com/datptitudu2/backendthuvienptit/internal/database/notifications"
	"github.com/datptitudu2/backendthuvienptit/internal/database/users"
	"github.com/datptitudu2/backendthuvienptit/internal/monitor"
	"github.com/datptitudu2/backendthuvienptit/internal/notify"
)

// SweepAll runs every sweep in order.
const SweepAll = "all"

// SweepCommand runs monitor sweeps once against the configured database,
// for use from an external scheduler or by hand.
type SweepCommand struct {
	Names    []string
	Database config.Database
	Monitor  config.Monitor
	Out      io.Writer
}

func NewSweepCommand(cfg *config.Config) *SweepCommand {
	return &SweepCommand{
		Database: cfg.Database,
		Monitor:  cfg.Monitor,
		Out:      os.Stdout,
	}
}

func (cmd *SweepCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	fs.StringVar(&cmd.Database.Path, "db", cmd.Database.Path, "Path to the SQLite database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sweep [options] <%s|%s>\n\n", os.Args[0],
			strings.Join(monitor.SweepNames(), "|"), SweepAll)
		fmt.Fprintf(os.Stderr, "Run notification sweeps once and print a summary.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s sweep due-soon\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s sweep -db ./library.db all\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("exactly one sweep name is required")
	}

	name := fs.Arg(0)
	if name == SweepAll {
		cmd.Names = monitor.SweepNames()
		return nil
	}
	for _, known := range monitor.SweepNames() {
		if name == known {
			cmd.Names = []string{name}
			return nil
		}
	}
	fs.Usage()
	return fmt.Errorf("%w: %q", monitor.ErrUnknownSweep, name)
}

// Run opens the database, runs the selected sweeps and prints one line per
// sweep. It stops at the first sweep that fails outright.
func (cmd *SweepCommand) Run(ctx context.Context) error {
	db, err := database.NewDatabase(cmd.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	notifier := notify.NewService(notifications.NewRepository(db.DB), users.NewRepository(db.DB))
	m := monitor.New(db.DB, notifier, monitor.WithDueSoonWindow(cmd.Monitor.DueSoonWindow))

	for _, name := range cmd.Names {
		res, err := m.Run(ctx, name)
		if err != nil {
			return fmt.Errorf("sweep %s: %w", name, err)
		}
		fmt.Fprintf(cmd.Out, "%-10s scanned=%d notified=%d skipped=%d failed=%d (%s)\n",
			res.Name, res.Scanned, res.Notified, res.Skipped, res.Failed, res.Duration.Round(time.Millisecond))
	}
	return nil
}
