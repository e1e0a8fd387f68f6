package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/wsrelay/pkg/cli"
	"mercator-hq/wsrelay/pkg/journal"
	"mercator-hq/wsrelay/pkg/journal/export"
	"mercator-hq/wsrelay/pkg/journal/storage"
)

var sessionsFlags struct {
	user    string
	target  string
	outcome string
	since   time.Duration
	limit   int
	offset  int
	format  string
	output  string
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Query the session journal",
	Long: `Query finished relay sessions recorded in the session journal.

Records are read directly from the configured journal backend (sqlite or
redis) and listed newest first.

Examples:
  # Sessions from the last 24 hours
  wsrelay sessions --since 24h

  # Failed authentications for one user
  wsrelay sessions --user alice --outcome auth_failed

  # Export to CSV
  wsrelay sessions --format csv --output sessions.csv`,
	RunE: querySessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)

	sessionsCmd.Flags().StringVar(&sessionsFlags.user, "user", "", "filter by user name")
	sessionsCmd.Flags().StringVar(&sessionsFlags.target, "target", "", "filter by target URL")
	sessionsCmd.Flags().StringVar(&sessionsFlags.outcome, "outcome", "", "filter by outcome (completed, auth_failed, dial_failed, ...)")
	sessionsCmd.Flags().DurationVar(&sessionsFlags.since, "since", 0, "only sessions started within this duration")
	sessionsCmd.Flags().IntVar(&sessionsFlags.limit, "limit", journal.DefaultQueryLimit, "maximum number of records")
	sessionsCmd.Flags().IntVar(&sessionsFlags.offset, "offset", 0, "skip this many records")
	sessionsCmd.Flags().StringVar(&sessionsFlags.format, "format", "text", "output format: text, json, csv")
	sessionsCmd.Flags().StringVarP(&sessionsFlags.output, "output", "o", "", "write to file instead of stdout")
}

func querySessions(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(sessionsFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError(cfgFile, fmt.Sprintf("failed to load config: %v", err))
	}
	if cfg.Journal.Backend == "memory" {
		return cli.NewConfigError("journal.backend", "the memory backend cannot be queried from another process")
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	defer cancel()

	store, err := storage.Open(ctx, &cfg.Journal)
	if err != nil {
		return cli.NewCommandError("sessions", err)
	}
	defer store.Close()

	records, err := store.Query(ctx, buildQuery(time.Now()))
	if err != nil {
		return cli.NewCommandError("sessions", err)
	}

	out := cmd.OutOrStdout()
	if sessionsFlags.output != "" {
		f, err := os.Create(sessionsFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := writeSessions(out, format, records); err != nil {
		return cli.NewCommandError("sessions", err)
	}
	if sessionsFlags.output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %d records to %s\n", len(records), sessionsFlags.output)
	}
	return nil
}

func buildQuery(now time.Time) *journal.Query {
	q := &journal.Query{
		User:    sessionsFlags.user,
		Target:  sessionsFlags.target,
		Outcome: journal.Outcome(sessionsFlags.outcome),
		Limit:   sessionsFlags.limit,
		Offset:  sessionsFlags.offset,
	}
	if sessionsFlags.since > 0 {
		start := now.Add(-sessionsFlags.since)
		q.StartTime = &start
	}
	return q
}

func writeSessions(w io.Writer, format cli.OutputFormat, records []*journal.SessionRecord) error {
	switch format {
	case cli.FormatJSON:
		return export.NewJSONExporter(true).Export(records, w)
	case cli.FormatCSV:
		return export.NewCSVExporter(true).Export(records, w)
	default:
		if len(records) == 0 {
			_, err := fmt.Fprintln(w, "No sessions found")
			return err
		}
		return cli.NewFormatter(cli.FormatText).FormatTo(w, sessionTable(records))
	}
}

// sessionTable renders records as a compact text table.
type sessionTable []*journal.SessionRecord

func (t sessionTable) Header() []string {
	return []string{"STARTED", "USER", "TARGET", "OUTCOME", "DURATION", "FRAMES"}
}

func (t sessionTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		user := r.User
		if user == "" {
			user = "-"
		}
		rows = append(rows, []string{
			r.StartedAt.Local().Format(time.DateTime),
			user,
			r.Target,
			string(r.Outcome),
			r.Duration().Round(time.Millisecond).String(),
			strconv.FormatInt(r.FramesClientToTarget, 10) + "/" + strconv.FormatInt(r.FramesTargetToClient, 10),
		})
	}
	return rows
}
