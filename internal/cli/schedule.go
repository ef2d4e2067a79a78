package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/tweetsched/internal/session"
)

// NewScheduleCmd создаёт команду разового запуска Scheduling Session.
func NewScheduleCmd(envFn func() (*Env, error), outputFn func() *Output) *cobra.Command {
	var cohortName string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run a scheduling session for a cohort now",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			out := outputFn()
			ctx := cmd.Context()

			cohort, ok := env.Config.Cohort(cohortName)
			if !ok {
				return fmt.Errorf("unknown cohort %q", cohortName)
			}

			src, err := env.OpenSheets(ctx)
			if err != nil {
				return err
			}

			cfg := session.Config{
				Sheets:   src,
				Clock:    env.Clock,
				SheetKey: env.Config.SheetKey,
				Logger:   env.Logger,
			}

			// Для --dry-run очередь не нужна
			if !dryRun {
				q, err := env.OpenQueue(ctx)
				if err != nil {
					return err
				}
				defer q.Close()
				cfg.Queue = q
			}

			sess := session.New(cfg)

			var report *session.Report
			if dryRun {
				report, err = sess.Plan(ctx, cohort)
			} else {
				report, err = sess.Run(ctx, cohort)
			}
			if err != nil {
				return err
			}

			printReport(out, report)

			if dryRun {
				out.Success(fmt.Sprintf("Planned %d posts for cohort %s (dry run, nothing enqueued)",
					len(report.Posts), report.Cohort))
			} else {
				out.Success(fmt.Sprintf("Scheduled %d posts for cohort %s every %s",
					report.Scheduled(), report.Cohort, report.Interval))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cohortName, "cohort", "", "Cohort name (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute the schedule without enqueueing")
	cmd.MarkFlagRequired("cohort")

	return cmd
}

func printReport(out *Output, report *session.Report) {
	headers := []string{"#", "SCHEDULED_AT", "TYPE", "MESSAGE_ID", "TEXT"}
	rows := make([][]string, len(report.Posts))
	for i, p := range report.Posts {
		id := ""
		if i < len(report.MessageIDs) {
			id = report.MessageIDs[i]
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			time.Unix(p.ScheduledAt, 0).UTC().Format(time.RFC3339),
			string(p.Type),
			id,
			preview(p.Text, 60),
		}
	}

	out.Print(headers, rows, report)
}

// preview укорачивает текст для таблицы.
func preview(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	return string(r[:limit-1]) + "…"
}
