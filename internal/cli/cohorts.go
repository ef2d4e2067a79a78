package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/tweetsched/internal/scheduler"
)

// cohortView — когорта в JSON-выводе.
type cohortView struct {
	Name          string      `json:"name"`
	Cron          string      `json:"cron"`
	Timezone      string      `json:"timezone"`
	WindowSeconds int64       `json:"window_seconds"`
	Tab           int         `json:"tab"`
	SheetKey      string      `json:"sheet_key,omitempty"`
	Enabled       bool        `json:"enabled"`
	NextFires     []time.Time `json:"next_fires,omitempty"`
}

// NewCohortsCmd создаёт команду просмотра когорт и их ближайших запусков.
func NewCohortsCmd(envFn func() (*Env, error), outputFn func() *Output) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "cohorts",
		Short: "List configured cohorts with next fire times",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			out := outputFn()
			now := env.Clock.Now()

			views := make([]cohortView, 0, len(env.Config.Cohorts))
			rows := make([][]string, 0, len(env.Config.Cohorts))
			for i := range env.Config.Cohorts {
				c := &env.Config.Cohorts[i]

				v := cohortView{
					Name:          c.Name,
					Cron:          c.CronExpr,
					Timezone:      c.Timezone,
					WindowSeconds: c.WindowSeconds,
					Tab:           c.TabIndex,
					SheetKey:      c.SheetKey,
					Enabled:       c.IsEnabled(),
				}
				if v.Timezone == "" {
					v.Timezone = "UTC"
				}

				next := "-"
				if v.Enabled {
					fires, err := scheduler.NextFires(c, now, count)
					if err != nil {
						return err
					}
					v.NextFires = fires
					if len(fires) > 0 {
						next = fires[0].Format(time.RFC3339)
					}
				}

				views = append(views, v)
				rows = append(rows, []string{
					v.Name, v.Cron, v.Timezone,
					strconv.FormatInt(v.WindowSeconds, 10) + "s",
					strconv.Itoa(v.Tab),
					strconv.FormatBool(v.Enabled),
					next,
				})
			}

			out.Print(
				[]string{"NAME", "CRON", "TZ", "WINDOW", "TAB", "ENABLED", "NEXT"},
				rows,
				views,
			)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "next", 3, "Number of upcoming fire times in JSON output")

	return cmd
}
