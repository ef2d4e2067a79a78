package cli

import (
	"github.com/spf13/cobra"
)

// NewTopologyCmd создаёт команду подготовки очереди в выбранном бэкенде.
func NewTopologyCmd(envFn func() (*Env, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "topology",
		Short: "Declare the queue topology for the configured backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			out := outputFn()

			info, err := env.Provision(cmd.Context())
			if err != nil {
				return err
			}

			out.Print(
				[]string{"BACKEND", "QUEUE", "INFO"},
				[][]string{{env.Config.Queue.Backend, env.Config.Queue.Name, info}},
				map[string]string{
					"backend": env.Config.Queue.Backend,
					"queue":   env.Config.Queue.Name,
					"info":    info,
				},
			)
			return nil
		},
	}
}
