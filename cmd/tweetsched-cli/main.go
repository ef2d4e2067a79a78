// Tweetsched CLI — разовые операции над очередью и когортами.
//
// Использование:
//
//	tweetsched [--json] [--config FILE] [--env-file FILE] <command> [flags]
//
// Команды:
//
//	schedule  Запустить Scheduling Session для когорты
//	post      Поставить пост на немедленную публикацию
//	cohorts   Показать когорты и ближайшие запуски
//	topology  Создать очередь в выбранном бэкенде
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/tweetsched/internal/cli"
	"github.com/shaiso/tweetsched/internal/config"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var jsonOutput bool
	var cohortsFile string
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "tweetsched",
		Short:         "Tweetsched CLI — spreadsheet driven post scheduler",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&cohortsFile, "config", "", "Cohorts file (overrides COHORTS_FILE)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment from file")

	envFn := sync.OnceValues(func() (*cli.Env, error) {
		return cli.NewEnv(ctx, config.Options{
			EnvFile:     envFile,
			CohortsFile: cohortsFile,
		})
	})
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewScheduleCmd(envFn, outputFn),
		cli.NewPostCmd(envFn, outputFn),
		cli.NewCohortsCmd(envFn, outputFn),
		cli.NewTopologyCmd(envFn, outputFn),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
