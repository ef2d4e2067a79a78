package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/tweetsched/internal/domain"
)

// NewPostCmd создаёт команду немедленной публикации поста через очередь.
func NewPostCmd(envFn func() (*Env, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "post TEXT",
		Short: "Enqueue a post for immediate publishing",
		Long: "Enqueue a PROCESS_TWEET message. The dispatcher publishes it " +
			"on the first delivery regardless of the scheduled time.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			out := outputFn()
			ctx := cmd.Context()

			text := domain.NormalizeText(strings.Join(args, " "))
			if err := domain.ValidateText(text); err != nil {
				return err
			}

			post := &domain.ScheduledPost{
				Text:        text,
				ScheduledAt: env.Clock.Now().Unix(),
				Type:        domain.MessageTypeProcess,
			}
			body, err := domain.Encode(post)
			if err != nil {
				return err
			}

			q, err := env.OpenQueue(ctx)
			if err != nil {
				return err
			}
			defer q.Close()

			id, err := q.Send(ctx, body)
			if err != nil {
				return fmt.Errorf("enqueue post: %w", err)
			}

			out.Print(
				[]string{"MESSAGE_ID", "TYPE", "TEXT"},
				[][]string{{id, string(post.Type), preview(post.Text, 60)}},
				map[string]any{"message_id": id, "post": post},
			)
			out.Success("Post enqueued: " + id)
			return nil
		},
	}
}
