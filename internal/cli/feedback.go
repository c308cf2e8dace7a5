package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/me/ccfeedback/internal/feedback"
)

func newFeedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Answer feedback questions",
	}
	cmd.AddCommand(newFeedbackSubmitCmd())
	return cmd
}

func newFeedbackSubmitCmd() *cobra.Command {
	var (
		rating int
		notes  string
	)

	cmd := &cobra.Command{
		Use:   "submit <question_id>",
		Short: "Rate a question from 1 to 5",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid question id %q", args[0])
			}

			svc := feedback.NewService(client, logger)
			if err := svc.Submit(cmd.Context(), store, id, rating, notes); err != nil {
				return errors.New(feedback.Message(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), feedback.MsgSubmitted)
			return nil
		},
	}

	cmd.Flags().IntVarP(&rating, "rating", "r", 0, "Rating from 1 to 5")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Optional notes")
	return cmd
}
