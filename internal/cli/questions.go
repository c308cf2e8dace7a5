package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/ccfeedback/internal/director"
	"github.com/me/ccfeedback/internal/feedback"
	"github.com/me/ccfeedback/internal/session"
	"github.com/me/ccfeedback/pkg/model"
)

func newQuestionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "List or send feedback questions",
	}
	cmd.AddCommand(newQuestionsListCmd(), newQuestionsSendCmd())
	return cmd
}

func newQuestionsListCmd() *cobra.Command {
	var (
		department int
		year       int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the questions addressed to you",
		Long: "Students see the questions for their department and year; staff see the\n" +
			"questions addressed to staff of their department.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := session.Load(ctx, store, logger)
			if err != nil {
				return err
			}

			svc := feedback.NewService(client, logger)
			var questions []model.Question
			switch {
			case sess.HasRole(model.RoleStudent):
				questions, err = svc.StudentQuestions(ctx, store, department, year)
			case sess.HasRole(model.RoleStaff):
				questions, err = svc.StaffQuestions(ctx, store, department)
			case sess.Authenticated:
				return fmt.Errorf("questions are listed for students and staff, you are logged in as %s", sess.Role.Label())
			default:
				return errors.New("not logged in (run ccf login)")
			}
			if err != nil {
				return listError(err)
			}

			out := cmd.OutOrStdout()
			if len(questions) == 0 {
				fmt.Fprintln(out, "No questions found.")
				return nil
			}
			fmt.Fprintf(out, "%-8s  %s\n", "ID", "QUESTION")
			fmt.Fprintf(out, "%-8s  %s\n", "--", "--------")
			for _, q := range questions {
				fmt.Fprintf(out, "%-8d  %s\n", q.ID, q.Text)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&department, "department", feedback.DefaultDepartment, "Department id (see ccf directory)")
	cmd.Flags().IntVar(&year, "year", 1, "Year of study (students only)")
	return cmd
}

func listError(err error) error {
	switch {
	case errors.Is(err, feedback.ErrNotLoggedIn):
		return errors.New("not logged in (run ccf login)")
	case errors.Is(err, feedback.ErrForbidden):
		return errors.New("access forbidden, please log in again")
	}
	return errors.New(feedback.Message(err))
}

func newQuestionsSendCmd() *cobra.Command {
	var (
		target     string
		department int
		year       int
		staff      int
	)

	cmd := &cobra.Command{
		Use:   "send [question...]",
		Short: "Send questions to students or staff (academic directors)",
		Long: "Each argument is one question. Without arguments, questions are read from\n" +
			"standard input, one per line; blank lines are skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			recipients, err := model.ParseTargetRole(target)
			if err != nil {
				return err
			}
			draft := director.NewDraft(recipients, department)
			draft.Year = year
			draft.StaffID = staff

			texts := args
			if len(texts) == 0 {
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					texts = append(texts, sc.Text())
				}
				if err := sc.Err(); err != nil {
					return fmt.Errorf("read questions: %w", err)
				}
			}
			for _, text := range texts {
				if strings.TrimSpace(text) == "" {
					continue
				}
				if _, err := draft.Add(text); err != nil {
					return errors.New(director.Message(err))
				}
			}

			n, err := director.NewSender(client, logger).Send(cmd.Context(), store, draft)
			if err != nil {
				logger.Debug("send failed", "error", err)
				return errors.New(director.Message(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d sent to %s).\n", director.MsgQuestionsSent, n, recipients)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", string(model.TargetStudent), "Recipient group: student or staff")
	cmd.Flags().IntVar(&department, "department", 0, "Department id (see ccf directory)")
	cmd.Flags().IntVar(&year, "year", 0, "Year of study (student questions)")
	cmd.Flags().IntVar(&staff, "staff", 0, "Staff member id (staff questions)")
	return cmd
}
