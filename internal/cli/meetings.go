package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/ccfeedback/internal/meetings"
	"github.com/me/ccfeedback/internal/session"
	"github.com/me/ccfeedback/pkg/model"
)

const slotLayout = "Mon Jan 2 15:04"

func newMeetingsCmd() *cobra.Command {
	var (
		file        string
		withMinutes bool
	)
	cmd := &cobra.Command{
		Use:   "meetings [id]",
		Short: "Show the committee meeting schedule (students)",
		Long: "Without an id, prints the next meeting and the schedule split into past, today and upcoming.\n" +
			"With an id, prints that meeting and its minutes.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := session.Load(ctx, store, logger)
			if err != nil {
				return err
			}
			switch {
			case sess.HasRole(model.RoleStudent):
			case sess.Authenticated:
				return fmt.Errorf("the meeting schedule is shown to students, you are logged in as %s", sess.Role.Label())
			default:
				return errors.New("not logged in (run ccf login)")
			}

			if !cmd.Flags().Changed("file") {
				file = cfg.MeetingsFile
			}
			if file == "" {
				return errors.New("no meeting schedule configured (set meetings_file, CCF_MEETINGS_FILE or --file)")
			}
			schedule, err := meetings.LoadFile(file, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			now := clock()
			if len(args) == 1 {
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid meeting id %q", args[0])
				}
				slot, ok := schedule.Find(id)
				if !ok {
					return fmt.Errorf("no meeting with id %d", id)
				}
				printSlot(out, slot)
				if slot.HasMinutes() {
					fmt.Fprintf(out, "\n%s\n", strings.TrimSpace(slot.Minutes))
				} else {
					fmt.Fprintln(out, "\nNo minutes recorded.")
				}
				return nil
			}

			if next, ok := schedule.Next(now); ok {
				fmt.Fprintf(out, "Next meeting: %s, %s (%s)\n", next.Title, next.At.Format(slotLayout),
					humanize.RelTime(next.At, now, "ago", "from now"))
			} else {
				fmt.Fprintln(out, "Next meeting: none scheduled")
			}

			g := schedule.Split(now)
			printGroup(out, "Past", g.Past)
			printGroup(out, "Today", g.Today)
			printGroup(out, "Upcoming", g.Upcoming)

			if withMinutes {
				fmt.Fprintln(out, "\nMinutes:")
				minutes := schedule.Minutes(now)
				if len(minutes) == 0 {
					fmt.Fprintln(out, "  none yet")
				}
				for _, slot := range minutes {
					fmt.Fprintf(out, "  %s (%s)\n", slot.Title, slot.At.Format(slotLayout))
					for _, line := range strings.Split(strings.TrimSpace(slot.Minutes), "\n") {
						fmt.Fprintf(out, "    %s\n", line)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Meeting schedule YAML (default meetings_file / CCF_MEETINGS_FILE)")
	cmd.Flags().BoolVar(&withMinutes, "minutes", false, "Also print the minutes of meetings already held")
	return cmd
}

func printGroup(out io.Writer, heading string, slots []meetings.Slot) {
	fmt.Fprintf(out, "\n%s:\n", heading)
	if len(slots) == 0 {
		fmt.Fprintln(out, "  none")
		return
	}
	for _, slot := range slots {
		fmt.Fprintf(out, "  %-4d %-16s %-24s %s\n", slot.ID, slot.At.Format(slotLayout), slot.Title, slot.Location)
	}
}

func printSlot(out io.Writer, slot meetings.Slot) {
	fmt.Fprintf(out, "Meeting:  %s\n", slot.Title)
	fmt.Fprintf(out, "When:     %s\n", slot.At.Format(slotLayout))
	if slot.Location != "" {
		fmt.Fprintf(out, "Location: %s\n", slot.Location)
	}
}
