package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/ccfeedback/pkg/model"
)

func newDirectoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "directory",
		Short: "List departments, years and staff ids used by other commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Departments:")
			for _, d := range model.Departments {
				fmt.Fprintf(out, "  %-4d %s\n", d.ID, d.Name)
			}

			fmt.Fprintln(out, "Years:")
			for _, y := range model.StudyYears {
				fmt.Fprintf(out, "  %-4d %s year\n", y, humanize.Ordinal(y))
			}

			fmt.Fprintln(out, "Staff:")
			for _, s := range model.StaffMembers {
				fmt.Fprintf(out, "  %-4d %s (%s)\n", s.ID, s.Name, s.Department)
			}
			return nil
		},
	}
}
