package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/ccfeedback/internal/director"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Download or share the feedback report (academic directors)",
	}
	cmd.AddCommand(newReportDownloadCmd(), newReportShareCmd())
	return cmd
}

func newReportDownloadCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the feedback report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := director.NewReports(client, logger).Download(cmd.Context(), store)
			if err != nil {
				logger.Debug("download failed", "error", err)
				return errors.New(director.Message(err))
			}

			path := output
			if path == "" {
				// Never let the backend pick a directory.
				path = filepath.Base(report.Filename)
			}
			if err := os.WriteFile(path, report.Data, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n",
				director.MsgReportDownloaded, path, humanize.Bytes(uint64(len(report.Data))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: the name the backend suggests)")
	return cmd
}

func newReportShareCmd() *cobra.Command {
	var (
		recipients []int64
		title      string
	)

	cmd := &cobra.Command{
		Use:   "share",
		Short: "Share the report with staff members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reportData := map[string]any{
				"title":    title,
				"sharedAt": time.Now().UTC().Format(time.RFC3339),
			}
			if err := director.NewReports(client, logger).Share(cmd.Context(), store, reportData, recipients); err != nil {
				logger.Debug("share failed", "error", err)
				return errors.New(director.Message(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d recipients)\n", director.MsgReportShared, len(recipients))
			return nil
		},
	}

	cmd.Flags().Int64SliceVar(&recipients, "to", nil, "Staff member ids, comma separated (see ccf directory)")
	cmd.Flags().StringVar(&title, "title", "Feedback report", "Report title sent with the share")
	return cmd
}
