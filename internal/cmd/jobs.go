package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "jobs",
		Aliases: []string{"job"},
		Short:   "Inspect delivery jobs",
		Long:    "Check the state of asynchronous delivery jobs returned by message sends.",
	}

	cmd.AddCommand(newJobsGetCmd())

	return cmd
}

func newJobsGetCmd() *cobra.Command {
	var channelID int

	cmd := &cobra.Command{
		Use:     "get <job-id>",
		Aliases: []string{"g"},
		Short:   "Get delivery job state",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			jobID, err := parseIDArg(args[0], "job")
			if err != nil {
				return err
			}

			client, err := getClient()
			if err != nil {
				return err
			}
			companyID, err := getCompanyID()
			if err != nil {
				return err
			}

			job, err := client.Jobs().Get(cmdContext(cmd), companyID, channelID, jobID)
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, job)
			}

			w := newTabWriterFromCmd(cmd)
			defer func() { _ = w.Flush() }()

			_, _ = fmt.Fprintf(w, "ID:\t%d\n", job.ID)
			_, _ = fmt.Fprintf(w, "State:\t%s\n", job.State)
			if job.Details != "" {
				_, _ = fmt.Fprintf(w, "Details:\t%s\n", job.Details)
			}

			return nil
		}),
	}

	cmd.Flags().IntVar(&channelID, "channel", 0, "Channel ID the job belongs to (required)")
	_ = cmd.MarkFlagRequired("channel")

	return cmd
}
