package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pact-im/pact-cli/internal/api"
	"github.com/pact-im/pact-cli/internal/dryrun"
	"github.com/pact-im/pact-cli/internal/outfmt"
	"github.com/pact-im/pact-cli/internal/validation"
)

func newMessagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "messages",
		Aliases: []string{"message", "msg"},
		Short:   "Send and read messages",
		Long:    "List conversation history and send messages, with optional file attachments.",
	}

	cmd.AddCommand(newMessagesListCmd())
	cmd.AddCommand(newMessagesSendCmd())
	cmd.AddCommand(newMessagesBulkSendCmd())

	return cmd
}

func newMessagesListCmd() *cobra.Command {
	var lf listFlags

	cmd := &cobra.Command{
		Use:     "list <conversation-id>",
		Aliases: []string{"ls"},
		Short:   "List a conversation's messages",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			conversationID, err := parseIDArg(args[0], "conversation")
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

			list, err := client.Messages().List(cmdContext(cmd), companyID, conversationID, lf.options(cmd))
			if err != nil {
				return err
			}

			messages := list.Messages
			if messages == nil {
				messages = []api.Message{}
			}

			if isJSON(cmd) {
				payload := map[string]any{"items": messages}
				if list.NextPage != "" {
					payload["next_page"] = list.NextPage
				}
				return printJSON(cmd, payload)
			}

			f := outfmt.NewFormatter(cmdContext(cmd), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if len(messages) == 0 {
				f.Empty("No messages found")
				return nil
			}
			f.StartTable([]string{"ID", "DIRECTION", "TEXT", "CREATED"})
			for _, msg := range messages {
				direction := "out"
				if msg.Income {
					direction = "in"
				}
				f.Row(strconv.Itoa(msg.ID), direction, truncateText(msg.Text, 60), formatTimestamp(msg.CreatedAt, msg.CreatedAtTime()))
			}
			if err := f.EndTable(); err != nil {
				return err
			}
			if list.NextPage != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "More results available: --from %s\n", list.NextPage)
			}
			return nil
		}),
	}

	registerListFlags(cmd, &lf)

	return cmd
}

func newMessagesSendCmd() *cobra.Command {
	var (
		text  string
		files []string
	)

	cmd := &cobra.Command{
		Use:   "send <conversation-id>",
		Short: "Send a message",
		Example: strings.TrimSpace(`
  # Send a text message
  pact messages send 17 --text "Your order has shipped"

  # Send a file with a caption
  pact messages send 17 --text "Invoice attached" --file invoice.pdf
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			conversationID, err := parseIDArg(args[0], "conversation")
			if err != nil {
				return err
			}
			if text == "" && len(files) == 0 {
				return fmt.Errorf("either --text or --file must be provided")
			}
			if text != "" {
				if err := validation.ValidateMessageContent(text); err != nil {
					return err
				}
			}

			client, err := getClient()
			if err != nil {
				return err
			}
			companyID, err := getCompanyID()
			if err != nil {
				return err
			}

			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "create",
				Resource:  "message",
				Details: map[string]any{
					"company_id":      companyID,
					"conversation_id": conversationID,
					"text":            text,
					"files":           files,
				},
			}); ok {
				return err
			}

			ctx := cmdContext(cmd)
			var attachmentIDs []int
			for _, path := range files {
				content, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read attachment %q: %w", path, err)
				}
				attachment, err := client.Messages().UploadAttachment(ctx, companyID, conversationID, filepath.Base(path), content)
				if err != nil {
					return fmt.Errorf("failed to upload %q: %w", path, err)
				}
				attachmentIDs = append(attachmentIDs, attachment.ID)
			}

			result, err := client.Messages().Send(ctx, companyID, conversationID, api.SendMessageRequest{
				Text:          text,
				AttachmentIDs: attachmentIDs,
			})
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, result)
			}
			printAction(cmd, "Sent", "message", result.ID, "")
			if result.JobID != 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Delivery job: %d\n", result.JobID)
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "Message text")
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "File to attach (repeatable)")

	return cmd
}

func newMessagesBulkSendCmd() *cobra.Command {
	var (
		text          string
		conversations string
		concurrency   int64
		noProgress    bool
	)

	cmd := &cobra.Command{
		Use:   "bulk-send",
		Short: "Send the same message to multiple conversations",
		Long:  "Send one message to many conversations concurrently. Individual failures are reported without aborting the rest.",
		Example: strings.TrimSpace(`
  # Notify three conversations
  pact messages bulk-send --conversations 11,12,13 --text "Maintenance tonight at 22:00 UTC"
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			ids, err := parseIDList(conversations, "conversation")
			if err != nil {
				return err
			}
			if err := validation.ValidateMessageContent(text); err != nil {
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

			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "create",
				Resource:  "messages",
				Details: map[string]any{
					"company_id":    companyID,
					"conversations": ids,
					"text":          text,
				},
			}); ok {
				return err
			}

			if len(ids) > 10 {
				ok, err := confirmAction(cmd, confirmOptions{
					Prompt:              fmt.Sprintf("Send to %d conversations? [y/N] ", len(ids)),
					CancelMessage:       "Cancelled.",
					RequireForceForJSON: true,
				})
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}

			progress := !noProgress && !isJSON(cmd) && !flags.Quiet && !flags.Silent
			results := runBulkOperation(cmdContext(cmd), ids, concurrency, progress, cmd.ErrOrStderr(),
				func(ctx context.Context, conversationID int) (*api.SendMessageResult, error) {
					return client.Messages().Send(ctx, companyID, conversationID, api.SendMessageRequest{Text: text})
				})

			success, failure := countResults(results)

			if isJSON(cmd) {
				items := make([]map[string]any, 0, len(results))
				for _, r := range results {
					item := map[string]any{
						"conversation_id": r.ID,
						"success":         r.Success,
					}
					if r.Error != nil {
						item["error"] = r.Error.Error()
					}
					if r.Data != nil {
						item["result"] = r.Data
					}
					items = append(items, item)
				}
				return printJSON(cmd, map[string]any{
					"items":  items,
					"sent":   success,
					"failed": failure,
					"total":  len(results),
				})
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Sent %d/%d messages\n", success, len(results))
			for _, r := range results {
				if !r.Success {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "  conversation %d: %v\n", r.ID, r.Error)
				}
			}
			if failure > 0 {
				return fmt.Errorf("%d of %d sends failed", failure, len(results))
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "Message text (required)")
	cmd.Flags().StringVar(&conversations, "conversations", "", "Comma-separated conversation IDs (required)")
	cmd.Flags().Int64Var(&concurrency, "concurrency", DefaultConcurrency, "Number of concurrent sends")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress indicator")
	_ = cmd.MarkFlagRequired("text")
	_ = cmd.MarkFlagRequired("conversations")

	return cmd
}

// truncateText shortens s to maxLen characters, adding "..." when truncated.
func truncateText(s string, maxLen int) string {
	if maxLen < 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
