package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pact-im/pact-cli/internal/api"
	"github.com/pact-im/pact-cli/internal/dryrun"
	"github.com/pact-im/pact-cli/internal/outfmt"
	"github.com/pact-im/pact-cli/internal/validation"
)

func newConversationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conversation", "conv"},
		Short:   "Manage conversations",
		Long:    "List, inspect, and open conversations with end users.",
	}

	cmd.AddCommand(newConversationsListCmd())
	cmd.AddCommand(newConversationsGetCmd())
	cmd.AddCommand(newConversationsCreateCmd())

	return cmd
}

func newConversationsListCmd() *cobra.Command {
	var lf listFlags

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the company's conversations",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			companyID, err := getCompanyID()
			if err != nil {
				return err
			}

			list, err := client.Conversations().List(cmdContext(cmd), companyID, lf.options(cmd))
			if err != nil {
				return err
			}

			conversations := list.Conversations
			if conversations == nil {
				conversations = []api.Conversation{}
			}

			if isJSON(cmd) {
				payload := map[string]any{"items": conversations}
				if list.NextPage != "" {
					payload["next_page"] = list.NextPage
				}
				return printJSON(cmd, payload)
			}

			f := outfmt.NewFormatter(cmdContext(cmd), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if len(conversations) == 0 {
				f.Empty("No conversations found")
				return nil
			}
			f.StartTable([]string{"ID", "NAME", "CHANNEL", "LAST MESSAGE"})
			for _, conv := range conversations {
				f.Row(strconv.Itoa(conv.ID), conv.Name, conv.ChannelType, formatTimestamp(conv.LastMessageAt, conv.LastMessageTime()))
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

func newConversationsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <id>",
		Aliases: []string{"g"},
		Short:   "Get conversation details",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0], "conversation")
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

			conv, err := client.Conversations().Get(cmdContext(cmd), companyID, id)
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, conv)
			}

			w := newTabWriterFromCmd(cmd)
			defer func() { _ = w.Flush() }()

			_, _ = fmt.Fprintf(w, "ID:\t%d\n", conv.ID)
			if conv.Name != "" {
				_, _ = fmt.Fprintf(w, "Name:\t%s\n", conv.Name)
			}
			_, _ = fmt.Fprintf(w, "Channel:\t%d (%s)\n", conv.ChannelID, conv.ChannelType)
			if conv.SenderExternalID != "" {
				_, _ = fmt.Fprintf(w, "Sender:\t%s\n", conv.SenderExternalID)
			}
			if conv.LastMessageAt != "" {
				_, _ = fmt.Fprintf(w, "Last message:\t%s\n", formatTimestamp(conv.LastMessageAt, conv.LastMessageTime()))
			}
			if conv.CreatedAt != "" {
				_, _ = fmt.Fprintf(w, "Created:\t%s\n", conv.CreatedAt)
			}

			return nil
		}),
	}
}

func newConversationsCreateCmd() *cobra.Command {
	var (
		provider string
		phone    string
	)

	cmd := &cobra.Command{
		Use:     "create",
		Aliases: []string{"open"},
		Short:   "Open a conversation with an end user",
		Example: strings.TrimSpace(`
  # Open a WhatsApp conversation
  pact conversations create --provider whatsapp --phone 79250000001
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if err := validation.ValidatePhoneFormat(phone); err != nil {
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
				Resource:  "conversation",
				Details: map[string]any{
					"company_id": companyID,
					"provider":   provider,
					"phone":      phone,
				},
			}); ok {
				return err
			}

			conv, err := client.Conversations().Create(cmdContext(cmd), companyID, api.CreateConversationRequest{
				Provider: provider,
				Phone:    phone,
			})
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, conv)
			}
			printAction(cmd, "Opened", "conversation", conv.ID, conv.SenderExternalID)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "", "Messaging provider (required)")
	cmd.Flags().StringVar(&phone, "phone", "", "Recipient phone number (required)")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}
