package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pact-im/pact-cli/internal/api"
	"github.com/pact-im/pact-cli/internal/cache"
	"github.com/pact-im/pact-cli/internal/dryrun"
	"github.com/pact-im/pact-cli/internal/outfmt"
)

func newChannelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "channels",
		Aliases: []string{"channel", "ch"},
		Short:   "Manage messaging channels",
		Long:    "List, connect, and update messaging channels (WhatsApp, Instagram, Telegram, and others) for a company.",
	}

	cmd.AddCommand(newChannelsListCmd())
	cmd.AddCommand(newChannelsCreateCmd())
	cmd.AddCommand(newChannelsCreateWhatsAppCmd())
	cmd.AddCommand(newChannelsCreateInstagramCmd())
	cmd.AddCommand(newChannelsCreateTokenCmd())
	cmd.AddCommand(newChannelsUpdateCmd())
	cmd.AddCommand(newChannelsUpdateTokenCmd())
	cmd.AddCommand(newChannelsUpdateInstagramCmd())

	return cmd
}

// listFlags holds the shared pagination flags of list commands.
type listFlags struct {
	From string
	Per  int
	Sort string
}

func registerListFlags(cmd *cobra.Command, lf *listFlags) {
	cmd.Flags().StringVar(&lf.From, "from", "", "Pagination cursor from a previous page's next_page")
	cmd.Flags().IntVar(&lf.Per, "per", 0, fmt.Sprintf("Page size (%d-%d)", api.MinPageSize, api.MaxPageSize))
	cmd.Flags().StringVar(&lf.Sort, "sort", "", "Sort direction: asc or desc")
}

func (lf listFlags) options(cmd *cobra.Command) api.ListOptions {
	opts := api.ListOptions{From: lf.From, Sort: lf.Sort}
	if flagOrAliasChanged(cmd, "per") {
		per := lf.Per
		opts.Per = &per
	}
	return opts
}

func newChannelsListCmd() *cobra.Command {
	var (
		lf     listFlags
		cached bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the company's channels",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			companyID, err := getCompanyID()
			if err != nil {
				return err
			}

			store := cache.New(resolveCacheDir(), "channels", client.BaseURL, companyID)

			var channels []api.Channel
			nextPage := ""
			paginated := anyFlagChanged(cmd, "from", "per", "sort")

			if cached && !paginated && store.Get(&channels) {
				// Served from cache; skip the request entirely.
			} else {
				list, err := client.Channels().List(cmdContext(cmd), companyID, lf.options(cmd))
				if err != nil {
					return err
				}
				channels = list.Channels
				nextPage = list.NextPage
				if !paginated {
					store.Put(channels)
				}
			}

			if channels == nil {
				channels = []api.Channel{}
			}

			if isJSON(cmd) {
				payload := map[string]any{"items": channels}
				if nextPage != "" {
					payload["next_page"] = nextPage
				}
				return printJSON(cmd, payload)
			}

			f := outfmt.NewFormatter(cmdContext(cmd), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if len(channels) == 0 {
				f.Empty("No channels found")
				return nil
			}
			f.StartTable([]string{"ID", "PROVIDER", "STATE", "CREATED"})
			for _, ch := range channels {
				f.Row(strconv.Itoa(ch.ID), ch.Provider, ch.State, formatTimestamp(ch.CreatedAt, ch.CreatedAtTime()))
			}
			if err := f.EndTable(); err != nil {
				return err
			}
			if nextPage != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "More results available: --from %s\n", nextPage)
			}
			return nil
		}),
	}

	registerListFlags(cmd, &lf)
	cmd.Flags().BoolVar(&cached, "cached", false, "Serve from the local cache when fresh")

	return cmd
}

func newChannelsCreateCmd() *cobra.Command {
	var (
		provider string
		params   string
	)

	cmd := &cobra.Command{
		Use:     "create",
		Aliases: []string{"mk", "connect"},
		Short:   "Connect a channel with raw provider parameters",
		Long: strings.TrimSpace(`
Connect a messaging channel by passing provider-specific parameters as JSON.

Use the provider-specific subcommands (create-whatsapp, create-instagram,
create-token) when one fits; this command is the escape hatch for providers
and parameters they do not cover.
`),
		Example: strings.TrimSpace(`
  # Connect a viber channel
  pact channels create --provider viber --params '{"token": "VIBER_TOKEN"}'
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			parameters := map[string]any{}
			if params != "" {
				if err := json.Unmarshal([]byte(params), &parameters); err != nil {
					return fmt.Errorf("invalid --params JSON: %w", err)
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
				Resource:  "channel",
				Details: map[string]any{
					"company_id": companyID,
					"provider":   provider,
					"parameters": parameters,
				},
			}); ok {
				return err
			}

			channel, err := client.Channels().Create(cmdContext(cmd), companyID, api.CreateChannelRequest{
				Provider:   provider,
				Parameters: parameters,
			})
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, channel)
			}
			printAction(cmd, "Connected", "channel", channel.ID, channel.Provider)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "", "Messaging provider (required), one of: "+strings.Join(api.KnownProviders, ", "))
	cmd.Flags().StringVar(&params, "params", "", "Provider-specific parameters as JSON")
	_ = cmd.MarkFlagRequired("provider")

	return cmd
}

func newChannelsCreateWhatsAppCmd() *cobra.Command {
	var (
		syncFrom   string
		keepUnread bool
	)

	cmd := &cobra.Command{
		Use:     "create-whatsapp",
		Aliases: []string{"wa"},
		Short:   "Connect a WhatsApp channel",
		Example: strings.TrimSpace(`
  # Connect WhatsApp and sync history from a date, leaving messages unread
  pact channels create-whatsapp --sync-from 2024-06-01 --keep-unread
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			syncTime, err := parseTimeFlag(syncFrom)
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

			opts := api.WhatsAppChannelOptions{
				SyncMessagesFrom: syncTime,
				DoNotMarkAsRead:  boolPtrIfChanged(cmd, "keep-unread", keepUnread),
			}

			details := map[string]any{"company_id": companyID, "provider": "whatsapp"}
			if syncTime != nil {
				details["sync_messages_from"] = syncTime.Unix()
			}
			if opts.DoNotMarkAsRead != nil {
				details["do_not_mark_as_read"] = *opts.DoNotMarkAsRead
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "create",
				Resource:  "channel",
				Details:   details,
			}); ok {
				return err
			}

			channel, err := client.Channels().CreateWhatsApp(cmdContext(cmd), companyID, opts)
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, channel)
			}
			printAction(cmd, "Connected", "channel", channel.ID, "whatsapp")
			return nil
		}),
	}

	cmd.Flags().StringVar(&syncFrom, "sync-from", "", "Sync message history starting at this time (RFC3339, YYYY-MM-DD, or unix seconds)")
	cmd.Flags().BoolVar(&keepUnread, "keep-unread", false, "Leave synced messages unread on the phone")
	flagAlias(cmd.Flags(), "sync-from", "sf")

	return cmd
}

func newChannelsCreateInstagramCmd() *cobra.Command {
	var (
		login        string
		password     string
		syncFrom     string
		syncComments bool
		syncDirect   bool
	)

	cmd := &cobra.Command{
		Use:     "create-instagram",
		Aliases: []string{"ig"},
		Short:   "Connect an Instagram channel",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			syncTime, err := parseTimeFlag(syncFrom)
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

			req := api.InstagramChannelRequest{
				Login:            login,
				Password:         password,
				SyncMessagesFrom: syncTime,
				SyncComments:     boolPtrIfChanged(cmd, "sync-comments", syncComments),
				SyncDirect:       boolPtrIfChanged(cmd, "sync-direct", syncDirect),
			}

			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "create",
				Resource:  "channel",
				Details: map[string]any{
					"company_id": companyID,
					"provider":   "instagram",
					"login":      login,
				},
			}); ok {
				return err
			}

			channel, err := client.Channels().CreateInstagram(cmdContext(cmd), companyID, req)
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, channel)
			}
			printAction(cmd, "Connected", "channel", channel.ID, "instagram")
			return nil
		}),
	}

	cmd.Flags().StringVar(&login, "login", "", "Instagram account login (required)")
	cmd.Flags().StringVar(&password, "password", "", "Instagram account password (required)")
	cmd.Flags().StringVar(&syncFrom, "sync-from", "", "Sync message history starting at this time")
	cmd.Flags().BoolVar(&syncComments, "sync-comments", false, "Sync post comments")
	cmd.Flags().BoolVar(&syncDirect, "sync-direct", false, "Sync direct messages")
	flagAlias(cmd.Flags(), "sync-from", "sf")
	_ = cmd.MarkFlagRequired("login")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newChannelsCreateTokenCmd() *cobra.Command {
	var (
		provider string
		token    string
	)

	cmd := &cobra.Command{
		Use:   "create-token",
		Short: "Connect a token-authenticated channel (telegram, viber, vk)",
		Example: strings.TrimSpace(`
  # Connect a telegram bot
  pact channels create-token --provider telegram --token BOT_TOKEN
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
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
				Resource:  "channel",
				Details: map[string]any{
					"company_id": companyID,
					"provider":   provider,
				},
			}); ok {
				return err
			}

			channel, err := client.Channels().CreateByToken(cmdContext(cmd), companyID, provider, token)
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, channel)
			}
			printAction(cmd, "Connected", "channel", channel.ID, channel.Provider)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "", "Messaging provider (required)")
	cmd.Flags().StringVar(&token, "token", "", "Provider bot/API token (required)")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

func newChannelsUpdateCmd() *cobra.Command {
	var params string

	cmd := &cobra.Command{
		Use:     "update <conversation-id>",
		Aliases: []string{"up"},
		Short:   "Update a channel with raw provider parameters",
		Long:    "Update the channel behind a conversation by passing provider-specific fields as JSON.",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			conversationID, err := parseIDArg(args[0], "conversation")
			if err != nil {
				return err
			}

			fields := map[string]any{}
			if err := json.Unmarshal([]byte(params), &fields); err != nil {
				return fmt.Errorf("invalid --params JSON: %w", err)
			}
			if len(fields) == 0 {
				return fmt.Errorf("at least one field must be provided to update")
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
				Operation: "update",
				Resource:  "channel",
				Details: map[string]any{
					"company_id":      companyID,
					"conversation_id": conversationID,
					"fields":          fields,
				},
			}); ok {
				return err
			}

			channel, err := client.Channels().Update(cmdContext(cmd), companyID, conversationID, fields)
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, channel)
			}
			printAction(cmd, "Updated", "channel", channel.ID, channel.Provider)
			return nil
		}),
	}

	cmd.Flags().StringVar(&params, "params", "", "Fields to update as JSON (required)")
	_ = cmd.MarkFlagRequired("params")

	return cmd
}

func newChannelsUpdateTokenCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "update-token <conversation-id>",
		Short: "Replace the token of a token-authenticated channel",
		Args:  cobra.ExactArgs(1),
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

			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "update",
				Resource:  "channel",
				Details: map[string]any{
					"company_id":      companyID,
					"conversation_id": conversationID,
				},
			}); ok {
				return err
			}

			channel, err := client.Channels().UpdateByToken(cmdContext(cmd), companyID, conversationID, token)
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, channel)
			}
			printAction(cmd, "Updated", "channel", channel.ID, channel.Provider)
			return nil
		}),
	}

	cmd.Flags().StringVar(&token, "token", "", "New provider bot/API token (required)")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

func newChannelsUpdateInstagramCmd() *cobra.Command {
	var (
		login        string
		password     string
		syncComments bool
		syncDirect   bool
	)

	cmd := &cobra.Command{
		Use:   "update-instagram <conversation-id>",
		Short: "Replace Instagram channel credentials",
		Args:  cobra.ExactArgs(1),
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

			req := api.UpdateInstagramChannelRequest{
				Login:        login,
				Password:     password,
				SyncComments: boolPtrIfChanged(cmd, "sync-comments", syncComments),
				SyncDirect:   boolPtrIfChanged(cmd, "sync-direct", syncDirect),
			}

			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "update",
				Resource:  "channel",
				Details: map[string]any{
					"company_id":      companyID,
					"conversation_id": conversationID,
					"provider":        "instagram",
					"login":           login,
				},
			}); ok {
				return err
			}

			channel, err := client.Channels().UpdateInstagram(cmdContext(cmd), companyID, conversationID, req)
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, channel)
			}
			printAction(cmd, "Updated", "channel", channel.ID, "instagram")
			return nil
		}),
	}

	cmd.Flags().StringVar(&login, "login", "", "Instagram account login (required)")
	cmd.Flags().StringVar(&password, "password", "", "Instagram account password (required)")
	cmd.Flags().BoolVar(&syncComments, "sync-comments", false, "Sync post comments")
	cmd.Flags().BoolVar(&syncDirect, "sync-direct", false, "Sync direct messages")
	_ = cmd.MarkFlagRequired("login")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
