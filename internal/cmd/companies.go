package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pact-im/pact-cli/internal/api"
	"github.com/pact-im/pact-cli/internal/cache"
	"github.com/pact-im/pact-cli/internal/dryrun"
	"github.com/pact-im/pact-cli/internal/outfmt"
	"github.com/pact-im/pact-cli/internal/resolve"
	"github.com/pact-im/pact-cli/internal/validation"
)

func newCompaniesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "companies",
		Aliases: []string{"company", "co"},
		Short:   "Manage companies",
		Long:    "List, register, and update the companies your token can access.",
	}

	cmd.AddCommand(newCompaniesListCmd())
	cmd.AddCommand(newCompaniesCreateCmd())
	cmd.AddCommand(newCompaniesUpdateCmd())
	cmd.AddCommand(newCompaniesFindCmd())

	return cmd
}

func newCompaniesListCmd() *cobra.Command {
	var (
		lf     listFlags
		cached bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List accessible companies",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			companies, nextPage, err := fetchCompanies(cmd, client, lf, cached)
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				payload := map[string]any{"items": companies}
				if nextPage != "" {
					payload["next_page"] = nextPage
				}
				return printJSON(cmd, payload)
			}

			f := outfmt.NewFormatter(cmdContext(cmd), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if len(companies) == 0 {
				f.Empty("No companies found")
				return nil
			}
			f.StartTable([]string{"ID", "NAME", "PHONE", "HIDDEN"})
			for _, co := range companies {
				f.Row(strconv.Itoa(co.ID), co.Name, co.Phone, strconv.FormatBool(co.Hidden))
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

// fetchCompanies lists companies, serving and refreshing the local cache
// when the request is not paginated.
func fetchCompanies(cmd *cobra.Command, client *api.Client, lf listFlags, cached bool) ([]api.Company, string, error) {
	store := cache.New(resolveCacheDir(), "companies", client.BaseURL, 0)
	paginated := anyFlagChanged(cmd, "from", "per", "sort")

	var companies []api.Company
	if cached && !paginated && store.Get(&companies) {
		return companies, "", nil
	}

	list, err := client.Companies().List(cmdContext(cmd), lf.options(cmd))
	if err != nil {
		return nil, "", err
	}
	companies = list.Companies
	if companies == nil {
		companies = []api.Company{}
	}
	if !paginated {
		store.Put(companies)
	}
	return companies, list.NextPage, nil
}

func newCompaniesCreateCmd() *cobra.Command {
	var (
		name        string
		phone       string
		description string
		webhookURL  string
		hidden      bool
	)

	cmd := &cobra.Command{
		Use:     "create",
		Aliases: []string{"mk"},
		Short:   "Register a new company",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if err := validation.ValidateName(name); err != nil {
				return err
			}
			if phone != "" {
				if err := validation.ValidatePhoneFormat(phone); err != nil {
					return err
				}
			}
			if webhookURL != "" {
				if err := validation.ValidateWebhookURL(webhookURL); err != nil {
					return fmt.Errorf("invalid webhook URL: %w", err)
				}
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			req := api.CreateCompanyRequest{
				Name:        name,
				Phone:       phone,
				Description: description,
				WebhookURL:  webhookURL,
				Hidden:      boolPtrIfChanged(cmd, "hidden", hidden),
			}

			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "create",
				Resource:  "company",
				Details:   companyDetails(0, req.Name, req.Phone, req.Description, req.WebhookURL, req.Hidden),
			}); ok {
				return err
			}

			company, err := client.Companies().Create(cmdContext(cmd), req)
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, company)
			}
			printAction(cmd, "Created", "company", company.ID, company.Name)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Company name (required)")
	cmd.Flags().StringVar(&phone, "phone", "", "Contact phone number")
	cmd.Flags().StringVar(&description, "description", "", "Company description")
	cmd.Flags().StringVar(&webhookURL, "webhook-url", "", "Webhook URL for incoming events")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "Hide the company from listings")
	flagAlias(cmd.Flags(), "webhook-url", "wh")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newCompaniesUpdateCmd() *cobra.Command {
	var (
		name        string
		phone       string
		description string
		webhookURL  string
		hidden      bool
	)

	cmd := &cobra.Command{
		Use:     "update <id>",
		Aliases: []string{"up"},
		Short:   "Update a company",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0], "company")
			if err != nil {
				return err
			}

			if name == "" && phone == "" && description == "" && webhookURL == "" &&
				!anyFlagChanged(cmd, "hidden") {
				return fmt.Errorf("at least one field must be provided to update")
			}
			if phone != "" {
				if err := validation.ValidatePhoneFormat(phone); err != nil {
					return err
				}
			}
			if webhookURL != "" {
				if err := validation.ValidateWebhookURL(webhookURL); err != nil {
					return fmt.Errorf("invalid webhook URL: %w", err)
				}
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			req := api.UpdateCompanyRequest{
				Name:        name,
				Phone:       phone,
				Description: description,
				WebhookURL:  webhookURL,
				Hidden:      boolPtrIfChanged(cmd, "hidden", hidden),
			}

			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "update",
				Resource:  "company",
				Details:   companyDetails(id, req.Name, req.Phone, req.Description, req.WebhookURL, req.Hidden),
			}); ok {
				return err
			}

			company, err := client.Companies().Update(cmdContext(cmd), id, req)
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, company)
			}
			printAction(cmd, "Updated", "company", company.ID, company.Name)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Company name")
	cmd.Flags().StringVar(&phone, "phone", "", "Contact phone number")
	cmd.Flags().StringVar(&description, "description", "", "Company description")
	cmd.Flags().StringVar(&webhookURL, "webhook-url", "", "Webhook URL for incoming events")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "Hide the company from listings")
	flagAlias(cmd.Flags(), "webhook-url", "wh")

	return cmd
}

func newCompaniesFindCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "find <name>",
		Short: "Find a company by fuzzy name match",
		Long:  "Resolve a company name (or part of one) to its ID. Exact matches win; ambiguous matches list the candidates.",
		Example: strings.TrimSpace(`
  # Find the best match
  pact companies find acme

  # Show all candidates ranked by match quality
  pact companies find acme --all
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			companies, _, err := fetchCompanies(cmd, client, listFlags{}, true)
			if err != nil {
				return err
			}

			items := make([]resolve.Named, len(companies))
			byID := make(map[int]api.Company, len(companies))
			for i, co := range companies {
				items[i] = resolve.Named{ID: co.ID, Name: co.Name}
				byID[co.ID] = co
			}

			if all {
				matches := resolve.FuzzyMatchAll(args[0], items, 10)
				if isJSON(cmd) {
					return printJSON(cmd, map[string]any{"items": matches})
				}
				if len(matches) == 0 {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "No matches found")
					return nil
				}
				w := newTabWriterFromCmd(cmd)
				_, _ = fmt.Fprintln(w, "ID\tNAME\tSCORE")
				for _, m := range matches {
					_, _ = fmt.Fprintf(w, "%d\t%s\t%d\n", m.ID, m.Name, m.Score)
				}
				return w.Flush()
			}

			id, err := resolve.FuzzyMatch(args[0], items)
			if err != nil {
				return err
			}

			company := byID[id]
			if isJSON(cmd) {
				return printJSON(cmd, company)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", company.ID, company.Name)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&all, "all", false, "Show all candidates instead of the single best match")

	return cmd
}

func companyDetails(id int, name, phone, description, webhookURL string, hidden *bool) map[string]any {
	details := map[string]any{}
	if id > 0 {
		details["id"] = id
	}
	if name != "" {
		details["name"] = name
	}
	if phone != "" {
		details["phone"] = phone
	}
	if description != "" {
		details["description"] = description
	}
	if webhookURL != "" {
		details["webhook_url"] = webhookURL
	}
	if hidden != nil {
		details["hidden"] = *hidden
	}
	return details
}
