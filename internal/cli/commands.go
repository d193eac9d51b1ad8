package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jamesprial/catalog-admin/internal/media"
	"github.com/jamesprial/catalog-admin/internal/migrations"
	"github.com/jamesprial/catalog-admin/internal/repair"
)

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check the configured credentials against the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client.Authenticate(cmd.Context()); err != nil {
				return err
			}
			who := a.cfg.GraphQL.Email
			if who == "" {
				who = "static token"
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "authenticated (%s) against %s\n", who, a.cfg.GraphQL.URL)
			return err
		},
	}
}

// ---------------------------------------------------------------------------
// migrate
// ---------------------------------------------------------------------------

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "List and run catalog migrations",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List migrations in application order",
		Args:  cobra.NoArgs,
		// Listing needs no backend connection.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tMODE\tDESCRIPTION")
			for _, m := range migrations.Registry() {
				mode := "write"
				if m.ReadOnly {
					mode = "read"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Name, mode, m.Description)
			}
			return tw.Flush()
		},
	}

	run := &cobra.Command{
		Use:   "run <name>...",
		Short: "Run migrations in the given order, stopping at the first failure",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := migrations.LoadPlan(a.cfg.PlanPath)
			if err != nil {
				return err
			}
			runner := &migrations.Runner{Env: a.env(), Plan: plan}
			results, runErr := runner.Run(cmd.Context(), args...)
			if results != nil {
				if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.AddCommand(list, run)
	return cmd
}

// ---------------------------------------------------------------------------
// products / attributes
// ---------------------------------------------------------------------------

func newProductsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Inspect products",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every product in the channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := a.repo.AllProducts(cmd.Context(), a.cfg.GraphQL.PageSize, a.cfg.GraphQL.Channel)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tNAME\tID")
			for _, p := range products {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Slug, p.Name, p.ID)
			}
			fmt.Fprintf(tw, "\n%d product(s)\n", len(products))
			return tw.Flush()
		},
	})
	return cmd
}

func newAttributesCmd(a *app) *cobra.Command {
	var first int
	cmd := &cobra.Command{
		Use:   "attributes",
		Short: "Inspect attributes",
	}
	inspect := &cobra.Command{
		Use:   "inspect <search>",
		Short: "Show attributes matching search with all of their values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := a.repo.SearchAttributes(cmd.Context(), args[0], first)
			if err != nil {
				return err
			}
			for i := range found {
				full, err := a.repo.AttributeByID(cmd.Context(), found[i].ID)
				if err != nil {
					return err
				}
				if full != nil {
					found[i] = *full
				}
			}
			return writeJSON(cmd.OutOrStdout(), found)
		},
	}
	inspect.Flags().IntVar(&first, "first", 20, "Maximum number of attributes")
	cmd.AddCommand(inspect)
	return cmd
}

// ---------------------------------------------------------------------------
// repair
// ---------------------------------------------------------------------------

func newRepairCmd(a *app) *cobra.Command {
	var (
		plan    repair.Plan
		replace string
		opts    repair.Options
	)

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Point products at correct attribute values and delete the bad ones",
		Long: "Scans every product page, rewrites references to bad values and deletes the bad\n" +
			"values only after a complete scan and a clean verification rescan.\n\n" +
			"  --replace 'BAD1|BAD2=CORRECT,BAD3=name:Ready to Move'",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules, err := repair.ParseReplacements(replace)
			if err != nil {
				return err
			}
			plan.Rules = rules
			if opts.PageSize <= 0 {
				opts.PageSize = a.cfg.GraphQL.PageSize
			}
			opts.Filter, opts.AttributeFilter = a.filter, a.attrs
			opts.Audit, opts.Logger = a.audit, a.logger

			report, runErr := repair.Run(cmd.Context(), a.repo, plan, opts)
			if report != nil {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			}
			if errors.Is(runErr, repair.ErrIncompleteScan) {
				return fmt.Errorf("%w: rerun without --max-pages to delete bad values", runErr)
			}
			return runErr
		},
	}

	f := cmd.Flags()
	f.StringVar(&plan.Attribute, "attribute", "", "Attribute slug or id (required)")
	f.StringVar(&replace, "replace", "", "BAD=CORRECT pairs, comma separated (required)")
	f.IntVar(&opts.PageSize, "page-size", 0, "Products per page (default: graphql.page_size)")
	f.IntVar(&opts.MaxPages, "max-pages", 0, "Stop after this many pages; bad values are then kept")
	f.BoolVar(&opts.DryRun, "dry-run", false, "Report matches without changing anything")
	f.BoolVar(&plan.OverwriteValues, "overwrite-values", false, "Replace the product's whole value list for the attribute")
	_ = cmd.MarkFlagRequired("attribute")
	_ = cmd.MarkFlagRequired("replace")
	return cmd
}

// ---------------------------------------------------------------------------
// media
// ---------------------------------------------------------------------------

func newMediaCmd(a *app) *cobra.Command {
	var target media.Target
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Manage product media",
	}
	attach := &cobra.Command{
		Use:   "attach",
		Short: "Attach an image to products without media",
		Long:  "Attaches --url to --slug, or every image of the migration plan when --slug is omitted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targets := []media.Target{target}
			if target.Slug == "" {
				plan, err := migrations.LoadPlan(a.cfg.PlanPath)
				if err != nil {
					return err
				}
				targets = plan.Images
			} else if target.URL == "" {
				return errors.New("--url is required with --slug")
			}

			report, attachErr := a.attacher().Attach(cmd.Context(), targets)
			if report != nil {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			}
			return attachErr
		},
	}
	attach.Flags().StringVar(&target.Slug, "slug", "", "Product slug")
	attach.Flags().StringVar(&target.URL, "url", "", "Image URL")
	attach.Flags().StringVar(&target.Alt, "alt", "", "Alt text (default: Image for <slug>)")
	cmd.AddCommand(attach)
	return cmd
}
