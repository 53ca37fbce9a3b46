// Package cli команды billingctl для разового запуска сверки биллинга.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/content-generator/internal/models"
	"github.com/magabrotheeeer/content-generator/internal/services/reconciliation"
)

// Sweeper проходы сверки.
type Sweeper interface {
	SweepTrials(ctx context.Context) (reconciliation.SweepReport, error)
	SweepCycles(ctx context.Context, plan models.Plan) (reconciliation.SweepReport, error)
	SweepAllCycles(ctx context.Context) (reconciliation.SweepReport, error)
}

// Loader подключает Sweeper. Возвращаемая функция освобождает ресурсы.
type Loader func(ctx context.Context) (Sweeper, func(), error)

// NewRootCmd создаёт корневую команду billingctl.
func NewRootCmd(load Loader) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "billingctl",
		Short:         "Billing maintenance for the content generator",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.AddCommand(newSweepCmd(load))
	return rootCmd
}

func newSweepCmd(load Loader) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a reconciliation pass once",
	}
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Render JSON output")

	run := func(name string, pass func(ctx context.Context, s Sweeper) (reconciliation.SweepReport, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			s, release, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			report, err := pass(cmd.Context(), s)
			if printErr := printReport(cmd.OutOrStdout(), name, report, asJSON); printErr != nil {
				return printErr
			}
			return err
		}
	}

	var (
		plan string
		only models.Plan
	)
	cycles := &cobra.Command{
		Use:   "cycles",
		Short: "Reset usage counters of accounts whose billing date has passed",
		Args:  cobra.NoArgs,
		PreRunE: func(*cobra.Command, []string) error {
			if plan == "" {
				return nil
			}
			p, err := models.ParsePlan(plan)
			if err != nil {
				return err
			}
			if !slices.Contains(models.CyclePlans, p) {
				return fmt.Errorf("%w: --plan %s has no billing cycle, use one of %v", models.ErrValidation, p, models.CyclePlans)
			}
			only = p
			return nil
		},
		RunE: run("cycles", func(ctx context.Context, s Sweeper) (reconciliation.SweepReport, error) {
			if only == "" {
				return s.SweepAllCycles(ctx)
			}
			return s.SweepCycles(ctx, only)
		}),
	}
	cycles.Flags().StringVar(&plan, "plan", "", "Only accounts on this plan (Free, Basic, Premium)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "trials",
			Short: "Move accounts with an expired trial to the Free plan",
			Args:  cobra.NoArgs,
			RunE: run("trials", func(ctx context.Context, s Sweeper) (reconciliation.SweepReport, error) {
				return s.SweepTrials(ctx)
			}),
		},
		cycles,
		&cobra.Command{
			Use:   "all",
			Short: "Run the trial pass and then every cycle pass",
			Args:  cobra.NoArgs,
			RunE: run("all", func(ctx context.Context, s Sweeper) (reconciliation.SweepReport, error) {
				trials, err := s.SweepTrials(ctx)
				if err != nil {
					return trials, err
				}
				cycles, err := s.SweepAllCycles(ctx)
				return trials.Add(cycles), err
			}),
		},
	)
	return cmd
}

func printReport(w io.Writer, name string, r reconciliation.SweepReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Sweep string `json:"sweep"`
			reconciliation.SweepReport
		}{Sweep: name, SweepReport: r})
	}
	_, err := fmt.Fprintf(w, "sweep %s: scanned=%d applied=%d failed=%d\n", name, r.Scanned, r.Applied, r.Failed)
	return err
}
