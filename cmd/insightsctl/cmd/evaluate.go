package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/boddenberg/finance-insights-bfa-go/internal/aggregation"
	"github.com/boddenberg/finance-insights-bfa-go/internal/alerting"
	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
)

// Report is everything evaluate derives from one snapshot.
type Report struct {
	EvaluatedAt     time.Time                  `json:"evaluatedAt"`
	Summary         *domain.DashboardSummary   `json:"summary"`
	MonthlySpending []domain.CategoryBreakdown `json:"monthlySpending"`
	WeeklySpending  []domain.CategoryBreakdown `json:"weeklySpending"`
	BalanceTrend    domain.BalanceTrend        `json:"balanceTrend"`
	Recommendations []string                   `json:"recommendations"`
	AlertCandidates []domain.Alert             `json:"alertCandidates"`
}

type evaluateOptions struct {
	snapshotPath string
	now          string
	days         int
	noise        bool
}

func newEvaluateCommand() *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:     "evaluate",
		Aliases: []string{"eval"},
		Short:   "Run aggregation and alert rules on a snapshot file",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd.OutOrStdout(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.snapshotPath, "snapshot", "s", "", "Snapshot JSON file ({userId, accounts, transactions}), - for stdin")
	flags.StringVar(&opts.now, "now", "", "Evaluation time (RFC3339), defaults to the current time")
	flags.IntVar(&opts.days, "days", 30, "Balance trend length in days")
	flags.BoolVar(&opts.noise, "noise", false, "Perturb the synthesized balance trend")
	cmd.MarkFlagRequired("snapshot")

	return cmd
}

func runEvaluate(out io.Writer, opts *evaluateOptions) error {
	if opts.days < 1 || opts.days > 365 {
		return fmt.Errorf("--days must be within 1..365, got %d", opts.days)
	}

	now := time.Now().UTC()
	if opts.now != "" {
		parsed, err := time.Parse(time.RFC3339, opts.now)
		if err != nil {
			return fmt.Errorf("parse --now: %w", err)
		}
		now = parsed
	}

	snapshot, err := readSnapshot(opts.snapshotPath)
	if err != nil {
		return err
	}

	noise := aggregation.NoNoise
	if opts.noise {
		noise = aggregation.RandomNoise
	}

	summary := aggregation.Summarize(snapshot, now, opts.days, noise)
	report := Report{
		EvaluatedAt:     now,
		Summary:         summary,
		MonthlySpending: aggregation.CategoryBreakdown(snapshot.Transactions, aggregation.PeriodWindow(domain.PeriodMonth, now)),
		WeeklySpending:  aggregation.CategoryBreakdown(snapshot.Transactions, aggregation.PeriodWindow(domain.PeriodWeek, now)),
		BalanceTrend:    summary.BalanceTrend,
		Recommendations: aggregation.Recommend(snapshot, now),
		AlertCandidates: alerting.Evaluate(snapshot, now),
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func readSnapshot(path string) (domain.Snapshot, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("open snapshot: %w", err)
		}
		defer f.Close()
		r = f
	}

	var snapshot domain.Snapshot
	if err := json.NewDecoder(r).Decode(&snapshot); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snapshot.UserID == "" {
		return domain.Snapshot{}, fmt.Errorf("snapshot has no userId")
	}
	return snapshot, nil
}
