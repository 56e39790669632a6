package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	appscreening "github.com/turtacn/EntityRisk-Intelligence/internal/application/screening"
	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/screening"
)

// screenResult is the offline output shape of the screen command.
type screenResult struct {
	EntityName string              `json:"entity_name"`
	Category   string              `json:"category"`
	Queries    []string            `json:"queries,omitempty"`
	QuerySets  map[string][]string `json:"query_sets,omitempty"`
}

// TableHeaders implements table output for generated queries.
func (r screenResult) TableHeaders() []string {
	return []string{"#", "QUERY"}
}

// TableRows implements table output for generated queries.
func (r screenResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Queries))
	for i, q := range r.Queries {
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), q})
	}
	return rows
}

// NewScreenCmd builds the screen command. Without --live it only prints
// the queries that would run; with --live it executes the screening
// pipeline against the configured search gateway and store.
func NewScreenCmd() *cobra.Command {
	var (
		entity     string
		category   string
		maxQueries int
		live       bool
		score      bool
	)

	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Generate or run screening queries for an entity",
		Long:  "Generates the category keyword queries for an entity. With --live the\nqueries are executed against the search gateway, results are stored, and\noptionally queued for risk scoring with --score.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			if live {
				return runLiveScreen(cmd, cliCtx, entity, category, maxQueries, score)
			}
			return runOfflineScreen(cmd, entity, category, maxQueries)
		},
	}

	cmd.Flags().StringVarP(&entity, "entity", "e", "", "entity name to screen (required)")
	cmd.Flags().StringVar(&category, "category", "all", "risk category (financial_crimes, corruption_bribery, all)")
	cmd.Flags().IntVar(&maxQueries, "max-queries", 5, "maximum queries per category")
	cmd.Flags().BoolVar(&live, "live", false, "execute the queries instead of printing them")
	cmd.Flags().BoolVar(&score, "score", false, "queue live results for risk scoring (requires --live)")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}

// runOfflineScreen prints the generated query sets without any I/O.
func runOfflineScreen(cmd *cobra.Command, entity, category string, maxQueries int) error {
	catalog := screening.NewKeywordCatalog()

	cat, err := screening.ParseCategory(category)
	if err != nil {
		return err
	}

	if cat == screening.CategoryAll {
		sets, err := catalog.GenerateComprehensive(entity, maxQueries)
		if err != nil {
			return err
		}
		return PrintResult(cmd, screenResult{
			EntityName: entity,
			Category:   category,
			QuerySets:  sets,
		})
	}

	queries, err := catalog.GenerateQueries(entity, cat, maxQueries)
	if err != nil {
		return err
	}
	return PrintResult(cmd, screenResult{
		EntityName: entity,
		Category:   category,
		Queries:    queries,
	})
}

// runLiveScreen executes the screening fan-out against live services.
func runLiveScreen(cmd *cobra.Command, cliCtx *CLIContext, entity, category string, maxQueries int, score bool) error {
	deps, err := buildScreeningDeps(cliCtx, score)
	if err != nil {
		return err
	}
	defer deps.Close()

	service := appscreening.NewService(
		screening.NewKeywordCatalog(),
		deps.Searcher,
		deps.Store,
		deps.Producer,
		cliCtx.Config.Screening,
		cliCtx.Logger,
	)

	cat, err := screening.ParseCategory(category)
	if err != nil {
		return err
	}

	var outcome *appscreening.Outcome
	if cat == screening.CategoryAll {
		outcome, err = service.ScreenComprehensive(cmd.Context(), entity, maxQueries, score)
	} else {
		outcome, err = service.ScreenTargeted(cmd.Context(), entity, cat, maxQueries, score)
	}
	if err != nil {
		return err
	}
	return PrintResult(cmd, outcome)
}
