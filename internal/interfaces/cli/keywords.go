package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/screening"
)

// NewKeywordsCmd builds the keywords command group.
func NewKeywordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Inspect the screening keyword catalog",
	}
	cmd.AddCommand(newKeywordsListCmd(), newKeywordsStatsCmd())
	return cmd
}

// keywordList is the output shape of keywords list.
type keywordList struct {
	Categories map[string][]string `json:"categories"`
}

func (k keywordList) TableHeaders() []string {
	return []string{"CATEGORY", "KEYWORD"}
}

func (k keywordList) TableRows() [][]string {
	names := make([]string, 0, len(k.Categories))
	for name := range k.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	var rows [][]string
	for _, name := range names {
		for _, kw := range k.Categories[name] {
			rows = append(rows, []string{name, kw})
		}
	}
	return rows
}

func newKeywordsListCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List screening keywords per category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := screening.NewKeywordCatalog()

			if category != "" {
				cat, err := screening.ParseCategory(category)
				if err != nil {
					return err
				}
				return PrintResult(cmd, keywordList{
					Categories: map[string][]string{string(cat): catalog.Keywords(cat)},
				})
			}
			return PrintResult(cmd, keywordList{Categories: catalog.Export()})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "limit output to one category")
	return cmd
}

// keywordStats is the output shape of keywords stats.
type keywordStats struct {
	Counts map[string]int `json:"counts"`
}

func (k keywordStats) TableHeaders() []string {
	return []string{"CATEGORY", "KEYWORDS"}
}

func (k keywordStats) TableRows() [][]string {
	names := make([]string, 0, len(k.Counts))
	for name := range k.Counts {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, fmt.Sprintf("%d", k.Counts[name])})
	}
	return rows
}

func (k keywordStats) String() string {
	var sb strings.Builder
	for _, row := range k.TableRows() {
		fmt.Fprintf(&sb, "%s: %s\n", row[0], row[1])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func newKeywordsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show keyword counts per category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := screening.NewKeywordCatalog()
			return PrintResult(cmd, keywordStats{Counts: catalog.Statistics()})
		},
	}
}
