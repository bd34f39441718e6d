package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/AlbertoRQ/Baratazo/internal/adapters/driving/tui/styles"
)

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "List supported stores and their catalog sizes",
	Args:  cobra.NoArgs,
	RunE:  runStores,
}

func init() {
	rootCmd.AddCommand(storesCmd)
}

func runStores(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	svc, err := openServices(cmd, *settings)
	if err != nil {
		return err
	}
	defer closeServices(svc)

	sums, err := svc.Catalog.Summaries(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list stores: %w", err)
	}

	s := styles.DefaultStyles()
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(s.Theme().Border)).
		Headers("STORE", "PRODUCTS", "CATEGORIES").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Title.Padding(0, 1)
			}
			return s.Normal.Padding(0, 1)
		})
	for _, sum := range sums {
		t.Row(sum.Store, strconv.Itoa(sum.Products), strconv.Itoa(sum.Categories))
	}

	cmd.Println(t.String())
	return nil
}
