package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	orderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	tagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// listCmd prints every hidden-order record in the store.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List hidden orders and their tags",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.GetAllHiddenOrders(cmd.Context())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println(dimStyle.Render("no hidden orders"))
		return nil
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%d hidden order(s)", len(records))))
	for _, rec := range records {
		line := orderStyle.Render(rec.OrderID)
		if len(rec.OrderData.Tags) > 0 {
			line += "  " + tagStyle.Render(strings.Join(rec.OrderData.Tags, ", "))
		}
		line += "  " + dimStyle.Render(fmt.Sprintf("by %s at %s",
			rec.Username, rec.HiddenAt.Format("2006-01-02 15:04")))
		fmt.Println(line)
		if rec.OrderData.Notes != "" {
			fmt.Println("  " + dimStyle.Render(rec.OrderData.Notes))
		}
	}
	return nil
}
