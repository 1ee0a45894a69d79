package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/mrlokans/library-manager/internal/config"
	"github.com/mrlokans/library-manager/internal/database/reports"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true).MarginBottom(1)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// Ranker is the subset of the reports repository the command reads.
type Ranker interface {
	MostPopularBooks(ctx context.Context, topN int) ([]reports.BookCount, error)
	MostPopularAuthors(ctx context.Context, topN int) ([]reports.AuthorCount, error)
	MostPopularCategories(ctx context.Context, topN int) ([]reports.CategoryCount, error)
}

func newReportCommand(rt *Runtime) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:       "report books|authors|categories",
		Short:     "Print the most borrowed books, authors or categories",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"books", "authors", "categories"},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			out, err := renderReport(cmd.Context(), app.Reports, args[0], top)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&top, "top", "n", config.DefaultTopN, "Number of entries to show")
	return cmd
}

// renderReport runs the named ranking and formats it as a table.
func renderReport(ctx context.Context, r Ranker, kind string, top int) (string, error) {
	var (
		title   string
		headers []string
		rows    [][]string
	)

	switch kind {
	case "books":
		ranked, err := r.MostPopularBooks(ctx, top)
		if err != nil {
			return "", err
		}
		title = "Most borrowed books"
		headers = []string{"#", "Title", "ISBN", "Borrows"}
		for i, entry := range ranked {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				entry.Book.Title,
				entry.Book.ISBN,
				strconv.FormatInt(entry.BorrowCount, 10),
			})
		}
	case "authors":
		ranked, err := r.MostPopularAuthors(ctx, top)
		if err != nil {
			return "", err
		}
		title = "Most borrowed authors"
		headers = []string{"#", "Author", "Borrows"}
		for i, entry := range ranked {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				strings.TrimSpace(entry.Author.FirstName + " " + entry.Author.SecondName),
				strconv.FormatInt(entry.BorrowCount, 10),
			})
		}
	case "categories":
		ranked, err := r.MostPopularCategories(ctx, top)
		if err != nil {
			return "", err
		}
		title = "Most borrowed categories"
		headers = []string{"#", "Category", "Borrows"}
		for i, entry := range ranked {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				entry.Category.CategoryName,
				strconv.FormatInt(entry.BorrowCount, 10),
			})
		}
	default:
		return "", fmt.Errorf("unknown report %q", kind)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)

	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), t.Render()), nil
}
