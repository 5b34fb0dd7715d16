package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ledgerly/finance-tracker/pkg/client"
)

func (a *app) monthlyCmd() *cobra.Command {
	var q client.MonthlyQuery
	cmd := &cobra.Command{
		Use:     "monthly <year> <month>",
		Short:   "Entries of one month, optionally filtered",
		Example: "  ledger monthly 2025 January --type expense --sort desc",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := parseYear(args[0])
			if err != nil {
				return err
			}
			entries, err := a.client.Monthly(cmd.Context(), year, args[1], q)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, a.styles.title.Render(fmt.Sprintf("%s %d", args[1], year)))
			a.printEntries(entries)
			if len(entries) > 0 {
				var in, out float64
				for _, e := range entries {
					if e.Type == "earning" {
						in += e.Amount
					} else {
						out += e.Amount
					}
				}
				fmt.Fprintf(a.out, "\nEarnings %s  Expenditures %s  Balance %.2f\n",
					a.amount("earning", in), a.amount("expense", out), in-out)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.Type, "type", "", "earning or expense")
	f.StringVar(&q.Category, "category", "", "Exact category, case-insensitive")
	f.StringVar(&q.Description, "search", "", "Substring of the description")
	f.StringVar(&q.SortOrder, "sort", "", "asc or desc by date")
	return cmd
}

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <year>",
		Short: "Month-by-month totals for a year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := parseYear(args[0])
			if err != nil {
				return err
			}
			s, err := a.client.Summary(cmd.Context(), year)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, a.styles.title.Render(fmt.Sprintf("Summary %d", s.Year)))
			tw := newTable(a.out)
			fmt.Fprintln(tw, "MONTH\tEARNINGS\tEXPENDITURES\tBALANCE")
			for _, m := range s.Months {
				fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\n", m.Month, m.Earnings, m.Expenditures, m.Balance)
			}
			fmt.Fprintf(tw, "TOTAL\t%.2f\t%.2f\t%.2f\n", s.Earnings, s.Expenditures, s.Balance)
			return tw.Flush()
		},
	}
}

func (a *app) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Suggested categories per entry type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client.Categories(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, a.styles.title.Render("expense")+"  "+strings.Join(c.Expense, ", "))
			fmt.Fprintln(a.out, a.styles.title.Render("earning")+"  "+strings.Join(c.Earning, ", "))
			return nil
		},
	}
}

func parseYear(raw string) (int, error) {
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return year, nil
}
