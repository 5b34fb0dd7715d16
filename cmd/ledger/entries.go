package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerly/finance-tracker/pkg/client"
)

func (a *app) addCmd() *cobra.Command {
	var e client.NewEntry
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an earning or an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if e.Date == "" {
				e.Date = time.Now().Format(time.DateOnly)
			}
			created, err := a.client.CreateEntry(cmd.Context(), e)
			if err != nil {
				return err
			}
			a.success("Added %s %s %.2f (%s).", created.Type, created.Category, created.Amount, created.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&e.Type, "type", "expense", "earning or expense")
	f.StringVar(&e.Category, "category", "", "Category, e.g. Groceries or Salary")
	f.Float64Var(&e.Amount, "amount", 0, "Amount")
	f.StringVar(&e.Date, "date", "", "Date as YYYY-MM-DD (default today)")
	f.StringVar(&e.Time, "time", "", "Time of day, e.g. 9:30 AM")
	f.StringVar(&e.Description, "description", "", "Free-text note")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := a.client.ListEntries(cmd.Context())
			if err != nil {
				return err
			}
			a.printEntries(entries)
			return nil
		},
	}
}

func (a *app) updateCmd() *cobra.Command {
	var (
		date, tod, typ, category, description string
		amount                                float64
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch client.EntryPatch
			f := cmd.Flags()
			if f.Changed("date") {
				patch.Date = &date
			}
			if f.Changed("time") {
				patch.Time = &tod
			}
			if f.Changed("type") {
				patch.Type = &typ
			}
			if f.Changed("category") {
				patch.Category = &category
			}
			if f.Changed("amount") {
				patch.Amount = &amount
			}
			if f.Changed("description") {
				patch.Description = &description
			}
			if patch == (client.EntryPatch{}) {
				return fmt.Errorf("nothing to update, pass at least one field flag")
			}

			updated, err := a.client.UpdateEntry(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			a.success("Updated %s.", updated.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&date, "date", "", "Date as YYYY-MM-DD")
	f.StringVar(&tod, "time", "", "Time of day, e.g. 9:30 AM")
	f.StringVar(&typ, "type", "", "earning or expense")
	f.StringVar(&category, "category", "", "Category")
	f.Float64Var(&amount, "amount", 0, "Amount")
	f.StringVar(&description, "description", "", "Free-text note")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.DeleteEntry(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.success("Deleted %s.", args[0])
			return nil
		},
	}
}

func (a *app) printEntries(entries []client.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(a.out, a.styles.subtle.Render("No entries."))
		return
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tDATE\tTIME\tTYPE\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID,
			e.Date.UTC().Format(time.DateOnly),
			e.Time,
			e.Type,
			e.Category,
			a.amount(e.Type, e.Amount),
			e.Description,
		)
	}
	_ = tw.Flush()
}

// amount colours earnings and expenses differently. Colours are dropped when
// the output is not a terminal.
func (a *app) amount(entryType string, v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if entryType == "earning" {
		return a.styles.income.Render(s)
	}
	return a.styles.expense.Render(s)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}
