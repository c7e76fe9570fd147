package ctl

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"santiye/internal/core"
)

type checksCmd struct {
	output
	dbFlag
	from string
	days int
}

func (*checksCmd) Name() string     { return "checks" }
func (*checksCmd) Synopsis() string { return "list the checks falling due in the coming days" }
func (*checksCmd) Usage() string {
	return `santiyectl checks [-db <path>] [-from <YYYY-MM-DD>] [-days <n>]

  Lists stored invoices whose check falls due between -from (today by
  default) and -days later, with the amount due and a grand total.
`
}

func (c *checksCmd) SetFlags(f *flag.FlagSet) {
	c.setDBFlag(f)
	f.StringVar(&c.from, "from", "", "First day of the window (defaults to today).")
	f.IntVar(&c.days, "days", 30, "Length of the window in days.")
}

func (c *checksCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	from := core.DateOf(time.Now())
	if c.from != "" {
		d, err := core.ParseDate(c.from)
		if err != nil {
			return failf("%v", err)
		}
		from = d
	}
	if c.days < 0 {
		return usageError(f, "-days must not be negative")
	}
	to := from.AddDays(c.days)

	repo, err := c.open()
	if err != nil {
		return failf("%v", err)
	}
	defer repo.Close()

	checks, err := repo.ListChecksDue(ctx, from, to)
	if err != nil {
		return failf("%v", err)
	}

	tw := c.table()
	fmt.Fprintln(tw, "Vade\tKalan Gün\tFatura No\tTedarikçi\tTutar")
	totals := map[string]float64{}
	var currencies []string
	for _, ch := range checks {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			ch.DueDate.Locale(), from.DaysUntil(ch.DueDate), ch.Number, ch.Supplier,
			core.FormatAmount(ch.Amount, ch.Currency))
		if _, seen := totals[ch.Currency]; !seen {
			currencies = append(currencies, ch.Currency)
		}
		totals[ch.Currency] += ch.Amount
	}
	for _, cur := range currencies {
		fmt.Fprintf(tw, "Toplam\t\t\t\t%s\n", core.FormatAmount(totals[cur], cur))
	}
	tw.Flush()

	if len(checks) == 0 {
		fmt.Fprintf(c.w(), "no checks due between %s and %s\n", from, to)
	}
	return subcommands.ExitSuccess
}
