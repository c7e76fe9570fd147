package ctl

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"santiye/internal/core"
	"santiye/internal/export"
	"santiye/internal/pricematrix"
)

type matrixCmd struct {
	output
	dbFlag
	groupByDate bool
	filter      string
	xlsxPath    string
}

func (*matrixCmd) Name() string     { return "matrix" }
func (*matrixCmd) Synopsis() string { return "print or export the price comparison matrix" }
func (*matrixCmd) Usage() string {
	return `santiyectl matrix [-db <path>] [-group-by-date] [-q <filter>] [-o <file.xlsx>]

  Pivots the stored price quotes into a product by firm grid. The cheapest
  price of each row is marked with '*'. With -o the grid is written as an
  Excel workbook instead.
`
}

func (c *matrixCmd) SetFlags(f *flag.FlagSet) {
	c.setDBFlag(f)
	f.BoolVar(&c.groupByDate, "group-by-date", false, "Give every quote date its own row.")
	f.StringVar(&c.filter, "q", "", "Only keep rows whose product, detail or date contains this text.")
	f.StringVar(&c.xlsxPath, "o", "", "Write an .xlsx workbook to this path.")
}

func (c *matrixCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	repo, err := c.open()
	if err != nil {
		return failf("%v", err)
	}
	defer repo.Close()

	quotes, err := repo.ListQuotes(ctx)
	if err != nil {
		return failf("%v", err)
	}
	m := pricematrix.Builder{GroupByDate: c.groupByDate, Filter: c.filter}.Build(quotes)

	if c.xlsxPath != "" {
		f, err := os.Create(c.xlsxPath)
		if err != nil {
			return failf("%v", err)
		}
		if err := export.WriteMatrixXLSX(f, m); err != nil {
			f.Close()
			return failf("%v", err)
		}
		if err := f.Close(); err != nil {
			return failf("%v", err)
		}
		fmt.Fprintf(c.w(), "wrote %d rows to %s\n", len(m.Rows), c.xlsxPath)
		return subcommands.ExitSuccess
	}

	printMatrix(c.output, m)
	return subcommands.ExitSuccess
}

func printMatrix(o output, m pricematrix.Matrix) {
	tw := o.table()
	header := []string{"Ürün", "Detay"}
	if hasDates(m) {
		header = append(header, "Tarih")
	}
	header = append(header, m.Firms...)
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, r := range m.Rows {
		cols := []string{r.Product, r.Detail}
		if hasDates(m) {
			date := ""
			if r.Date != nil {
				date = r.Date.Locale()
			}
			cols = append(cols, date)
		}
		for _, firm := range m.Firms {
			cell, ok := r.Cell(firm)
			switch {
			case !ok:
				cols = append(cols, "-")
			case cell.IsMin:
				cols = append(cols, core.FormatAmount(cell.Price, cell.Currency)+" *")
			default:
				cols = append(cols, core.FormatAmount(cell.Price, cell.Currency))
			}
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	tw.Flush()
}

func hasDates(m pricematrix.Matrix) bool {
	for _, r := range m.Rows {
		if r.Date != nil {
			return true
		}
	}
	return false
}
