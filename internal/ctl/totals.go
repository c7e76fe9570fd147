package ctl

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/subcommands"

	"santiye/internal/cli"
	"santiye/internal/config"
	"santiye/internal/core"
	"santiye/internal/invoice"
	"santiye/internal/services"
)

type totalsCmd struct {
	output
	taxRate    float64
	splitA     float64
	permissive bool
	asJSON     bool
}

func (*totalsCmd) Name() string     { return "totals" }
func (*totalsCmd) Synopsis() string { return "compute the totals, party shares and check due date of an invoice" }
func (*totalsCmd) Usage() string {
	return `santiyectl totals [-tax <rate>] [-split-a <ratio>] [-permissive] [-json] <invoice.json | ->

  Reads an invoice draft (the POST /api/invoices body) and prints its
  subtotal, VAT, grand total, the share of each party and the date the
  check falls due. Nothing is stored.
`
}

func (c *totalsCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.taxRate, "tax", -1, "VAT rate override, e.g. 0.20. Defaults to the draft's rate or TAX_RATE.")
	f.Float64Var(&c.splitA, "split-a", -1, "Party A ratio of shared lines; party B gets the rest. Defaults to the draft's split or SHARED_SPLIT_A/B.")
	f.BoolVar(&c.permissive, "permissive", false, "Zero invalid numbers instead of rejecting the invoice.")
	f.BoolVar(&c.asJSON, "json", false, "Print the computed invoice as JSON.")
}

func (c *totalsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(f, "totals takes exactly one invoice file")
	}

	draft, err := readDraft(f.Arg(0))
	if err != nil {
		return failf("%v", err)
	}
	if c.taxRate >= 0 {
		rate := c.taxRate
		draft.TaxRate = &rate
	}
	if c.splitA >= 0 {
		draft.Split = &core.SharedSplit{PartyA: c.splitA, PartyB: 1 - c.splitA}
	}

	cfg := cli.InvoiceConfig(config.Load())
	if c.permissive {
		cfg.Mode = invoice.Permissive
	}
	inv, err := services.NewInvoiceService(nil, nil, nil, cfg, nil).Preview(draft)
	if err != nil {
		return failf("%v", err)
	}

	if c.asJSON {
		enc := json.NewEncoder(c.w())
		enc.SetIndent("", "  ")
		if err := enc.Encode(inv); err != nil {
			return failf("%v", err)
		}
		return subcommands.ExitSuccess
	}

	printInvoice(c.output, inv)
	return subcommands.ExitSuccess
}

func readDraft(path string) (core.InvoiceDraft, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return core.InvoiceDraft{}, err
		}
		defer f.Close()
		r = f
	}

	var draft core.InvoiceDraft
	if err := json.NewDecoder(r).Decode(&draft); err != nil {
		return core.InvoiceDraft{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return draft, nil
}

func printInvoice(o output, inv core.Invoice) {
	money := func(v float64) string { return core.FormatAmount(v, inv.Currency) }

	tw := o.table()
	fmt.Fprintf(tw, "Fatura\t%s\n", inv.Number)
	fmt.Fprintf(tw, "Tedarikçi\t%s\n", inv.Supplier)
	fmt.Fprintf(tw, "Tarih\t%s\n", inv.Date.Locale())
	fmt.Fprintf(tw, "Çek vadesi\t%s\n", inv.DueDate.Locale())
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Ürün\tMiktar\tBirim Fiyat\tTutar\tPay")
	for _, it := range inv.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			it.ProductID,
			strconv.FormatFloat(it.Quantity, 'f', -1, 64),
			money(it.UnitPrice),
			money(it.Quantity*it.UnitPrice),
			it.Allocation)
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Ara Toplam\t%s\n", money(inv.Totals.Subtotal))
	fmt.Fprintf(tw, "KDV (%%%s)\t%s\n", strconv.FormatFloat(inv.TaxRate*100, 'f', -1, 64), money(inv.Totals.TaxAmount))
	fmt.Fprintf(tw, "Genel Toplam\t%s\n", money(inv.Totals.GrandTotal))
	fmt.Fprintf(tw, "A Payı\t%s\n", money(inv.Totals.PartyAShare))
	fmt.Fprintf(tw, "B Payı\t%s\n", money(inv.Totals.PartyBShare))
	tw.Flush()
}

type dueCmd struct {
	output
}

func (*dueCmd) Name() string     { return "due" }
func (*dueCmd) Synopsis() string { return "print the check due date for an invoice date" }
func (*dueCmd) Usage() string {
	return `santiyectl due <YYYY-MM-DD>

  Prints the date the check for an invoice issued on the given day falls
  due, 120 calendar days later.
`
}

func (*dueCmd) SetFlags(*flag.FlagSet) {}

func (c *dueCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(f, "due takes exactly one date")
	}
	d, err := core.ParseDate(f.Arg(0))
	if err != nil {
		return failf("%v", err)
	}
	due := invoice.DueDate(d)
	fmt.Fprintf(c.w(), "%s\t%s\n", due.String(), due.Locale())
	return subcommands.ExitSuccess
}
