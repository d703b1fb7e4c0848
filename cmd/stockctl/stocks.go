package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"stock-admin/internal/application/forms"
	"stock-admin/internal/client"
	"stock-admin/internal/domain"
	"stock-admin/internal/infrastructure/cache"
	"stock-admin/internal/pkg/validation"

	"github.com/spf13/cobra"
)

// stockFlags are text so type errors come from the same decoder the web form uses.
type stockFlags struct {
	values map[string]*string
}

var stockFlagNames = []struct{ flag, field, usage string }{
	{"name", "name", "stock name"},
	{"predicted-price", "predicted_price", "predicted price (integer)"},
	{"buying-price", "buying_price", "buying price (integer)"},
	{"selling-price", "selling_price", "selling price (integer)"},
	{"valuation", "valuation", "valuation"},
	{"timeframe", "timeframe", "timeframe"},
	{"organization-id", "organization_id", "organization id (empty for none)"},
}

func addStockFlags(cmd *cobra.Command) *stockFlags {
	sf := &stockFlags{values: map[string]*string{}}
	for _, f := range stockFlagNames {
		sf.values[f.flag] = cmd.Flags().String(f.flag, "", f.usage)
	}
	return sf
}

// fields returns every flag, or only the ones set on the command line when changedOnly.
func (sf *stockFlags) fields(cmd *cobra.Command, changedOnly bool) validation.Fields {
	out := validation.Fields{}
	for _, f := range stockFlagNames {
		if changedOnly && !cmd.Flags().Changed(f.flag) {
			continue
		}
		out[f.field] = *sf.values[f.flag]
	}
	return out
}

// overlay applies set fields on top of the draft loaded from the API.
func overlay(d domain.StockInput, f validation.Fields) (domain.StockInput, validation.Errors) {
	errs := validation.Errors{}
	if _, ok := f["name"]; ok {
		d.Name = f.String("name")
	}
	if _, ok := f["predicted_price"]; ok {
		d.PredictedPrice = f.Int("predicted_price", errs)
	}
	if _, ok := f["buying_price"]; ok {
		d.BuyingPrice = f.Int("buying_price", errs)
	}
	if _, ok := f["selling_price"]; ok {
		d.SellingPrice = f.Int("selling_price", errs)
	}
	if _, ok := f["valuation"]; ok {
		d.Valuation = f.String("valuation")
	}
	if _, ok := f["timeframe"]; ok {
		d.Timeframe = f.String("timeframe")
	}
	if _, ok := f["organization_id"]; ok {
		d.OrganizationID = f.NullableString("organization_id")
	}
	return d, errs
}

func reportResult(w io.Writer, res forms.StockResult) error {
	if res.OK() {
		return printJSON(w, res.Record)
	}
	if len(res.Fields) > 0 {
		fields := make([]string, 0, len(res.Fields))
		for field := range res.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(w, "%s: %s\n", field, res.Fields[field])
		}
		return res.Fields
	}
	return res.Err
}

func newStocksCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "stocks", Short: "Create, inspect and update stocks"}
	cmd.AddCommand(newStocksCreateCmd(opts), newStocksGetCmd(opts), newStocksUpdateCmd(opts), newStocksListCmd(opts))
	return cmd
}

func newStocksCreateCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "create", Short: "Create a stock"}
	sf := addStockFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		fields := sf.fields(cmd, false)
		// Validate before requiring a session so bad input never needs the network.
		d, decodeErrs := validation.DecodeStock(fields)
		if errs := validation.Check(validation.StockSchema, d, decodeErrs); len(errs) > 0 {
			return reportResult(cmd.ErrOrStderr(), forms.StockResult{Fields: errs})
		}
		c, err := opts.authed()
		if err != nil {
			return err
		}
		form := forms.NewStockCreateForm(forms.StockAccessor{Client: c}, "")
		form.Bind(fields)
		return reportResult(cmd.OutOrStdout(), form.Submit(cmd.Context()))
	}
	return cmd
}

func newStocksGetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.authed()
			if err != nil {
				return err
			}
			stock, err := c.GetStockByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stock)
		},
	}
}

func newStocksUpdateCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "update <id>", Short: "Change fields of a stock", Args: cobra.ExactArgs(1)}
	sf := addStockFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		c, err := opts.authed()
		if err != nil {
			return err
		}
		form := forms.NewStockEditForm(forms.StockAccessor{Client: c}, cache.NewMemory(), args[0])
		if err := form.Load(cmd.Context()); err != nil {
			return err
		}
		d, errs := overlay(form.View().Draft, sf.fields(cmd, true))
		if len(errs) > 0 {
			return reportResult(cmd.ErrOrStderr(), forms.StockResult{Fields: errs})
		}
		form.SetDraft(d)
		return reportResult(cmd.OutOrStdout(), form.Submit(cmd.Context()))
	}
	return cmd
}

func newStocksListCmd(opts *globalOptions) *cobra.Command {
	var q client.StockQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stocks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.authed()
			if err != nil {
				return err
			}
			stocks, total, err := c.ListStocks(cmd.Context(), q)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPREDICTED\tBUYING\tSELLING\tVALUATION\tTIMEFRAME")
			for _, s := range stocks {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
					s.ID, s.Name, s.PredictedPrice, s.BuyingPrice, s.SellingPrice, s.Valuation, s.Timeframe)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d\n", len(stocks), total)
			return nil
		},
	}
	cmd.Flags().StringVar(&q.Name, "name", "", "name contains")
	cmd.Flags().StringVar(&q.Valuation, "valuation", "", "exact valuation")
	cmd.Flags().StringVar(&q.Timeframe, "timeframe", "", "exact timeframe")
	cmd.Flags().StringVar(&q.OrganizationID, "organization-id", "", "organization id")
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.Limit, "limit", 25, "page size")
	return cmd
}

func newOrgsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "orgs", Short: "Organizations"}
	var search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List organizations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.authed()
			if err != nil {
				return err
			}
			orgs, err := c.GetOrganizations(cmd.Context(), search)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, o := range orgs {
				fmt.Fprintf(tw, "%s\t%s\n", o.ID, o.Name)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVarP(&search, "query", "q", "", "name contains")
	cmd.AddCommand(list)
	return cmd
}
