package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"salesdash/assets"
	"salesdash/internal/core"
	"salesdash/internal/loader"
	"salesdash/internal/log"
	"salesdash/internal/report"
)

const version = "0.1.0"

var (
	heading = color.New(color.FgCyan, color.Bold).SprintFunc()
	dimmed  = color.New(color.FgHiBlack).SprintFunc()
)

// CLIApp is the command-line front end over the same loader and report
// packages the web dashboard uses.
type CLIApp struct {
	rootCmd *cobra.Command
	loader  *loader.Loader
	now     func() time.Time

	regions    []string
	categories []string
	currency   string
}

// NewCLIApp builds the command tree.
func NewCLIApp(logger *log.Logger) *CLIApp {
	app := &CLIApp{
		loader: loader.New(loader.NewStore(1), logger),
		now:    time.Now,
	}

	rootCmd := &cobra.Command{
		Use:           "salesdash-cli",
		Short:         "Summarize and export sales CSV files",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringArrayVarP(&app.regions, "region", "r", nil, "Keep only rows in this region (repeatable)")
	rootCmd.PersistentFlags().StringArrayVarP(&app.categories, "category", "c", nil, "Keep only rows in this category (repeatable)")
	rootCmd.PersistentFlags().StringVar(&app.currency, "currency", report.DefaultCurrencySymbol, "Currency symbol for monetary values")

	summaryCmd := &cobra.Command{
		Use:   "summary [file]",
		Short: "Print headline totals and sales per category",
		Long:  "Print headline totals and sales per category. Without a file the embedded sample dataset is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  app.runSummary,
	}

	exportCmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the filtered rows to filtered_data.csv",
		Args:  cobra.MaximumNArgs(1),
		RunE:  app.runExport,
	}
	exportCmd.Flags().StringP("dir", "d", "", "Directory to write the export to (default: current directory)")
	exportCmd.Flags().Bool("pdf", false, "Also write a PDF summary")

	rootCmd.AddCommand(summaryCmd, exportCmd)
	app.rootCmd = rootCmd
	return app
}

// Execute runs the CLI application.
func (app *CLIApp) Execute() error {
	return app.rootCmd.Execute()
}

func (app *CLIApp) selection() core.FilterSelection {
	return core.FilterSelection{
		core.DimRegion:   app.regions,
		core.DimCategory: app.categories,
	}
}

func (app *CLIApp) load(ctx context.Context, args []string) (*core.Dataset, bool, error) {
	if len(args) == 0 {
		ds, err := app.loader.LoadBytes(ctx, assets.SampleCSV, assets.SampleName)
		return ds, true, err
	}
	ds, err := app.loader.LoadFile(ctx, args[0])
	return ds, false, err
}

func (app *CLIApp) runSummary(cmd *cobra.Command, args []string) error {
	ds, sample, err := app.load(cmd.Context(), args)
	if err != nil {
		return err
	}
	v := report.BuildView(ds, app.selection(), report.Options{
		CurrencySymbol: app.currency,
		UsingDefault:   sample,
	})
	return printSummary(cmd.OutOrStdout(), v)
}

func printSummary(w io.Writer, v report.View) error {
	fmt.Fprintln(w, heading(v.Title))
	fmt.Fprintln(w, dimmed("Source: "+v.Source))
	fmt.Fprintln(w)

	kpis := pterm.TableData{{"Metric", "Value"}}
	for _, k := range v.KPIs {
		kpis = append(kpis, []string{k.Label, k.Value})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(kpis).Srender()
	if err != nil {
		return fmt.Errorf("render totals: %w", err)
	}
	fmt.Fprintln(w, out)

	fmt.Fprintln(w)
	fmt.Fprintln(w, heading(fmt.Sprintf("Sales by category (%d of %d rows)", v.Summary.FilteredRows, v.Summary.FullRows)))
	if len(v.ByCategory) == 0 {
		fmt.Fprintln(w, dimmed("No rows match the selected filters."))
		return nil
	}

	cats := pterm.TableData{{"Category", "Sales"}}
	for _, c := range v.ByCategory {
		cats = append(cats, []string{c.Name, report.FormatCurrency(v.Currency, c.Sales)})
	}
	cats = append(cats, []string{"Total", report.FormatCurrency(v.Currency, v.Summary.Filtered.TotalSales)})
	out, err = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(cats).Srender()
	if err != nil {
		return fmt.Errorf("render categories: %w", err)
	}
	fmt.Fprintln(w, out)
	return nil
}

func (app *CLIApp) runExport(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	withPDF, _ := cmd.Flags().GetBool("pdf")

	dir, err := resolveDir(dir)
	if err != nil {
		return err
	}

	ds, sample, err := app.load(cmd.Context(), args)
	if err != nil {
		return err
	}
	sel := app.selection()
	filtered := core.Filter(ds.Rows, sel)

	csvPath := filepath.Join(dir, report.ExportFilename)
	if err := writeFile(csvPath, func(w io.Writer) error {
		return report.WriteCSV(w, ds.Header, filtered)
	}); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), pterm.Success.Sprintf("Wrote %d rows to %s", len(filtered), csvPath))

	if !withPDF {
		return nil
	}
	v := report.BuildView(ds, sel, report.Options{
		CurrencySymbol: app.currency,
		UsingDefault:   sample,
	})
	pdfPath := filepath.Join(dir, report.ExportPDFFilename)
	if err := writeFile(pdfPath, func(w io.Writer) error {
		return report.WritePDF(w, v, app.now())
	}); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), pterm.Success.Sprintf("Wrote summary to %s", pdfPath))
	return nil
}

// resolveDir defaults to the working directory and makes dir absolute.
func resolveDir(dir string) (string, error) {
	if dir == "" {
		return os.Getwd()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return abs, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
