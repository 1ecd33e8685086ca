package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/bitshop/salesdash/internal/app"
	"github.com/bitshop/salesdash/internal/sales"
	"github.com/bitshop/salesdash/internal/sales/export"
)

// App is the salesctl command tree.
type App struct {
	root *cobra.Command
	cfg  *app.Config

	csvPath  string
	encoding string
	filters  filterFlags
}

type filterFlags struct {
	products []string
	sellers  []string
	start    string
	end      string
}

// NewApp builds the command tree. Configuration defaults come from the same
// environment the server reads; flags override them.
func NewApp(cfg *app.Config) *App {
	if cfg == nil {
		cfg = &app.Config{CSVPath: "vendas.csv", CSVEncoding: "latin1", Filters: "product,seller", MultiSelect: true}
	}
	a := &App{cfg: cfg}

	root := &cobra.Command{
		Use:           "salesctl",
		Short:         "Operate on the sales dataset from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.csvPath, "csv", cfg.CSVPath, "Path to the sales CSV file")
	root.PersistentFlags().StringVar(&a.encoding, "encoding", cfg.CSVEncoding, "CSV text encoding: latin1, windows-1252 or utf-8")

	root.AddCommand(a.summaryCommand(), a.exportCommand(), a.jobsCommand())
	a.root = root
	return a
}

// Execute runs the command tree with os.Args.
func (a *App) Execute(ctx context.Context) error {
	return a.root.ExecuteContext(ctx)
}

// Command exposes the root command for embedding and tests.
func (a *App) Command() *cobra.Command {
	return a.root
}

func (a *App) bindFilters(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&a.filters.products, "produto", nil, "Products to keep (repeatable)")
	cmd.Flags().StringSliceVar(&a.filters.sellers, "vendedor", nil, "Sellers to keep (repeatable)")
	cmd.Flags().StringVar(&a.filters.start, "inicio", "", "First day of the range (YYYY-MM-DD or DD/MM/YYYY)")
	cmd.Flags().StringVar(&a.filters.end, "fim", "", "Last day of the range (YYYY-MM-DD or DD/MM/YYYY)")
}

func (a *App) load(ctx context.Context) (*sales.Service, error) {
	opts := a.cfg.LoadOptions()
	opts.Encoding = a.encoding
	ds, err := sales.LoadDataset(ctx, a.csvPath, opts)
	if err != nil {
		return nil, err
	}
	schema, err := a.cfg.Schema()
	if err != nil {
		return nil, err
	}
	return sales.NewService(ds, schema, nil), nil
}

func (a *App) criteria(service *sales.Service) (sales.Criteria, error) {
	criteria := service.DefaultCriteria()
	criteria.Products = a.filters.products
	criteria.Sellers = a.filters.sellers
	if a.filters.start != "" {
		t, err := sales.ParseDate(a.filters.start)
		if err != nil {
			return sales.Criteria{}, fmt.Errorf("--inicio: %w", err)
		}
		criteria.Start = t
	}
	if a.filters.end != "" {
		t, err := sales.ParseDate(a.filters.end)
		if err != nil {
			return sales.Criteria{}, fmt.Errorf("--fim: %w", err)
		}
		criteria.End = t
	}
	return criteria, nil
}

func (a *App) summaryCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the indicators and regional totals for a filter",
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			criteria, err := a.criteria(service)
			if err != nil {
				return err
			}
			view, err := service.BuildView(cmd.Context(), criteria)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view.Summary)
			}
			return renderSummary(cmd.OutOrStdout(), view.Summary)
		},
	}
	a.bindFilters(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

func renderSummary(w io.Writer, summary sales.Summary) error {
	ind := summary.Indicators
	cards := pterm.TableData{
		{"Indicador", "Valor"},
		{"Total de Vendas", sales.FormatCurrency(ind.Total)},
		{"Qtd. de Registros", sales.FormatCount(ind.Count)},
		{"Média por Venda", sales.FormatMean(ind.Mean)},
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(cards).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)

	if len(summary.ByRegion) == 0 {
		fmt.Fprintln(w, sales.NoDataPlaceholder)
		return nil
	}
	regions := pterm.TableData{{"Região", "Total"}}
	for _, g := range summary.ByRegion {
		regions = append(regions, []string{g.Key, sales.FormatCurrency(g.Sum)})
	}
	out, err = pterm.DefaultTable.WithHasHeader().WithData(regions).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)
	return nil
}

func (a *App) exportCommand() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered records to an .xlsx or .csv file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			criteria, err := a.criteria(service)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = a.cfg.ExportFilename
			}
			if outPath == "" {
				outPath = "vendas_filtradas.xlsx"
			}
			records := service.Filter(criteria)
			columns, roles := service.Dataset().Layout()

			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			switch strings.ToLower(filepath.Ext(outPath)) {
			case ".csv":
				err = export.WriteRecordsCSV(f, columns, roles, records)
			default:
				err = export.WriteXLSX(f, columns, roles, records)
			}
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d registros em %s\n", pterm.Success.Prefix.Text, len(records), outPath)
			return nil
		},
	}
	a.bindFilters(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (extension selects the format)")
	return cmd
}

func (a *App) jobsCommand() *cobra.Command {
	var redisAddr string
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Trigger and inspect background jobs",
	}
	cmd.PersistentFlags().StringVar(&redisAddr, "redis", a.cfg.RedisAddr, "Redis address")

	trigger := &cobra.Command{
		Use:   "trigger <task>",
		Short: "Enqueue a job by task name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobsCLI, err := NewJobsCLI(redisAddr)
			if err != nil {
				return err
			}
			defer func() { _ = jobsCLI.Close() }()
			info, err := jobsCLI.Trigger(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show the default queue counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobsCLI, err := NewJobsCLI(redisAddr)
			if err != nil {
				return err
			}
			defer func() { _ = jobsCLI.Close() }()
			s, err := jobsCLI.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			data := pterm.TableData{
				{"Fila", "Pendentes", "Ativos", "Agendados", "Retentativas"},
				{s.Queue, fmt.Sprint(s.Pending), fmt.Sprint(s.Active), fmt.Sprint(s.Scheduled), fmt.Sprint(s.Retry)},
			}
			out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.AddCommand(trigger, stats)
	return cmd
}
