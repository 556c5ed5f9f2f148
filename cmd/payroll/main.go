package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"github.com/paystream/payroll/internal/ach"
	"github.com/paystream/payroll/internal/calculation"
	"github.com/paystream/payroll/internal/config"
	"github.com/paystream/payroll/internal/domain"
	"github.com/paystream/payroll/internal/output"
	"github.com/paystream/payroll/internal/store"
)

// simpleCLILogger implements calculation.Logger using the standard log package
type simpleCLILogger struct{}

func (simpleCLILogger) Debugf(format string, args ...any) { log.Printf("DEBUG: "+format, args...) }
func (simpleCLILogger) Infof(format string, args ...any)  { log.Printf("INFO: "+format, args...) }
func (simpleCLILogger) Warnf(format string, args ...any)  { log.Printf("WARN: "+format, args...) }
func (simpleCLILogger) Errorf(format string, args ...any) { log.Printf("ERROR: "+format, args...) }

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stdout, "payroll %s (commit %s, built %s)\n", version, commit, date)
			if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
				fmt.Fprintln(os.Stdout, bi.Main.Path)
			}
		},
	}
}

var rootCmd = &cobra.Command{
	Use:   "payroll",
	Short: "Payroll gross-to-net and ACH disbursement engine",
	Long:  "Calculates gross-to-net payroll runs from a YAML input file and generates bank-submittable NACHA files",
}

// stores bundles the four store interfaces behind one close handle. seedStores
// loads the run input into an in-memory store, or a SQLite-backed one when
// --db is given.
type stores struct {
	employees store.EmployeeStore
	entries   store.TimeEntryStore
	ytd       store.YTDStore
	runs      store.RunStore
	close     func() error
}

func seedStores(ctx context.Context, input *config.RunInput, dbPath string) (*stores, error) {
	var s *stores
	if dbPath != "" {
		db, err := store.NewSqlite(dbPath)
		if err != nil {
			return nil, err
		}
		s = &stores{employees: db, entries: db, ytd: db, runs: db, close: db.Close}
	} else {
		mem := store.NewMemory()
		s = &stores{employees: mem, entries: mem, ytd: mem, runs: mem, close: func() error { return nil }}
	}

	for _, e := range input.Employees {
		if err := s.employees.PutEmployee(ctx, e); err != nil {
			return nil, fmt.Errorf("seeding employee %s: %w", e.ID, err)
		}
	}
	for _, t := range input.TimeEntries {
		if err := s.entries.PutEntry(ctx, t); err != nil {
			return nil, fmt.Errorf("seeding time entry %s: %w", t.ID, err)
		}
	}
	for id, f := range input.YTD {
		if err := s.ytd.PutFigures(ctx, id, store.YTDFigures{GrossWages: f.GrossWages, Deductions: f.Deductions}); err != nil {
			return nil, fmt.Errorf("seeding ytd for %s: %w", id, err)
		}
	}
	return s, nil
}

func buildProcessor(input *config.RunInput, s *stores, debugMode bool) *calculation.Processor {
	p := calculation.NewProcessor(s.employees, s.entries, s.ytd)
	if input.Taxes != nil {
		fed := calculation.FederalConfig{
			SSWageBase:     input.Taxes.SSWageBase,
			SSRate:         input.Taxes.SSRate,
			MedicareRate:   input.Taxes.MedicareRate,
			AdditionalRate: input.Taxes.AdditionalRate,
		}
		p.Taxes = calculation.NewTaxEngineWithConfig(fed, input.Taxes.FlatStateRates)
		if !input.Taxes.DefaultStateRate.IsZero() {
			p.Taxes.State.DefaultRate = input.Taxes.DefaultStateRate
		}
	}
	if debugMode {
		p.SetLogger(simpleCLILogger{})
	}
	return p
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [input-file]",
		Short: "Calculate a payroll run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			input, err := config.NewInputParser().LoadFromFile(args[0])
			if err != nil {
				return err
			}
			dbPath, _ := cmd.Flags().GetString("db")
			debugMode, _ := cmd.Flags().GetBool("debug")
			s, err := seedStores(ctx, input, dbPath)
			if err != nil {
				return err
			}
			defer s.close()

			processor := buildProcessor(input, s, debugMode)
			run, err := processor.ProcessRun(ctx, input.Period, input.Bonuses)
			if err != nil {
				return err
			}

			if approver, _ := cmd.Flags().GetString("approve"); approver != "" && run.Status == domain.RunPendingApproval {
				if err := run.Approve(approver, time.Now().UTC()); err != nil {
					return err
				}
			}
			if err := s.runs.SaveRun(ctx, run); err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			f := output.GetFormatterByName(format)
			if f == nil {
				return fmt.Errorf("unknown output format %q", format)
			}
			data, err := f.Format(run)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
	cmd.Flags().String("format", "console", "output format: console, json, csv")
	cmd.Flags().String("approve", "", "approve the run as this actor when it is clean")
	cmd.Flags().String("db", "", "persist inputs and runs to this SQLite file")
	cmd.Flags().Bool("debug", false, "log per-employee calculation details")
	return cmd
}

func nachaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nacha [input-file]",
		Short: "Calculate, approve and emit a NACHA direct-deposit file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			approver, _ := cmd.Flags().GetString("approved-by")
			if approver == "" {
				return fmt.Errorf("--approved-by is required: ACH files are only generated from approved runs")
			}
			input, err := config.NewInputParser().LoadFromFile(args[0])
			if err != nil {
				return err
			}
			dbPath, _ := cmd.Flags().GetString("db")
			debugMode, _ := cmd.Flags().GetBool("debug")
			s, err := seedStores(ctx, input, dbPath)
			if err != nil {
				return err
			}
			defer s.close()

			processor := buildProcessor(input, s, debugMode)
			run, err := processor.ProcessRun(ctx, input.Period, input.Bonuses)
			if err != nil {
				return err
			}
			if run.Status != domain.RunPendingApproval {
				fmt.Fprintln(os.Stderr, run.Summary())
				for _, e := range run.Errors {
					fmt.Fprintln(os.Stderr, "  "+e)
				}
				return fmt.Errorf("run is %s, not %s", run.Status, domain.RunPendingApproval)
			}
			if err := run.Approve(approver, time.Now().UTC()); err != nil {
				return err
			}

			employees := make(map[string]domain.Employee, len(input.Employees))
			for _, e := range input.Employees {
				employees[e.ID] = e
			}
			batch, warnings, err := ach.BuildBatch(run, employees, input.Company, 1)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				fmt.Fprintln(os.Stderr, "WARNING: "+w.String())
			}

			if err := run.BeginProcessing(); err != nil {
				return err
			}
			gen := ach.NewGenerator()
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				text, err := gen.Generate(batch)
				if err != nil {
					return err
				}
				fmt.Fprint(os.Stdout, text)
			} else if err := gen.Save(batch, out); err != nil {
				return err
			}
			if err := run.Complete(); err != nil {
				return err
			}
			if err := s.runs.SaveRun(ctx, run); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, run.Summary())
			return nil
		},
	}
	cmd.Flags().String("approved-by", "", "authorized actor approving the run")
	cmd.Flags().String("out", "", "write the NACHA file here instead of stdout")
	cmd.Flags().String("db", "", "persist inputs and runs to this SQLite file")
	cmd.Flags().Bool("debug", false, "log per-employee calculation details")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [input-file]",
		Short: "Validate a run input file without calculating anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := config.NewInputParser().LoadFromFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "OK: %d employees, %d time entries, period %s to %s\n",
				len(input.Employees), len(input.TimeEntries),
				input.Period.Start.Format("2006-01-02"), input.Period.End.Format("2006-01-02"))
			return nil
		},
	}
}

func main() {
	rootCmd.AddCommand(runCmd(), nachaCmd(), validateCmd(), versionCmd())
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
