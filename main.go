package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/giygas/pediatric-drug-calculator/client"
	"github.com/giygas/pediatric-drug-calculator/config"
	"github.com/giygas/pediatric-drug-calculator/handlers"
	"github.com/giygas/pediatric-drug-calculator/health"
	"github.com/giygas/pediatric-drug-calculator/logging"
	"github.com/giygas/pediatric-drug-calculator/lookup"
	"github.com/giygas/pediatric-drug-calculator/scheduler"
	"github.com/giygas/pediatric-drug-calculator/seed"
	"github.com/giygas/pediatric-drug-calculator/server"
	"github.com/giygas/pediatric-drug-calculator/shell"
	"github.com/giygas/pediatric-drug-calculator/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	verbose bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pediatric-drug-calculator",
		Short:         "Pediatric drug dosage reference and weight-based calculator",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to the console")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(calcCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(auditCmd())
	return rootCmd
}

// setup loads .env, the configuration and the global logger
func setup() error {
	loadDotEnv()

	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}

	logging.InitLogger(logging.Options{
		Dir:            cfg.LogDir,
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		Verbose:        verbose,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	return nil
}

// loadDotEnv reads .env from the working directory, then from the
// executable's directory. A missing file is not an error.
func loadDotEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}

	ex, err := os.Executable()
	if err != nil {
		return
	}
	_ = godotenv.Load(filepath.Join(filepath.Dir(ex), ".env"))
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and web interface (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logging.Error("Failed to open catalog", "error", err)
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logging.Error("Failed to close catalog", "error", err)
		}
	}()

	if cfg.AutoSeed {
		seeded, err := seed.NewSeeder(store).SeedIfEmpty(ctx)
		if err != nil {
			logging.Error("Auto seed failed", "error", err)
			return err
		}
		if seeded {
			logging.Info("Catalog seeded on startup")
		}
	}

	sched := scheduler.NewScheduler(store, cfg.AuditInterval)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		return err
	}
	defer sched.Stop()

	checker := health.NewHealthChecker(store, sched, cfg.AuditInterval)
	srv := server.NewServer(cfg, handlers.NewHTTPHandler(store, checker))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			logging.Error("Server failed to start", "error", err)
			return err
		}
		return nil
	case <-quit:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func seedCmd() *cobra.Command {
	var (
		bodySystems []string
		systemsOnly bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Reload the medical systems and the literal drug data",
		Long: "Without flags, clears the catalog and seeds every body system.\n" +
			"Seeding a body system twice duplicates its drugs.\n" +
			"Body systems: " + strings.Join(bodySystemNames(), ", "),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			seeder := seed.NewSeeder(store)
			out := cmd.OutOrStdout()

			switch {
			case systemsOnly:
				count, err := seeder.SeedSystems(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s (%d)\n", seed.SystemsMessage, count)
				return nil

			case len(bodySystems) > 0:
				for _, name := range bodySystems {
					res, err := seeder.SeedBodySystem(ctx, name)
					if err != nil {
						return err
					}
					printSeedResult(out, res)
				}
				return nil
			}

			results, err := seeder.SeedAll(ctx)
			for _, res := range results {
				printSeedResult(out, res)
			}
			return err
		},
	}

	cmd.Flags().StringSliceVarP(&bodySystems, "body-system", "b", nil, "seed only these body systems (repeatable)")
	cmd.Flags().BoolVar(&systemsOnly, "systems-only", false, "clear the catalog and reload the medical systems only")
	return cmd
}

func bodySystemNames() []string {
	names := make([]string, len(seed.BodySystems))
	for i, bs := range seed.BodySystems {
		names[i] = bs.Name
	}
	return names
}

func printSeedResult(w io.Writer, res seed.Result) {
	fmt.Fprintf(w, "%s: %d drugs, %d dosages\n", res.Message, res.DrugsCreated, res.DosagesCreated)
}

func calcCmd() *cobra.Command {
	var (
		systemID string
		drug     string
		weight   string
		share    bool
		notify   bool
	)

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate a dose from the terminal",
		Long: "Selects a medical system and a drug, then calculates the dose for a weight.\n" +
			"Uses API_BASE_URL when set, otherwise the local catalog.",
		Example: "  pediatric-drug-calculator calc --system 10 --drug Amoxicillin --weight 15",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var source shell.Lookup
			if cfg.APIBaseURL != "" {
				source = client.New(cfg.APIBaseURL)
			} else {
				store, closeStore, err := openLocalCatalog(ctx, cfg)
				if err != nil {
					return err
				}
				defer closeStore()
				source = lookup.NewService(store)
			}

			hist, closeHistory, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeHistory()

			out := cmd.OutOrStdout()
			p := shell.NewProgram(source, hist, newNotifier(cfg), func(_ context.Context, text string) error {
				_, err := fmt.Fprintln(out, text)
				return err
			})

			return runCalculation(ctx, p, out, calcInput{
				SystemID: systemID,
				Drug:     drug,
				Weight:   weight,
				Share:    share,
				Notify:   notify,
			})
		},
	}

	cmd.Flags().StringVarP(&systemID, "system", "s", "", "medical system id")
	cmd.Flags().StringVarP(&drug, "drug", "d", "", "drug id or name")
	cmd.Flags().StringVarP(&weight, "weight", "w", "", "patient weight in kg")
	cmd.Flags().BoolVar(&share, "share", false, "print the share text of a computed dose")
	cmd.Flags().BoolVar(&notify, "notify", false, "send a notification for a computed dose")
	_ = cmd.MarkFlagRequired("system")
	_ = cmd.MarkFlagRequired("drug")
	_ = cmd.MarkFlagRequired("weight")
	return cmd
}

type calcInput struct {
	SystemID string
	Drug     string
	Weight   string
	Share    bool
	Notify   bool
}

var errDrugNotFound = errors.New("drug not found")

// runCalculation drives the shell through one calculation and prints the
// calculator view
func runCalculation(ctx context.Context, p *shell.Program, out io.Writer, in calcInput) error {
	p.Dispatch(ctx, shell.Init{})
	if in.Notify {
		p.Dispatch(ctx, shell.NotificationPermission{Granted: true})
	}

	state := p.Dispatch(ctx, shell.SystemSelected{SystemID: in.SystemID})
	drugID, ok := resolveDrug(state, in.Drug)
	if !ok {
		fmt.Fprint(out, shell.Render(state))
		return fmt.Errorf("%w: %q in system %s", errDrugNotFound, in.Drug, in.SystemID)
	}

	p.Dispatch(ctx, shell.DrugSelected{DrugID: drugID})
	p.Dispatch(ctx, shell.WeightChanged{Input: in.Weight})
	state = p.Dispatch(ctx, shell.CalculateRequested{})
	if in.Share {
		state = p.Dispatch(ctx, shell.ShareRequested{})
	}

	fmt.Fprint(out, shell.Render(state))
	if state.Result != nil && state.Result.Err != nil {
		return state.Result.Err
	}
	return nil
}

// resolveDrug accepts a drug id or a case-insensitive name
func resolveDrug(s shell.State, drug string) (string, bool) {
	drug = strings.TrimSpace(drug)
	for _, d := range s.Drugs {
		if d.ID == drug {
			return d.ID, true
		}
	}
	for _, d := range s.Drugs {
		if strings.EqualFold(d.Name, drug) {
			return d.ID, true
		}
	}
	return "", false
}

func historyCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the most recent calculations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			hist, closeHistory, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeHistory()

			records, err := hist.List(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			if len(records) == 0 {
				fmt.Fprintln(out, "No calculations yet.")
				return nil
			}
			for _, r := range records {
				fmt.Fprintf(out, "%s  %s: %s (%s kg, %s)\n",
					r.Timestamp.Local().Format("2006-01-02 15:04"), r.DrugName, r.Dose,
					formatWeight(r.Weight), r.SystemName)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	return cmd
}

func formatWeight(w float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", w), "0"), ".")
}

func auditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Report dosage band authoring problems in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := openLocalCatalog(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			snapshot, err := store.Snapshot(ctx)
			if err != nil {
				return err
			}

			report := validation.AuditCatalog(snapshot, time.Now())
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}
