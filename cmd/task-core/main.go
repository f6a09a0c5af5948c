package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/oshied/task-core/pkg/diagram"
	_ "github.com/oshied/task-core/pkg/driver/ansiblerunner"
	_ "github.com/oshied/task-core/pkg/driver/directord"
	_ "github.com/oshied/task-core/pkg/driver/local"
	_ "github.com/oshied/task-core/pkg/driver/noop"
	_ "github.com/oshied/task-core/pkg/driver/print"
	_ "github.com/oshied/task-core/pkg/driver/service"
	"github.com/oshied/task-core/pkg/loader"
	"github.com/oshied/task-core/pkg/log"
	"github.com/oshied/task-core/pkg/manager"
	"github.com/oshied/task-core/pkg/metrics"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "task-core",
	Short:   "task-core runs declarative host/role/service orchestration artifacts",
	Version: Version,
	RunE:    runOrchestration,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("task-core version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	flags := rootCmd.Flags()
	flags.StringP("inventory", "i", "inventory.yaml", "Path to inventory file or directory")
	flags.StringP("roles", "r", "", "Path to roles file or directory (optional)")
	flags.StringP("services", "s", "services", "Path to service definitions directory")
	flags.Bool("extend-lists", false, "Extend (append) list values on merge instead of replacing them")
	flags.BoolP("debug", "d", false, "Enable debug logging (same as --log-level debug)")
	flags.Bool("noop", false, "Dry run: dispatch every task through the noop driver")
	flags.Bool("parallel", false, "Run the task graph with the parallel scheduler")
	flags.Int("workers", 0, "Parallel scheduler worker pool size (default 5)")
	flags.String("diagram", "", "Write an SVG rendering of the task graph to this path and exit")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address while running (e.g. 127.0.0.1:9090)")
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	if debug, _ := rootCmd.Flags().GetBool("debug"); debug {
		logLevel = string(log.DebugLevel)
	}
	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

func runOrchestration(cmd *cobra.Command, args []string) error {
	inventoryPath, _ := cmd.Flags().GetString("inventory")
	rolesPath, _ := cmd.Flags().GetString("roles")
	servicesDir, _ := cmd.Flags().GetString("services")
	extendLists, _ := cmd.Flags().GetBool("extend-lists")
	noop, _ := cmd.Flags().GetBool("noop")
	parallel, _ := cmd.Flags().GetBool("parallel")
	workers, _ := cmd.Flags().GetInt("workers")
	diagramPath, _ := cmd.Flags().GetString("diagram")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	mode := loader.MergeReplace
	if extendLists {
		mode = loader.MergeExtend
	}

	if metricsAddr != "" {
		go func() {
			http.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(metricsAddr, nil); err != nil {
				log.Logger.Error().Err(err).Msg("metrics server error")
			}
		}()
		fmt.Printf("metrics endpoint: http://%s/metrics\n", metricsAddr)
	}

	mgr := manager.New(manager.Config{
		InventoryPath: inventoryPath,
		RolesPath:     rolesPath,
		ServicesDir:   servicesDir,
		MergeMode:     mode,
		Parallel:      parallel,
		Workers:       workers,
		Noop:          noop || diagramPath != "",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nshutting down...")
		cancel()
	}()

	runErr := mgr.Run(ctx)

	if diagramPath != "" {
		if mgr.Graph == nil {
			return fmt.Errorf("no task graph to render")
		}
		svg, err := diagram.RenderSVG(ctx, mgr.Graph)
		if err != nil {
			return fmt.Errorf("render diagram: %w", err)
		}
		if err := os.WriteFile(diagramPath, svg, 0o644); err != nil {
			return fmt.Errorf("write diagram: %w", err)
		}
		fmt.Printf("task graph written to %s\n", diagramPath)
	}

	printSummary(mgr)

	if runErr != nil {
		return runErr
	}
	return nil
}

func printSummary(mgr *manager.Manager) {
	succeeded, failed, skipped, pending := mgr.Summary()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Succeeded", "Failed", "Skipped", "Pending"})
	t.AppendRow(table.Row{succeeded, failed, skipped, pending})
	t.Render()
}
