// Privet Harness - printer registration certification tool
//
// This is the main entry point for the harness. It drives a network
// printer through cloud registration over the local Privet protocol,
// verifies the result against the cloud service, and records every state
// transition for later inspection.
//
// Commands:
//   - register:     run the full registration sequence against the printer
//   - unregister:   delete an existing cloud registration
//   - cancel:       abort a registration the printer has in progress
//   - status:       refresh and print the printer's status snapshot
//   - capabilities: fetch and parse the printer's capability document
//   - history:      print recorded registration transitions
//   - simulate:     serve the in-process printer/service simulator
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	_ "github.com/nerrad567/privet-harness/migrations"

	"github.com/nerrad567/privet-harness/internal/cloud"
	"github.com/nerrad567/privet-harness/internal/console"
	"github.com/nerrad567/privet-harness/internal/device"
	"github.com/nerrad567/privet-harness/internal/infrastructure/config"
	"github.com/nerrad567/privet-harness/internal/infrastructure/database"
	"github.com/nerrad567/privet-harness/internal/infrastructure/logging"
	"github.com/nerrad567/privet-harness/internal/privet"
	"github.com/nerrad567/privet-harness/internal/simulator"
	"github.com/nerrad567/privet-harness/internal/transport"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("privetharness", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config.yaml (or PRIVETHARNESS_CONFIG)")
	authToken := fs.String("auth-token", "", "cloud service auth token (or PRIVETHARNESS_AUTH_TOKEN)")
	deviceID := fs.String("device-id", "", "cloud device id, for unregister and capabilities")
	runID := fs.String("run-id", "", "run id filter, for history")
	limit := fs.Int("limit", 20, "maximum history rows to print")
	if err := fs.Parse(args); err != nil {
		return err
	}

	command := fs.Arg(0)
	if command == "" {
		return fmt.Errorf("no command given (register, unregister, cancel, status, capabilities, history, simulate)")
	}

	log := logging.Default()
	log.Info("starting privet harness",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	path := resolveConfigPath(*configPath)
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", path)

	token := *authToken
	if token == "" {
		token = os.Getenv("PRIVETHARNESS_AUTH_TOKEN")
	}

	switch command {
	case "register":
		return runRegister(ctx, cfg, token, log)
	case "unregister":
		return runUnregister(ctx, cfg, *deviceID, token, log)
	case "cancel":
		return runCancel(ctx, cfg, log)
	case "status":
		return runStatus(ctx, cfg, *deviceID, token, log)
	case "capabilities":
		return runCapabilities(ctx, cfg, *deviceID, token, log)
	case "history":
		return runHistory(ctx, cfg, *runID, *limit, log)
	case "simulate":
		return runSimulate(ctx, cfg, log)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// resolveConfigPath returns the configuration file path.
// Precedence: -config flag, PRIVETHARNESS_CONFIG, the default path.
func resolveConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if env := os.Getenv("PRIVETHARNESS_CONFIG"); env != "" {
		return env
	}
	return defaultConfigPath
}

// openDatabase opens the harness database and applies migrations.
func openDatabase(ctx context.Context, cfg *config.Config, log *logging.Logger) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path)
	return db, nil
}

// buildConsole selects the management console backend from configuration.
func buildConsole(cfg *config.Config, cloudCli *cloud.Client, deviceID, token string, log *logging.Logger) console.Console {
	if cfg.Console.Kind == "snmp" {
		return console.NewSNMPConsole(cfg.Printer.IPv4, cfg.Console.SNMP, log)
	}
	return console.NewCloudConsole(cloudCli, deviceID, token, log)
}

// buildCoordinator wires the protocol clients for the configured printer.
func buildCoordinator(cfg *config.Config, history device.EventRepository, deviceID, token string, log *logging.Logger) (*device.Coordinator, error) {
	privetTransport := transport.New(cfg.PrivetTimeout(), log)
	cloudTransport := transport.New(cfg.CloudTimeout(), log)

	privetCli := privet.New(privet.Config{
		URLs:              privet.NewURLSet(cfg.Printer.IPv4, cfg.Printer.Port, cfg.Printer.User),
		ClaimPollAttempts: cfg.Privet.ClaimPollAttempts,
		ClaimPollDelay:    cfg.ClaimPollDelay(),
	}, privetTransport, log)
	cloudCli := cloud.New(cfg.Cloud.BaseURL, cloudTransport, log)

	return device.NewCoordinator(device.CoordinatorConfig{
		Identity: device.Identity{
			Name:  cfg.Printer.Name,
			Model: cfg.Printer.Model,
			IPv4:  cfg.Printer.IPv4,
			Port:  cfg.Printer.Port,
			User:  cfg.Printer.User,
		},
		Privet:          privetCli,
		Cloud:           cloudCli,
		Console:         buildConsole(cfg, cloudCli, deviceID, token, log),
		History:         history,
		RefreshAttempts: cfg.Status.RefreshAttempts,
		Logger:          log,
	})
}

// runRegister drives the printer through the full registration sequence.
// On a claim failure the in-progress registration is cancelled best-effort
// so the printer is not left waiting for a button press.
func runRegister(ctx context.Context, cfg *config.Config, token string, log *logging.Logger) error {
	if token == "" {
		return fmt.Errorf("an auth token is required to register (use --auth-token)")
	}

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	coord, err := buildCoordinator(cfg, device.NewSQLiteEventRepository(db.DB), "", token, log)
	if err != nil {
		return err
	}
	log.Info("registration run starting", "run_id", coord.RunID(), "printer", cfg.Printer.Name)

	if err := coord.Connect(ctx); err != nil {
		return fmt.Errorf("fetching printer info: %w", err)
	}
	if err := coord.Start(ctx); err != nil {
		return fmt.Errorf("starting registration: %w", err)
	}

	if err := coord.ObtainClaimToken(ctx); err != nil {
		return fmt.Errorf("obtaining claim token: %w", err)
	}
	if err := coord.SendClaimToken(ctx, token); err != nil {
		if cancelErr := coord.Cancel(ctx); cancelErr != nil {
			log.Warn("cancelling after claim failure also failed", "error", cancelErr)
		}
		return fmt.Errorf("sending claim token: %w", err)
	}

	result, err := coord.FinishRegistration(ctx)
	if err != nil {
		return fmt.Errorf("finishing registration: %w", err)
	}

	if result.WithoutID() {
		fmt.Println("registration completed, but the service issued no device id")
		return nil
	}
	fmt.Printf("registered: cloud device id %s\n", result.CloudDeviceID)
	return nil
}

// runUnregister deletes an existing registration by id.
func runUnregister(ctx context.Context, cfg *config.Config, deviceID, token string, log *logging.Logger) error {
	if deviceID == "" {
		return fmt.Errorf("--device-id is required to unregister")
	}
	if token == "" {
		return fmt.Errorf("an auth token is required to unregister (use --auth-token)")
	}

	cloudCli := cloud.New(cfg.Cloud.BaseURL, transport.New(cfg.CloudTimeout(), log), log)
	if err := cloudCli.DeletePrinter(ctx, deviceID, token); err != nil {
		return fmt.Errorf("deleting registration: %w", err)
	}
	fmt.Printf("unregistered: %s\n", deviceID)
	return nil
}

// runCancel aborts whatever registration the printer has in progress.
func runCancel(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	privetCli := privet.New(privet.Config{
		URLs: privet.NewURLSet(cfg.Printer.IPv4, cfg.Printer.Port, cfg.Printer.User),
	}, transport.New(cfg.PrivetTimeout(), log), log)

	if err := privetCli.FetchInfo(ctx); err != nil {
		return fmt.Errorf("fetching printer info: %w", err)
	}
	status, err := privetCli.CancelRegistration(ctx)
	if err != nil {
		return fmt.Errorf("cancelling registration: %w", err)
	}
	fmt.Printf("cancel answered with status %d\n", status)
	return nil
}

// runStatus refreshes and prints the printer's status snapshot.
func runStatus(ctx context.Context, cfg *config.Config, deviceID, token string, log *logging.Logger) error {
	coord, err := buildCoordinator(cfg, nil, deviceID, token, log)
	if err != nil {
		return err
	}

	snapshot, err := coord.RefreshStatus(ctx, cfg.StatusRetryDelay())
	if err != nil {
		return fmt.Errorf("refreshing status: %w", err)
	}

	fmt.Printf("status:  %s\n", valueOrDash(snapshot.Status))
	fmt.Printf("error:   %s\n", valueOrDash(snapshot.ErrorState))
	fmt.Printf("warning: %s\n", valueOrDash(snapshot.WarningState))
	for _, message := range snapshot.Messages {
		fmt.Printf("message: %s\n", message)
	}
	printSortedMap(snapshot.Details)
	if missing := snapshot.Missing(); len(missing) > 0 {
		fmt.Printf("incomplete snapshot, missing: %v\n", missing)
	}
	return nil
}

// runCapabilities fetches and parses the printer's capability document.
func runCapabilities(ctx context.Context, cfg *config.Config, deviceID, token string, log *logging.Logger) error {
	if deviceID == "" {
		return fmt.Errorf("--device-id is required to fetch capabilities")
	}

	cloudCli := cloud.New(cfg.Cloud.BaseURL, transport.New(cfg.CloudTimeout(), log), log)
	cons := buildConsole(cfg, cloudCli, deviceID, token, log)

	doc, err := cons.GetCapabilityDocument(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("fetching capability document: %w", err)
	}
	cdd, err := device.ParseCDD(doc)
	if err != nil {
		return fmt.Errorf("parsing capability document: %w", err)
	}

	fmt.Printf("printer fields: %d, capabilities: %d\n", len(cdd.Fields), len(cdd.Capabilities))
	names := make([]string, 0, len(cdd.Capabilities))
	for name := range cdd.Capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %v\n", name, cdd.Capabilities[name])
	}
	return nil
}

// runHistory prints recorded registration transitions.
func runHistory(ctx context.Context, cfg *config.Config, runID string, limit int, log *logging.Logger) error {
	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := device.NewSQLiteEventRepository(db.DB)
	var events []device.Event
	if runID != "" {
		events, err = repo.ListByRun(ctx, runID, limit)
	} else {
		events, err = repo.ListRecent(ctx, limit)
	}
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	if len(events) == 0 {
		fmt.Println("no registration events recorded")
		return nil
	}
	for _, event := range events {
		fmt.Printf("%s  %s  %s  %s → %s  %s\n",
			event.CreatedAt.Format(time.RFC3339),
			event.RunID,
			event.PrinterName,
			event.FromState, event.ToState,
			event.Detail)
	}
	return nil
}

// runSimulate serves the in-process simulator until interrupted.
func runSimulate(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	sim := simulator.New(simulator.Options{
		Name:         cfg.Printer.Name,
		Model:        cfg.Printer.Model,
		PendingPolls: cfg.Simulator.ClaimPendingPolls,
		FailClaim:    cfg.Simulator.FailClaim,
		CloudBaseURL: "http://" + cfg.Simulator.Listen,
		Logger:       log,
	})

	server := &http.Server{
		Addr:              cfg.Simulator.Listen,
		Handler:           sim.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("simulator listening", "addr", cfg.Simulator.Listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("simulator server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down simulator")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func valueOrDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func printSortedMap(details map[string]string) {
	keys := make([]string, 0, len(details))
	for key := range details {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("detail:  %s = %s\n", key, details[key])
	}
}
