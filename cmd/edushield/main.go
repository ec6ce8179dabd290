package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/edushield/edushield/internal/audit"
	"github.com/edushield/edushield/internal/config"
	"github.com/edushield/edushield/internal/engine"
	"github.com/edushield/edushield/internal/filter"
	"github.com/edushield/edushield/internal/freshness"
	"github.com/edushield/edushield/internal/model"
	"github.com/edushield/edushield/internal/packet"
	"github.com/edushield/edushield/internal/policy"
	"github.com/edushield/edushield/internal/registry"
	"github.com/edushield/edushield/internal/sisdata"
	"github.com/edushield/edushield/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("EDUSHIELD_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("edushield starting", "version", version, "policy_version", cfg.PolicyVersion)

	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	reg := registry.New()
	tables := policy.DefaultTables()
	tables.Version = cfg.PolicyVersion

	mem := audit.NewMemorySink()
	sinks := []audit.Sink{mem}

	fileSink, err := audit.NewFileSink(cfg.AuditLogPath)
	if err != nil {
		return fmt.Errorf("audit file sink: %w", err)
	}
	sinks = append(sinks, fileSink)

	if cfg.AuditArchivePath != "" {
		archive, err := audit.NewArchiveSink(cfg.AuditArchivePath)
		if err != nil {
			return fmt.Errorf("audit archive sink: %w", err)
		}
		sinks = append(sinks, archive)
	}
	if cfg.AuditConsole {
		sinks = append(sinks, audit.NewConsoleSink(os.Stderr))
	}

	pipeline := audit.NewPipeline(logger, sinks...)
	pipeline.Start(ctx)

	eng := engine.New(engine.Config{
		Registry: reg,
		Policy:   policy.New(reg, tables, logger),
		Filter:   filter.New(reg, tables, logger),
		Tracker:  freshness.NewTracker(),
		Pipeline: pipeline,
		Memory:   mem,
		Builder: packet.NewBuilder(model.ModelDescriptor{
			ModelID:    cfg.ModelID,
			Provider:   cfg.ModelProvider,
			Compliance: cfg.ModelCompliance,
			RiskLevel:  cfg.ModelRiskLevel,
		}),
		Logger: logger,
	})

	if err := runScenarios(ctx, eng); err != nil {
		return err
	}

	// Drain the audit queue before exit so no accepted entry is lost.
	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.DrainTimeout)
	defer cancel()
	pipeline.Stop(drainCtx)

	slog.Info("edushield done",
		"audit_delivered", pipeline.Delivered(),
		"sink_failures", pipeline.SinkFailures())
	return nil
}

// runScenarios walks one request per role through the engine against the
// bundled sample dataset and prints the mediated views.
func runScenarios(ctx context.Context, eng *engine.Engine) error {
	all := registry.New().IDs()
	scenarios := []struct {
		title     string
		userID    string
		role      model.Role
		requested []model.ResourceID
	}{
		{"Administrator, full record review", sisdata.AdminID, model.RoleAdmin, all},
		{"Teacher, grades and own payroll", sisdata.Teacher1ID, model.RoleTeacher,
			[]model.ResourceID{registry.ResourceGrades, registry.ResourceFinancial, registry.ResourceClasses}},
		{"Student, schedule and transcript request", sisdata.Student1ID, model.RoleStudent,
			[]model.ResourceID{registry.ResourceClasses, registry.ResourceGrades, registry.ResourceFinancial}},
	}

	for _, sc := range scenarios {
		res, err := eng.Process(ctx, engine.Request{
			Identity:  model.NewIdentityScope(sc.userID, string(sc.role), model.SessionContext{}),
			Requested: sc.requested,
			Records:   sisdata.Records(),
		})
		if err != nil {
			return fmt.Errorf("scenario %q: %w", sc.title, err)
		}

		fmt.Printf("=== %s ===\n", sc.title)
		fmt.Printf("trace=%s decision=%s access=%s\n", res.TraceID, res.Decision, res.AccessLevel)
		fmt.Println(packet.Describe(res.Packet))
		fmt.Println(res.Rendered)
	}
	return nil
}
