package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/agentsim/server/internal/behavior"
	"github.com/agentsim/server/internal/config"
	"github.com/agentsim/server/internal/core/agent"
	"github.com/agentsim/server/internal/data"
	"github.com/agentsim/server/internal/persist"
	"github.com/agentsim/server/internal/scripting"
	"github.com/agentsim/server/internal/sim"
	"github.com/agentsim/server/internal/vmath"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m           agentsimd  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        agent simulation core              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main simulation logic ─────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/agentsim.toml"
	if p := os.Getenv("AGENTSIM_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	// 3. Connect to PostgreSQL and run migrations (optional)
	var telemetry *persist.TelemetryRepo
	if cfg.Database.Enabled {
		printSection("Database")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()

		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			cancel()
			return fmt.Errorf("migrations: %w", err)
		}
		cancel()

		telemetry = persist.NewTelemetryRepo(db)
		printOK("connected, migrations applied")
	}

	// 4. Load archetype catalog
	printSection("Catalog")

	catalog, err := data.LoadCatalog(cfg.Sim.ArchetypeFile)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	printStat("archetype templates", catalog.Len())
	printStat("spawn entries", len(catalog.SpawnList()))

	// 5. Build the orchestrator
	orch := sim.New(log, sim.Options{
		MaxAgents:           cfg.Sim.MaxAgents,
		CellSize:            cfg.Spatial.CellSize,
		MaxTurnRate:         cfg.Sim.MaxTurnRate,
		DefensiveHealthFrac: cfg.Sim.DefensiveHealthFrac,
		AttackCooldownTicks: cfg.Sim.AttackCooldownTicks,
		TargetRadius:        cfg.Sim.TargetRadius,
	})

	// 6. Register behaviors: Lua-scripted when enabled, built-in otherwise
	printSection("Behaviors")

	if cfg.Scripting.Enabled {
		eng, err := scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("init scripting: %w", err)
		}
		defer eng.Close()

		orch.Behaviors().Register(agent.ArchetypeDrone, behavior.NewScripted(eng, "drone"))
		orch.Behaviors().Register(agent.ArchetypeAutonomous, behavior.NewScripted(eng, "autonomous"))
		printOK(fmt.Sprintf("lua behaviors loaded from %s", cfg.Scripting.Dir))
	} else {
		orch.Behaviors().Register(agent.ArchetypeDrone, behavior.NewDrone(vmath.Vec3{}))
		orch.Behaviors().Register(agent.ArchetypeAutonomous, behavior.NewAutonomous(vmath.Vec3{}))
		printOK("built-in behaviors registered")
	}

	// 7. Spawn the initial population
	spawned := 0
	for _, sp := range catalog.SpawnList() {
		tmpl, _ := catalog.Get(sp.Template)
		for i := 0; i < sp.Count; i++ {
			pos := vmath.Vec3{
				X: sp.X + (rand.Float32()*2-1)*sp.SpreadX,
				Y: sp.Y + (rand.Float32()*2-1)*sp.SpreadY,
				Z: sp.Z,
			}
			rec, err := tmpl.Record(pos, 0)
			if err != nil {
				return fmt.Errorf("template %q: %w", sp.Template, err)
			}
			if _, err := orch.Spawn(rec); err != nil {
				return fmt.Errorf("spawn %q: %w", sp.Template, err)
			}
			spawned++
		}
	}
	printStat("agents spawned", spawned)

	// 8. Run the tick loop until SIGINT/SIGTERM
	printSection("Simulation ready")
	printReady(fmt.Sprintf("tick loop started (rate: %s)", cfg.Sim.TickRate))
	fmt.Println()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Sim.TickRate)
	defer ticker.Stop()

	dt := float32(cfg.Sim.TickRate.Seconds())
	ticksSinceFlush := 0

	for {
		select {
		case <-ticker.C:
			orch.RunTick(dt)

			if telemetry != nil {
				ticksSinceFlush++
				if ticksSinceFlush >= cfg.Telemetry.FlushEveryTicks {
					ticksSinceFlush = 0
					flushTelemetry(orch, telemetry, cfg.Telemetry.SnapshotAgents, log)
				}
			}

		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			if telemetry != nil {
				flushTelemetry(orch, telemetry, cfg.Telemetry.SnapshotAgents, log)
			}
			st := orch.Stats()
			log.Info("simulation stopped",
				zap.Uint64("ticks", st.Ticks),
				zap.Int("active", st.Active))
			return nil
		}
	}
}

// flushTelemetry writes one aggregate row, plus per-agent snapshots when
// enabled. Runs between ticks on the simulation goroutine.
func flushTelemetry(orch *sim.Orchestrator, repo *persist.TelemetryRepo, snapshotAgents bool, log *zap.Logger) {
	st := orch.Stats()
	row := persist.TickRow{
		Tick:       st.Ticks,
		Active:     st.Active,
		StateNs:    st.StateAvg.Nanoseconds(),
		MovementNs: st.MovementAvg.Nanoseconds(),
		CombatNs:   st.CombatAvg.Nanoseconds(),
	}

	var snaps []persist.SnapshotRow
	if snapshotAgents {
		reg := orch.Registry()
		for _, slot := range reg.Active() {
			pos := reg.Pos(slot)
			h := reg.Health(slot)
			snaps = append(snaps, persist.SnapshotRow{
				Tick:      st.Ticks,
				Identity:  uint64(reg.IdentityAt(slot)),
				Archetype: reg.ArchetypeAt(slot).String(),
				X:         pos.X,
				Y:         pos.Y,
				Z:         pos.Z,
				HP:        h.HP,
				Flags:     h.Flags,
			})
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := repo.WriteTick(ctx, row, snaps); err != nil {
		log.Error("telemetry flush failed", zap.Error(err))
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
