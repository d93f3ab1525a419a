package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/JeremyLoy/config"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"

	"github.com/plus3/sparsecs/ecs"
)

// Config holds the store limits, read from the environment.
type Config struct {
	MaxEntities       int    `config:"ECS_STRESS_MAX_ENTITIES"`
	MaxComponentTypes int    `config:"ECS_STRESS_MAX_COMPONENT_TYPES"`
	LogLevel          string `config:"ECS_STRESS_LOG_LEVEL"`
}

func loadConfig() (Config, error) {
	cfg := Config{
		MaxEntities:       ecs.DefaultMaxEntities,
		MaxComponentTypes: ecs.DefaultMaxComponentTypes,
		LogLevel:          "info",
	}
	err := config.FromEnv().To(&cfg)
	return cfg, err
}

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 10000, "The initial number of entities to create.")
	churn := flag.Int("churn", 100, "Entities destroyed and respawned per frame.")
	grouped := flag.Bool("groups", true, "Register the Position/Velocity and Position/Velocity/Health groups.")
	memProfile := flag.Bool("profile", false, "Write an allocation profile to the working directory.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).With().Timestamp().Logger()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	if *memProfile {
		p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
		defer p.Stop()
	}

	logger.Info().Msg("starting ECS stress test")

	store := ecs.NewStore(ecs.NewTypeRegistry(),
		ecs.WithMaxEntities(cfg.MaxEntities),
		ecs.WithMaxComponentTypes(cfg.MaxComponentTypes),
		ecs.WithLogger(logger.With().Str("component", "store").Logger()),
	)
	if err := registerComponents(store, *grouped); err != nil {
		logger.Fatal().Err(err).Msg("failed to register components")
	}

	sim, err := newSimulation(store, rand.New(rand.NewSource(time.Now().UnixNano())), *grouped, *entityCount)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build views")
	}

	logger.Info().Int("entities", *entityCount).Msg("populating store")
	for i := 0; i < *entityCount; i++ {
		if err := sim.spawn(); err != nil {
			logger.Fatal().Err(err).Msg("failed to spawn entity")
		}
	}
	logger.Info().Msg("population complete")

	scheduler := NewScheduler(store)
	for _, system := range sim.systems(*churn) {
		scheduler.Register(system)
	}

	report := &Report{
		Duration:       *duration,
		Entities:       *entityCount,
		Churn:          *churn,
		Grouped:        *grouped,
		GCPauseMetrics: *gcPauseMetrics,
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	logger.Info().Dur("duration", *duration).Msg("running simulation")
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	startTime := time.Now()
	lastFrameTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			if err := scheduler.Once(float32(deltaTime.Seconds())); err != nil {
				logger.Error().Err(err).Int64("frame", report.TotalUpdates).Msg("frame failed")
				report.FrameErrors++
			}
			report.UpdateTime.Add(time.Since(updateStart))
			report.TotalUpdates++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.Systems = scheduler.Stats()
	report.Store = store.CollectStats()
	runtime.ReadMemStats(&report.MemStatsEnd)

	logger.Info().Int64("updates", report.TotalUpdates).Msg("simulation finished")
	store.LogStats(zerolog.DebugLevel)

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		logger.Fatal().Err(err).Msg("failed to generate report")
	}
	fmt.Println("--- End of Report ---")

	if err := store.Corrupt(); err != nil {
		logger.Error().Err(err).Msg("store ended in a corrupt state")
	}
}
