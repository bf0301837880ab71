package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/plus3/scenegraph/animation"
	"github.com/plus3/scenegraph/ecs"
	"github.com/plus3/scenegraph/internal/config"
	"github.com/plus3/scenegraph/internal/logging"
	"github.com/plus3/scenegraph/scene"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Optional TOML configuration file.")
	duration := flag.Duration("duration", 0, "The total duration the test should run for.")
	nodeCount := flag.Int("nodes", 0, "The initial number of scene nodes to create.")
	depth := flag.Int("depth", 0, "The maximum depth of the generated forest.")
	seed := flag.Int64("seed", 0, "Random seed for the forest and the churn.")
	profileMode := flag.String("profile", "", "Profiling mode: none, cpu or mem.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "duration":
			cfg.Stress.Duration = *duration
		case "nodes":
			cfg.Stress.Nodes = *nodeCount
		case "depth":
			cfg.Stress.Depth = *depth
		case "seed":
			cfg.Stress.Seed = *seed
		case "profile":
			cfg.Stress.Profile = *profileMode
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	switch cfg.Stress.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	report := run(cfg.Stress, log)
	report.GCPauseMetrics = *gcPauseMetrics

	fmt.Println("\n\n--- Scene Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatal("failed to generate report", zap.Error(err))
	}
	fmt.Println("--- End of Report ---")
}

// run builds the forest, drives the scheduler for cfg.Duration and returns
// the filled report.
func run(cfg config.StressConfig, log *zap.Logger) *Report {
	log.Info("starting scene stress test",
		zap.Int("nodes", cfg.Nodes), zap.Int("depth", cfg.Depth), zap.Duration("duration", cfg.Duration))

	registry := ecs.NewComponentRegistry()
	scene.RegisterComponents(registry)
	animation.RegisterComponents(registry)
	world := ecs.NewWorld(registry)

	nodes := scene.NewNodeSystem(world, log)
	tweens := animation.NewTweenSystem(world, log)
	skins := scene.NewSkinningSystem(world, log)

	rng := rand.New(rand.NewSource(cfg.Seed))
	forest := buildForest(world, nodes, skins, rng, cfg)
	log.Info("population complete", zap.Int("nodes", forest.Len()), zap.Int("skins", forest.skins))

	churn := newChurnSystem(cfg, rng, forest, nodes, tweens)
	scheduler := ecs.NewScheduler(world)
	scheduler.Register(churn)
	scheduler.Register(tweens)
	scheduler.Register(scene.NewLocalMatrixSystem(world))
	scheduler.Register(nodes)
	scheduler.Register(skins)

	report := &Report{
		Config:     cfg,
		StartNodes: forest.Len(),
		Skins:      forest.skins,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	startTime := time.Now()
	lastFrameTime := startTime
Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			scheduler.Once(deltaTime)
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
		}
	}

	report.TotalTime = time.Since(startTime)
	report.TotalUpdates = int64(len(report.UpdateTime.Samples))
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	report.EndNodes = nodes.Cache().Len() - 1
	report.Churn = churn.counts
	report.Scheduler = scheduler.GetStats()
	report.World = world.CollectStats()

	log.Info("simulation finished",
		zap.Int64("updates", report.TotalUpdates), zap.Duration("elapsed", report.TotalTime))
	return report
}
