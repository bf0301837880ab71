package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/scenegraph/animation"
	"github.com/plus3/scenegraph/ecs"
	"github.com/plus3/scenegraph/ecs/debugui"
	debugui_ebiten "github.com/plus3/scenegraph/ecs/debugui/ebiten"
	"github.com/plus3/scenegraph/internal/config"
	"github.com/plus3/scenegraph/internal/logging"
	"github.com/plus3/scenegraph/scene"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Optional TOML configuration file.")
	debugUI := flag.Bool("debug-ui", false, "Show the scene inspector.")
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
	if *debugUI {
		cfg.Orbits.DebugUI = true
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	var backend *debugui_ebiten.ImguiBackend
	if cfg.Orbits.DebugUI {
		backend = debugui_ebiten.NewImguiBackend("Orbits", cfg.Orbits.Width, cfg.Orbits.Height)
	} else {
		ebiten.SetWindowSize(cfg.Orbits.Width, cfg.Orbits.Height)
		ebiten.SetWindowTitle("Orbits")
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	game := newGame(cfg.Orbits, log, backend)
	log.Info("starting orbits",
		zap.Int("planets", len(game.solar.planets)), zap.Int("moons", len(game.solar.moons)))
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal("game loop failed", zap.Error(err))
	}
}

// newGame wires the world and scheduler. backend may be nil, in which case
// no inspector is shown.
func newGame(cfg config.OrbitsConfig, log *zap.Logger, backend *debugui_ebiten.ImguiBackend) *Game {
	registry := ecs.NewComponentRegistry()
	scene.RegisterComponents(registry)
	animation.RegisterComponents(registry)
	debugui.RegisterDebugUIComponents(registry)
	RegisterComponents(registry)
	world := ecs.NewWorld(registry)

	nodes := scene.NewNodeSystem(world, log)
	tweens := animation.NewTweenSystem(world, log)

	scheduler := ecs.NewScheduler(world)
	scheduler.Register(NewOrbitSystem(world))
	scheduler.Register(tweens)
	scheduler.Register(scene.NewLocalMatrixSystem(world))
	scheduler.Register(nodes)

	game := &Game{
		world:     world,
		scheduler: scheduler,
		nodes:     nodes,
		tweens:    tweens,
		solar:     buildSolarSystem(world, nodes, cfg),
		backend:   backend,
		bodies:    ecs.Table[BodyComponent](world),
		width:     cfg.Width,
		height:    cfg.Height,
	}
	if backend != nil {
		game.imgui = &debugui.ImguiSystem{}
		scheduler.Register(game.imgui)
		debugui.SpawnDebugUI(world, nodes, scheduler)
	}
	return game
}
