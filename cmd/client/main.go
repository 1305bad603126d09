package main

import (
	"os"

	"github.com/automoto/doomerang-netcode/config"
	"github.com/automoto/doomerang-netcode/network"
	"github.com/automoto/doomerang-netcode/scenes"
	"github.com/automoto/doomerang-netcode/shared/ground"
	"github.com/automoto/doomerang-netcode/shared/leveldata"
	"github.com/automoto/doomerang-netcode/systems"
	"github.com/hajimehoshi/ebiten/v2"
	log "github.com/sirupsen/logrus"
)

type Game struct {
	scene  *scenes.NetworkedScene
	width  int
	height int
}

func (g *Game) Update() error {
	return g.scene.Update()
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.scene.Draw(screen)
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

func main() {
	cfg, err := config.LoadClient(os.Args[1:])
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if err := config.SetupLogging(cfg.Log); err != nil {
		log.Fatalf("Logging setup: %v", err)
	}

	store, err := config.OpenStore("doomerang")
	if err != nil {
		log.Warnf("Could not initialize persistence: %v", err)
	}
	params := store.LoadTunables()

	// Prediction needs the same ground the server steps against.
	level, err := leveldata.Load(cfg.Level)
	if err != nil {
		log.Fatalf("Level error: %v", err)
	}

	inbox := systems.NewInbox()
	client := network.NewClient(inbox)
	client.Connect(cfg.Address, cfg.Version, cfg.PlayerName)
	defer client.Disconnect()

	game := &Game{
		scene:  scenes.NewNetworkedScene(client, inbox, &params, ground.NewSpace(level), cfg.Smoothing),
		width:  cfg.Width,
		height: cfg.Height,
	}

	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle("Doomerang netcode")
	if err := ebiten.RunGame(game); err != nil {
		log.Errorf("Game exited: %v", err)
	}
	if err := store.SaveTunables(params); err != nil {
		log.Warnf("Could not save tunables: %v", err)
	}
}
