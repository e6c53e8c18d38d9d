package simnode

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/automoto/drsync/config"
	"github.com/automoto/drsync/network"
	"github.com/automoto/drsync/shared/deadreckoning"
	"github.com/automoto/drsync/shared/gamemath"
	"github.com/automoto/drsync/shared/leveldata"
	"github.com/automoto/drsync/terrain"
	"github.com/charmbracelet/log"
)

// Kinds given to demo movers in turn when the map has no spawn points
var demoKinds = []string{config.KindVehicle, config.KindPlayer, config.KindMunition}

// LoadGround returns the ground of cfg: the TMX terrain when one is set,
// flat ground at FlatHeight otherwise, together with the map's spawns.
func LoadGround(cfg config.NodeConfig) (deadreckoning.GroundQuery, []leveldata.SpawnPoint, error) {
	if cfg.Terrain == "" {
		return terrain.Flat(cfg.FlatHeight), nil, nil
	}
	data, err := leveldata.LoadTerrain(os.DirFS(filepath.Dir(cfg.Terrain)), filepath.Base(cfg.Terrain))
	if err != nil {
		return nil, nil, err
	}
	return terrain.NewHeightField(data, 0), data.Spawns, nil
}

// SpawnDemo spawns count movers on node, at the map's spawn points when
// there are any, spread along the X axis otherwise.
func SpawnDemo(node *Node, count int, spawns []leveldata.SpawnPoint) error {
	for i := 0; i < count; i++ {
		kind := demoKinds[i%len(demoKinds)]
		center := gamemath.Vec3{X: float64(i) * 50}
		if len(spawns) > 0 {
			sp := spawns[i%len(spawns)]
			center = gamemath.Vec3{X: sp.X, Y: sp.Y}
			if sp.Kind != "" {
				kind = sp.Kind
			}
		}
		phase := 2 * math.Pi * float64(i) / float64(count)
		if _, err := node.Spawn(kind, center, phase); err != nil {
			return fmt.Errorf("spawn demo %d: %w", i, err)
		}
	}
	return nil
}

// openTransport connects to NATS when cfg names a server and joins the peer
// mesh otherwise. The returned channel reports a failing peer listener.
func openTransport(ctx context.Context, cfg config.NodeConfig, nodeID string, inbox *network.Inbox, logger *log.Logger) (Transport, <-chan error, error) {
	if cfg.NatsURL != "" {
		bus, err := network.DialNats(cfg.NatsURL, cfg.NatsPrefix, nodeID, inbox, logger.WithPrefix("nats"))
		if err != nil {
			return nil, nil, err
		}
		return bus, nil, nil
	}

	peers := network.NewPeers(nodeID, cfg.Name, cfg.TickRate, inbox, logger.WithPrefix("peers"))
	peers.SetWriteTimeout(cfg.WriteTimeout)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- peers.Listen(cfg.Port)
	}()
	for _, addr := range cfg.Peers {
		peers.Dial(ctx, addr)
	}
	return peers, listenErr, nil
}

// Run starts a node from cfg and ticks it until ctx is done or the
// transport fails.
func Run(ctx context.Context, cfg config.NodeConfig, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}

	id := NewNodeID()
	ground, spawns, err := LoadGround(cfg)
	if err != nil {
		return fmt.Errorf("load terrain: %w", err)
	}

	inbox := network.NewInbox(cfg.InboxSize, logger.WithPrefix("inbox"))
	transport, transportErr, err := openTransport(ctx, cfg, id.String(), inbox, logger)
	if err != nil {
		return fmt.Errorf("open transport: %w", err)
	}

	node := New(id, cfg.Name, ground, inbox, transport, logger.WithPrefix("node"))
	if err := SpawnDemo(node, cfg.DemoEntities, spawns); err != nil {
		node.Close()
		return err
	}

	loop := NewLoop(node, cfg.TickRate, logger.WithPrefix("loop"))
	var runErr error
	go func() {
		select {
		case <-ctx.Done():
		case err := <-transportErr:
			runErr = fmt.Errorf("peer listener: %w", err)
		}
		loop.Stop()
	}()

	logger.Info("node started", "name", cfg.Name, "id", node.ID, "entities", cfg.DemoEntities)
	loop.Run()
	node.Close()
	return runErr
}
