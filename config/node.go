package config

import "time"

// NodeConfig contains the runtime settings of a simulation node
type NodeConfig struct {
	Name     string
	TickRate int
	Port     uint

	// Transport: the peer mesh is used unless NatsURL is set
	Peers        []string
	NatsURL      string
	NatsPrefix   string
	InboxSize    int
	WriteTimeout time.Duration

	// Terrain TMX file; empty selects flat ground at FlatHeight
	Terrain    string
	FlatHeight float64

	DemoEntities   int
	StatusInterval time.Duration
	LogLevel       string
}

// Node is the global node configuration
var Node NodeConfig

func init() {
	Node = NodeConfig{
		Name:           "drsync",
		TickRate:       30,
		Port:           7373,
		NatsPrefix:     "drsync",
		InboxSize:      256,
		WriteTimeout:   50 * time.Millisecond,
		DemoEntities:   2,
		StatusInterval: 5 * time.Second,
		LogLevel:       "info",
	}
}
