package simnode

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Loop ticks a node at a fixed rate until stopped.
type Loop struct {
	node     *Node
	tickRate int
	stopChan chan struct{}
	stopOnce sync.Once
	logger   *log.Logger
}

func NewLoop(node *Node, tickRate int, logger *log.Logger) *Loop {
	if tickRate <= 0 {
		tickRate = 30
	}
	if logger == nil {
		logger = log.WithPrefix("loop")
	}
	return &Loop{
		node:     node,
		tickRate: tickRate,
		stopChan: make(chan struct{}),
		logger:   logger,
	}
}

// Run blocks until Stop is called. Each tick is given the measured time
// since the previous one.
func (l *Loop) Run() {
	ticker := time.NewTicker(time.Second / time.Duration(l.tickRate))
	defer ticker.Stop()

	l.logger.Info("loop started", "tickRate", l.tickRate)

	last := time.Now()
	for {
		select {
		case <-l.stopChan:
			l.logger.Info("loop stopped")
			return
		case now := <-ticker.C:
			l.node.Tick(now.Sub(last))
			last = now
		}
	}
}

// Stop ends Run. It may be called more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopChan) })
}
