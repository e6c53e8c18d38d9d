package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/automoto/drsync/shared/messages"
	"github.com/automoto/drsync/systems"
	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
	"github.com/leap-fish/necs/esync"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
)

var ErrNoPeers = fmt.Errorf("no connected peers: %w", systems.ErrNoRecipients)

const (
	defaultWriteTimeout = 50 * time.Millisecond
	relinkDelay         = 100 * time.Millisecond
	maxRedialBackoff    = 30 * time.Second
)

// Peers links this node to the other nodes of a full mesh. Every node
// listens for inbound connections, which only deliver updates into the
// inbox, and dials every other node, whose connections carry its own
// updates out.
// All shared fields are protected by mu (router callbacks and dial loops
// run on their own goroutines).
type Peers struct {
	mu      sync.RWMutex
	conns   map[string]*websocket.Conn // by dialed address
	dials   map[string]context.Context
	dialing map[string]bool
	hello   map[string]messages.PeerHello

	nodeID       string
	nodeName     string
	tickRate     int
	writeTimeout time.Duration

	inbox     *Inbox
	once      sync.Once
	done      chan struct{}
	closeOnce sync.Once
	logger    *log.Logger
}

func NewPeers(nodeID, nodeName string, tickRate int, inbox *Inbox, logger *log.Logger) *Peers {
	if logger == nil {
		logger = log.WithPrefix("peers")
	}
	return &Peers{
		conns:        make(map[string]*websocket.Conn),
		dials:        make(map[string]context.Context),
		dialing:      make(map[string]bool),
		hello:        make(map[string]messages.PeerHello),
		nodeID:       nodeID,
		nodeName:     nodeName,
		tickRate:     tickRate,
		writeTimeout: defaultWriteTimeout,
		inbox:        inbox,
		done:         make(chan struct{}),
		logger:       logger,
	}
}

// SetWriteTimeout bounds how long a publish may wait on one peer.
func (p *Peers) SetWriteTimeout(d time.Duration) {
	if d > 0 {
		p.writeTimeout = d
	}
}

func (p *Peers) setupRouterCallbacks() {
	p.once.Do(func() {
		p.inbox.Attach()

		router.On(func(client *router.NetworkClient, msg messages.PeerHello) {
			p.logger.Info("peer joined", "node", msg.NodeName, "id", msg.NodeID, "tickRate", msg.TickRate)
			p.mu.Lock()
			p.hello[client.Id()] = msg
			p.mu.Unlock()
		})

		router.OnConnect(func(client *router.NetworkClient) {
			p.logger.Debug("connection opened", "client", client.Id())
		})

		router.OnDisconnect(func(client *router.NetworkClient, err error) {
			p.mu.Lock()
			hello, known := p.hello[client.Id()]
			delete(p.hello, client.Id())
			p.mu.Unlock()

			if known {
				p.logger.Info("peer left", "node", hello.NodeName, "err", err)
				return
			}
			p.logger.Debug("connection closed", "client", client.Id(), "err", err)
		})

		router.OnError(func(client *router.NetworkClient, err error) {
			p.logger.Warn("connection error", "client", client.Id(), "err", err)
		})
	})
}

// Listen serves inbound peer connections on port. It blocks until the
// listener fails.
func (p *Peers) Listen(port uint) error {
	p.setupRouterCallbacks()

	transport := transports.NewWsServerTransport(port, "", nil)
	p.logger.Info("listening for peers", "port", port)
	return transport.Start()
}

// Dial connects to the peer at address in a background goroutine, retrying
// with backoff until ctx is done.
func (p *Peers) Dial(ctx context.Context, address string) {
	p.setupRouterCallbacks()

	p.mu.Lock()
	p.dials[address] = ctx
	p.mu.Unlock()
	p.redial(address)
}

// redial starts a dial loop for address unless one is running or the
// address was never dialed.
func (p *Peers) redial(address string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ctx, ok := p.dials[address]
	if !ok || ctx.Err() != nil || p.dialing[address] || p.closed() {
		return
	}
	p.dialing[address] = true
	go p.dialLoop(ctx, address)
}

// dialLoop keeps one outbound link to address until ctx is done or the
// peers are closed. Start returns when the link ends, cleanly or not, so a
// link that was up is redialed after relinkDelay; failed dials back off.
func (p *Peers) dialLoop(ctx context.Context, address string) {
	defer func() {
		p.mu.Lock()
		delete(p.dialing, address)
		p.mu.Unlock()
	}()

	backoff := time.Second
	for {
		var linked atomic.Pointer[websocket.Conn]
		transport := transports.NewWsClientTransport("ws://" + address)
		err := transport.Start(func(c *websocket.Conn) {
			linked.Store(c)
			p.addConn(address, c)
			if err := p.sendHello(c); err != nil {
				p.logger.Warn("hello failed", "peer", address, "err", err)
			}
		})

		conn := linked.Load()
		p.removeConn(address, conn)
		if ctx.Err() != nil || p.closed() {
			return
		}

		wait := backoff
		if conn != nil {
			p.logger.Info("peer link closed, redialing", "peer", address, "err", err)
			backoff = time.Second
			wait = relinkDelay
		} else {
			p.logger.Warn("peer unreachable, retrying", "peer", address, "in", backoff, "err", err)
			backoff = min(backoff*2, maxRedialBackoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-time.After(wait):
		}
	}
}

func (p *Peers) closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *Peers) sendHello(conn *websocket.Conn) error {
	payload, err := router.Serialize(messages.PeerHello{
		NodeID:   p.nodeID,
		NodeName: p.nodeName,
		TickRate: p.tickRate,
	})
	if err != nil {
		return fmt.Errorf("serialize hello: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageBinary, payload)
}

func (p *Peers) addConn(address string, conn *websocket.Conn) {
	p.mu.Lock()
	p.conns[address] = conn
	p.mu.Unlock()
	p.logger.Info("connected to peer", "peer", address)
}

// removeConn forgets the connection to address, only if it is still conn
// when conn is non-nil.
func (p *Peers) removeConn(address string, conn *websocket.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current, ok := p.conns[address]; ok && (conn == nil || current == conn) {
		delete(p.conns, address)
	}
}

// Connected returns the addresses of the peers currently dialed.
func (p *Peers) Connected() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.conns))
	for addr := range p.conns {
		out = append(out, addr)
	}
	return out
}

// Publish sends an update to every connected peer. It fails when no peer
// is connected or any write fails; peers that received it drop the resend
// as a duplicate sequence.
func (p *Peers) Publish(msg messages.EntityUpdate) error {
	msg.Origin = p.nodeID
	return p.broadcast(msg)
}

// PublishLeft tells every connected peer that id left.
func (p *Peers) PublishLeft(id esync.NetworkId) error {
	return p.broadcast(messages.EntityLeft{EntityID: id, Origin: p.nodeID})
}

func (p *Peers) broadcast(msg any) error {
	payload, err := router.Serialize(msg)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}

	p.mu.RLock()
	conns := make(map[string]*websocket.Conn, len(p.conns))
	for addr, conn := range p.conns {
		conns[addr] = conn
	}
	p.mu.RUnlock()

	if len(conns) == 0 {
		return ErrNoPeers
	}

	var errs []error
	for addr, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
		err := conn.Write(ctx, websocket.MessageBinary, payload)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("peer %s: %w", addr, err))
			p.removeConn(addr, conn)
			_ = conn.CloseNow()
			p.redial(addr)
		}
	}
	return errors.Join(errs...)
}

// Close drops every outbound connection and stops redialing.
func (p *Peers) Close() {
	p.closeOnce.Do(func() { close(p.done) })

	p.mu.Lock()
	conns := p.conns
	p.conns = make(map[string]*websocket.Conn)
	p.mu.Unlock()

	for _, conn := range conns {
		_ = conn.CloseNow()
	}
}
