package powergate

import (
	"context"
	"fmt"
	"sync"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/authority"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/gate"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/model"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/powerstar"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/shadowlog"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/store"
)

// Client holds an in-process gate for embedding in device tooling.
// Safe for concurrent use.
type Client struct {
	cfg  clientConfig
	gate *gate.Gate

	mu      sync.Mutex
	pending map[string]pendingOp // star ID → wrapped operation
}

type pendingOp struct {
	operation string
	fn        OperationFunc
}

type clientConfig struct {
	routesPath string
	logDir     string
}

// Option configures a Client.
type Option func(*clientConfig)

// WithRoutes points the client at a routes YAML file instead of the
// built-in table.
func WithRoutes(path string) Option {
	return func(c *clientConfig) { c.routesPath = path }
}

// WithLogDir overrides the shadow/public log directory.
func WithLogDir(dir string) Option {
	return func(c *clientConfig) { c.logDir = dir }
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := clientConfig{logDir: "logs"}
	for _, o := range opts {
		o(&cfg)
	}

	if ok, _ := gate.MachineAuthorized(); !ok {
		return nil, fmt.Errorf("powergate: machine not on the gate allowlist")
	}

	routes, hash, err := authority.LoadRoutes(cfg.routesPath)
	if err != nil {
		return nil, fmt.Errorf("powergate: load routes: %w", err)
	}
	router := authority.NewRouter(routes)
	router.Replace(routes, hash)

	cipher, err := shadowlog.NewCipher()
	if err != nil {
		return nil, err
	}
	shadow, err := shadowlog.New(cfg.logDir, cipher)
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg:     cfg,
		gate:    gate.New(router, powerstar.NewManager(), shadow, store.NewMemory()),
		pending: make(map[string]pendingOp),
	}, nil
}

// Gate exposes the underlying gate for star administration.
func (c *Client) Gate() *gate.Gate { return c.gate }

// Check runs a routing decision without executing anything.
func (c *Client) Check(ctx context.Context, operation string, req model.RequestContext) (model.RoutingResult, error) {
	return c.gate.Authorize(ctx, operation, req)
}
