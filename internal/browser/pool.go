package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PoolConfig configures the Playwright-backed pool's resource limits,
// adapted from the reference tool's pool configuration.
type PoolConfig struct {
	MaxInstances   int           // maximum concurrent BrowserContexts
	Timeout        time.Duration // default operation timeout
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	RemoteURL      string // optional Playwright server URL (ws:// or http(s)://)
}

func (c PoolConfig) withDefaults() PoolConfig {
	if c.MaxInstances == 0 {
		c.MaxInstances = 5
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.ViewportWidth == 0 {
		c.ViewportWidth = 1920
	}
	if c.ViewportHeight == 0 {
		c.ViewportHeight = 1080
	}
	return c
}

// Pool manages a set of Playwright browser contexts for reuse across
// independent createAgent calls (spec.md §5: a Page is not pooled within
// a single run, but spinning up fresh BrowserContexts across runs is
// exactly the reference tool's pool pattern).
type Pool struct {
	config    PoolConfig
	instances chan *playwrightContext
	mu        sync.Mutex
	closed    bool
	pw        *playwright.Playwright
	userAgent int
	created   int
}

// NewPool starts (or connects to) Playwright and returns an empty pool
// ready to Acquire contexts from.
func NewPool(config PoolConfig) (*Pool, error) {
	config = config.withDefaults()

	if strings.TrimSpace(config.RemoteURL) == "" {
		_ = playwright.Install(&playwright.RunOptions{Verbose: false})
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("browser: failed to start playwright: %w", err)
	}

	return &Pool{
		config:    config,
		instances: make(chan *playwrightContext, config.MaxInstances),
		pw:        pw,
	}, nil
}

// Acquire returns a BrowserContext from the pool, creating one if the
// pool has not yet reached MaxInstances, or blocking until one is
// released otherwise.
func (p *Pool) Acquire(ctx context.Context) (BrowserContext, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, fmt.Errorf("browser: pool is closed")
		}
		select {
		case inst := <-p.instances:
			p.mu.Unlock()
			return inst, nil
		default:
		}
		if p.created < p.config.MaxInstances {
			p.created++
			p.mu.Unlock()
			inst, err := p.createContext()
			if err != nil {
				p.mu.Lock()
				p.created--
				p.mu.Unlock()
				return nil, err
			}
			return inst, nil
		}
		p.mu.Unlock()

		select {
		case inst := <-p.instances:
			return inst, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Release returns a BrowserContext to the pool. A value not obtained from
// this Pool's Acquire is rejected rather than silently leaked.
func (p *Pool) Release(bctx BrowserContext) error {
	inst, ok := bctx.(*playwrightContext)
	if !ok {
		return fmt.Errorf("browser: Release called with a context this pool did not create")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = inst.closeUnderlying()
		p.created--
		return nil
	}

	select {
	case p.instances <- inst:
	default:
		_ = inst.closeUnderlying()
		p.created--
	}
	return nil
}

// Close tears down every pooled context and stops the Playwright driver.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	close(p.instances)
	for inst := range p.instances {
		_ = inst.closeUnderlying()
	}
	p.created = 0

	if p.pw != nil {
		if err := p.pw.Stop(); err != nil {
			return fmt.Errorf("browser: failed to stop playwright: %w", err)
		}
	}
	return nil
}

func (p *Pool) createContext() (*playwrightContext, error) {
	if p.pw == nil {
		return nil, fmt.Errorf("browser: playwright not initialized")
	}

	var browserHandle playwright.Browser
	remoteURL := normalizeRemoteURL(p.config.RemoteURL)
	if remoteURL != "" {
		var err error
		browserHandle, err = p.pw.Chromium.Connect(remoteURL)
		if err != nil {
			return nil, fmt.Errorf("browser: failed to connect: %w", err)
		}
	} else {
		var err error
		browserHandle, err = p.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(p.config.Headless),
			Timeout:  playwright.Float(float64(p.config.Timeout.Milliseconds())),
		})
		if err != nil {
			return nil, fmt.Errorf("browser: failed to launch: %w", err)
		}
	}

	userAgent := p.nextUserAgent()
	pwCtx, err := browserHandle.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent),
		Viewport: &playwright.Size{
			Width:  p.config.ViewportWidth,
			Height: p.config.ViewportHeight,
		},
		AcceptDownloads:   playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		_ = browserHandle.Close()
		return nil, fmt.Errorf("browser: failed to create context: %w", err)
	}

	return &playwrightContext{
		browser: browserHandle,
		pwCtx:   pwCtx,
		timeout: p.config.Timeout,
	}, nil
}

func (p *Pool) nextUserAgent() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	agents := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	}
	ua := agents[p.userAgent%len(agents)]
	p.userAgent++
	return ua
}

func normalizeRemoteURL(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "http://") {
		return "ws://" + strings.TrimPrefix(value, "http://")
	}
	if strings.HasPrefix(value, "https://") {
		return "wss://" + strings.TrimPrefix(value, "https://")
	}
	return value
}
