package browser

import (
	"testing"
	"time"
)

func TestPoolConfigWithDefaults(t *testing.T) {
	cfg := PoolConfig{}.withDefaults()
	if cfg.MaxInstances != 5 {
		t.Errorf("MaxInstances = %d, want default 5", cfg.MaxInstances)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want default 30s", cfg.Timeout)
	}
	if cfg.ViewportWidth != 1920 || cfg.ViewportHeight != 1080 {
		t.Errorf("Viewport = %dx%d, want 1920x1080", cfg.ViewportWidth, cfg.ViewportHeight)
	}
}

func TestPoolConfigWithDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := PoolConfig{MaxInstances: 2, Timeout: 5 * time.Second, ViewportWidth: 800, ViewportHeight: 600}.withDefaults()
	if cfg.MaxInstances != 2 || cfg.Timeout != 5*time.Second || cfg.ViewportWidth != 800 || cfg.ViewportHeight != 600 {
		t.Errorf("withDefaults overrode an explicitly set field: %+v", cfg)
	}
}

func TestNormalizeRemoteURL(t *testing.T) {
	cases := map[string]string{
		"":                        "",
		"  ":                      "",
		"http://example.com:3000": "ws://example.com:3000",
		"https://example.com":     "wss://example.com",
		"ws://already-ws":         "ws://already-ws",
	}
	for in, want := range cases {
		if got := normalizeRemoteURL(in); got != want {
			t.Errorf("normalizeRemoteURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPoolNextUserAgentRotates(t *testing.T) {
	p := &Pool{}
	first := p.nextUserAgent()
	second := p.nextUserAgent()
	third := p.nextUserAgent()
	if first == "" || second == "" {
		t.Fatal("expected non-empty user agent strings")
	}
	if first != third {
		t.Errorf("expected the user-agent rotation to cycle back after 2 entries: first=%q third=%q", first, third)
	}
	if first == second {
		t.Error("expected consecutive calls to rotate between distinct user agents")
	}
}
