package main

import (
	"sync"
	"testing"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg := loadServerConfig(func(string) string { return "" })
	if cfg.Address() != "0.0.0.0:6996" {
		t.Errorf("Expected the default address, got %q", cfg.Address())
	}
	if cfg.HostKeyPath == "" {
		t.Errorf("Expected a default host key path")
	}
}

func TestLoadServerConfigFromEnv(t *testing.T) {
	env := map[string]string{
		"PTCRUISERS_HOST":          "127.0.0.1",
		"PTCRUISERS_PORT":          "2222",
		"PTCRUISERS_HOST_KEY_PATH": "/tmp/key",
	}
	cfg := loadServerConfig(func(key string) string { return env[key] })
	if cfg.Address() != "127.0.0.1:2222" || cfg.HostKeyPath != "/tmp/key" {
		t.Errorf("Unexpected config %+v", cfg)
	}
}

func TestConnectionLimiter(t *testing.T) {
	limiter := newConnectionLimiter(2)

	for i := 1; i <= 2; i++ {
		if count, ok := limiter.acquire("10.0.0.1"); !ok || count != i {
			t.Fatalf("Expected slot %d to be granted, got %d %v", i, count, ok)
		}
	}
	if count, ok := limiter.acquire("10.0.0.1"); ok || count != 3 {
		t.Errorf("Expected the third connection to be refused, got %d %v", count, ok)
	}
	if _, ok := limiter.acquire("10.0.0.2"); !ok {
		t.Errorf("Expected another IP to get its own slots")
	}

	if left := limiter.release("10.0.0.1"); left != 1 {
		t.Errorf("Expected 1 connection left, got %d", left)
	}
	limiter.release("10.0.0.1")
	if _, present := limiter.counts["10.0.0.1"]; present {
		t.Errorf("Expected an idle IP to be forgotten")
	}
}

func TestConnectionLimiterConcurrent(t *testing.T) {
	limiter := newConnectionLimiter(5)
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := limiter.acquire("10.0.0.9"); ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if granted != 5 {
		t.Errorf("Expected exactly 5 slots granted, got %d", granted)
	}
}
