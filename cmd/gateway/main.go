package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/glowsign/display-app/internal/display"
	"github.com/glowsign/display-app/internal/gateway"
	"github.com/glowsign/display-app/internal/icons"
	"github.com/glowsign/display-app/internal/message"
	"github.com/glowsign/display-app/internal/messaging"
	"github.com/glowsign/display-app/internal/policy"
	"github.com/glowsign/display-app/internal/ratelimit"
)

func main() {
	config := gateway.DefaultServerConfig()

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		config.ListenAddr = addr
	}
	if v := os.Getenv("READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.ReadTimeout = d
		}
	}
	if v := os.Getenv("WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.WriteTimeout = d
		}
	}
	if v := os.Getenv("SUMMARY_TEXT"); v != "" {
		config.SummaryText = v
	}

	registryURL := os.Getenv("REGISTRY_URL")
	if registryURL == "" {
		log.Fatal("REGISTRY_URL is required (upstream icon source base URL)")
	}

	registryConfig := icons.DefaultRegistryConfig()
	if v := os.Getenv("ICON_FRESHNESS"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			registryConfig.Freshness = d
		}
	}

	// --- NATS ---
	natsConfig := messaging.DefaultNATSConfig()
	natsConfig.Name = "display-gateway"
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		natsConfig.URL = natsURL
	}
	natsClient, err := messaging.NewNATSClient(natsConfig)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}

	// --- Redis (optional: warm cache, rate limiting, state reads) ---
	var (
		rdb       *redis.Client
		iconCache *icons.Cache
		limiter   *ratelimit.Limiter
		states    gateway.StateReader
	)
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: redisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			cancel()
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		cancel()

		iconCache = icons.NewCache(rdb, 24*time.Hour)
		limiter = ratelimit.NewLimiter(rdb)
		states = display.NewStore(rdb)
	}

	registry := icons.NewRegistry(icons.NewClient(registryURL), iconCache, registryConfig)

	var policyOpts []policy.Option
	if os.Getenv("ALLOW_EMPTY") == "true" {
		policyOpts = append(policyOpts, policy.WithAllowEmpty())
	}
	validator := message.NewValidator(policy.NewCharacterClass(policyOpts...), message.DefaultSyntax())

	server := gateway.NewServer(config, registry, validator, natsClient, states, limiter)

	log.Printf("Display gateway starting")
	log.Printf("  listen_addr:    %s", config.ListenAddr)
	log.Printf("  registry_url:   %s", registryURL)
	log.Printf("  icon_freshness: %s", registryConfig.Freshness)
	log.Printf("  nats_url:       %s", natsConfig.URL)
	if rdb != nil {
		log.Printf("  redis_addr:     %s", rdb.Options().Addr)
	} else {
		log.Printf("  redis_addr:     (disabled)")
	}

	// Prime the snapshot so the first request does not pay the fetch.
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := registry.Refresh(ctx); err != nil {
			log.Printf("initial icon fetch failed (will retry on demand): %v", err)
		}
		cancel()
	}

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, initiating graceful shutdown...", sig)
		natsClient.Close()
		if err := server.Shutdown(); err != nil {
			log.Printf("shutdown error: %v", err)
		}
		if rdb != nil {
			if err := rdb.Close(); err != nil {
				log.Printf("redis close error: %v", err)
			}
		}
		os.Exit(0)
	}()

	if err := server.Start(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
