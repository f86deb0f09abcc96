package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/acp-commerce-poc/simulator/internal/core"
	"github.com/acp-commerce-poc/simulator/internal/simulator/flow"
	"github.com/acp-commerce-poc/simulator/internal/simulator/model"
	"github.com/acp-commerce-poc/simulator/internal/simulator/repo"
	"github.com/acp-commerce-poc/simulator/internal/simulator/transport"
	logx "github.com/acp-commerce-poc/simulator/pkg/logger"
	pkgredis "github.com/acp-commerce-poc/simulator/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig defines all configurable parameters for the simulator,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config

	// Commerce backend
	Backend model.BackendConfig

	// Conversation behaviour
	Conversation model.ConversationConfig
}

func main() {
	fmt.Println("Conversational Commerce Simulator")
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	calls := model.NewCallLog()

	var backend transport.Backend
	switch cfg.Backend.Binding {
	case "mcp":
		backend = transport.NewMCPClient(cfg.Backend.BaseURL, calls)
	default:
		backend = transport.NewACPClient(cfg.Backend.BaseURL, calls)
	}
	fmt.Printf("Backend: %s (%s binding)\n", cfg.Backend.BaseURL, cfg.Backend.Binding)

	transcript, closeRepo, err := buildTranscriptRepo(cfg)
	if err != nil {
		log.Fatalf("Failed to initialise transcript store: %v", err)
	}
	defer closeRepo()

	typingDelay, err := time.ParseDuration(cfg.Conversation.TypingDelay)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TYPING_DELAY '%s': %v", cfg.Conversation.TypingDelay, err)
	}

	store := flow.NewStore(backend, transcript, flow.Config{
		ConversationID: "demo-conversation",
		TypingDelay:    typingDelay,
	})

	scriptedTurns := []struct {
		description string
		text        string
	}{
		{
			description: "Product search",
			text:        "I want to buy Nike Air Max shoes",
		},
		{
			description: "Add to cart",
			text:        "Add size 10 to my cart",
		},
		{
			description: "Shipping address",
			text:        "Ship to 123 Main St, New York, NY 10001",
		},
		{
			description: "Confirm purchase",
			text:        "yes",
		},
	}

	for i, turn := range scriptedTurns {
		fmt.Printf("\n🚀 Turn %d: %s\n", i+1, turn.description)
		fmt.Printf("User: %q\n", turn.text)

		if err := store.HandleUserMessage(ctx, turn.text); err != nil {
			log.Fatalf("Failed to handle turn %d: %v", i+1, err)
		}

		printLatestAssistant(ctx, store)
		fmt.Println("─────────────────────────────────────────────")
	}

	printCallLog(calls)
}

func buildTranscriptRepo(cfg AppConfig) (model.TranscriptRepository, func(), error) {
	if cfg.Conversation.Store != "redis" {
		return repo.NewMemoryTranscriptRepository(), func() {}, nil
	}

	rdb, err := cfg.Redis.New()
	if err != nil {
		return nil, nil, err
	}

	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("invalid CONVERSATION_TTL %q: %w", cfg.Conversation.TTL, err)
	}

	fmt.Println("Connected to Redis successfully")
	return repo.NewRedisTranscriptRepository(rdb, ttl), func() { rdb.Close() }, nil
}

func printLatestAssistant(ctx context.Context, store *flow.Store) {
	history, err := store.History(ctx)
	if err != nil {
		log.Printf("Warning: could not load transcript: %v", err)
		return
	}
	if len(history.Messages) == 0 {
		return
	}

	last := history.Messages[len(history.Messages)-1]
	if last.Role != model.RoleAssistant {
		return
	}

	fmt.Printf("Assistant: %s\n", last.Content)
	for _, p := range last.Products {
		fmt.Printf("  [product] %s — %.2f %s (%s)\n", p.Title, p.Price, p.Currency, p.Availability)
	}
	if summary := last.CheckoutSummary; summary != nil {
		fmt.Printf("  [summary] session %s (%s)\n", summary.ID, summary.Status)
		for _, opt := range summary.FulfillmentOptions {
			fmt.Printf("    shipping: %s — %s (%s)\n", opt.Title, opt.Cost, opt.Subtitle)
		}
		fmt.Printf("    total: %s %s\n", summary.Totals.Total.Value, summary.Totals.Total.Currency)
	}
	if order := last.OrderConfirmation; order != nil {
		fmt.Printf("  [order] %s → %s\n", order.Order.ID, order.Order.Permalink)
	}
}

func printCallLog(calls *model.CallLog) {
	fmt.Println("\nAPI call log:")
	for _, rec := range calls.Records() {
		fmt.Printf("  %s %s → %d (%s)\n", rec.Method, rec.Endpoint, rec.Status, rec.Duration.Round(time.Millisecond))
	}
}
