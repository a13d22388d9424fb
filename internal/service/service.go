// Package service wires the receipt pipeline together: text generation,
// extraction, storage and the ledger. The HTTP handlers and the CLI commands
// are thin layers over this package.
package service

import (
	"context"
	"fmt"
	"time"

	"msvec/blocek/internal/config"
	"msvec/blocek/internal/extraction"
	"msvec/blocek/internal/ledger"
	"msvec/blocek/internal/llm"
	"msvec/blocek/internal/logging"
	"msvec/blocek/internal/models"
	"msvec/blocek/internal/storage"
	"msvec/blocek/internal/taxonomy"
)

// Service runs the receipt pipeline over one resolved storage backend.
type Service struct {
	lm     llm.Generator
	parser *extraction.Parser
	store  storage.Store
	ledger *ledger.Engine
	tax    *taxonomy.Set
	log    logging.Logger
}

// SaveResult reports what persisting one receipt changed.
type SaveResult struct {
	ItemsSaved     int
	HealthDelta    int
	HappinessDelta int
	State          ledger.State
}

// New assembles a Service from its parts.
func New(lm llm.Generator, parser *extraction.Parser, store storage.Store, eng *ledger.Engine, tax *taxonomy.Set, log logging.Logger) *Service {
	return &Service{lm: lm, parser: parser, store: store, ledger: eng, tax: tax, log: log}
}

// Build constructs a fully wired Service from configuration: taxonomy,
// text-generation client, resolved storage backend and ledger engine.
func Build(ctx context.Context, cfg *config.Config, log logging.Logger) (*Service, error) {
	tax, err := taxonomy.LoadFile(cfg.Taxonomy.File, log)
	if err != nil {
		return nil, fmt.Errorf("error loading taxonomy: %w", err)
	}

	lmClient := llm.NewClient(llm.Options{
		Endpoint:    cfg.LM.Endpoint,
		Model:       cfg.LM.Model,
		APIKey:      cfg.LM.APIKey,
		Temperature: float32(cfg.LM.Temperature),
		MaxTokens:   cfg.LM.MaxTokens,
		Timeout:     time.Duration(cfg.LM.TimeoutSeconds) * time.Second,
	}, log)

	store := storage.Resolve(ctx, cfg, tax, log)
	eng := ledger.NewEngine(cfg.Ledger.StateFile, tax, log)

	return New(lmClient, extraction.NewParser(tax, log), store, eng, tax, log), nil
}

// Taxonomy returns the taxonomy this service classifies against.
func (s *Service) Taxonomy() *taxonomy.Set { return s.tax }

// StoreTier reports which storage backend was resolved.
func (s *Service) StoreTier() storage.Tier { return s.store.Tier() }

// ParseReceipt runs receipt text through the model and the extraction parser
// and returns the items with the batch deltas they would apply. Nothing is
// persisted. An empty item list is a recognized outcome, not an error: it
// covers both unparseable model output and failed generation calls (whose
// sentinel text parses to nothing).
func (s *Service) ParseReceipt(ctx context.Context, text string) ([]models.Item, int, int) {
	raw := s.lm.ParseReceiptText(ctx, text, s.tax)
	items := s.parser.Extract(raw)
	health, happiness := s.previewDeltas(items)

	s.log.WithField("items", len(items)).Info("Parsed receipt")
	return items, health, happiness
}

// SaveReceipt persists the items and applies their deltas to the ledger.
func (s *Service) SaveReceipt(ctx context.Context, items []models.Item, rawText string, timestamp time.Time) (SaveResult, error) {
	if len(items) == 0 {
		return SaveResult{}, fmt.Errorf("no items to save")
	}

	if err := s.store.Insert(ctx, items, rawText, timestamp); err != nil {
		return SaveResult{}, fmt.Errorf("error storing receipt items: %w", err)
	}

	health, happiness, state, err := s.ledger.Apply(items, timestamp)
	if err != nil {
		return SaveResult{}, fmt.Errorf("error updating ledger: %w", err)
	}

	s.log.WithField("items", len(items)).WithField("tier", s.store.Tier()).Info("Saved receipt")
	return SaveResult{
		ItemsSaved:     len(items),
		HealthDelta:    health,
		HappinessDelta: happiness,
		State:          state,
	}, nil
}

// ProcessReceipt is the full pipeline for one receipt: parse, then save.
func (s *Service) ProcessReceipt(ctx context.Context, text string, timestamp time.Time) ([]models.Item, SaveResult, error) {
	items, _, _ := s.ParseReceipt(ctx, text)
	if len(items) == 0 {
		return nil, SaveResult{}, fmt.Errorf("no items could be parsed from the receipt")
	}

	result, err := s.SaveReceipt(ctx, items, text, timestamp)
	if err != nil {
		return nil, SaveResult{}, err
	}
	return items, result, nil
}

// Records queries stored records from the active tier.
func (s *Service) Records(ctx context.Context, limit int) ([]models.StoredRecord, error) {
	return s.store.Query(ctx, limit)
}

// Stats returns the current ledger state.
func (s *Service) Stats() ledger.State {
	return s.ledger.Load()
}

// Chat answers a free-form question over all stored purchases. Returns the
// answer and how many records informed it.
func (s *Service) Chat(ctx context.Context, question string) (string, int, error) {
	records, err := s.store.Query(ctx, 500)
	if err != nil {
		return "", 0, fmt.Errorf("error loading records for chat: %w", err)
	}
	return s.lm.Summarize(ctx, question, records), len(records), nil
}

// Close releases the storage backend.
func (s *Service) Close() error {
	return s.store.Close()
}

func (s *Service) previewDeltas(items []models.Item) (health, happiness int) {
	for _, item := range items {
		h, p := s.tax.Deltas(item.Category)
		health += h
		happiness += p
	}
	return health, happiness
}
