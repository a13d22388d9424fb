package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	wvgrpc "github.com/weaviate/weaviate-go-client/v4/weaviate/grpc"
	wvmodels "github.com/weaviate/weaviate/entities/models"

	"msvec/blocek/internal/logging"
	"msvec/blocek/internal/models"
	"msvec/blocek/internal/taxonomy"
)

// remoteStore is the Weaviate-backed tier.
type remoteStore struct {
	client *weaviate.Client
	tax    *taxonomy.Set
	log    logging.Logger
}

// openRemote connects to the configured Weaviate instance, verifies it is
// ready and ensures the record class exists. Any failure is returned to the
// resolver, which falls through to the next tier.
func openRemote(ctx context.Context, rc *RemoteConfig, tax *taxonomy.Set, log logging.Logger) (*remoteStore, error) {
	scheme := "http"
	if rc.HTTPSecure {
		scheme = "https"
	}

	cfg := weaviate.Config{
		Host:   fmt.Sprintf("%s:%d", rc.HTTPHost, rc.HTTPPort),
		Scheme: scheme,
		GrpcConfig: &wvgrpc.Config{
			Host:    fmt.Sprintf("%s:%d", rc.GRPCHost, rc.GRPCPort),
			Secured: rc.GRPCSecure,
		},
	}
	if rc.APIKey != "" {
		cfg.AuthConfig = auth.ApiKey{Value: rc.APIKey}
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating remote client: %w", err)
	}

	ready, err := client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("remote store unreachable: %w", err)
	}
	if !ready {
		return nil, fmt.Errorf("remote store not ready")
	}

	s := &remoteStore{client: client, tax: tax, log: log}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("error ensuring remote schema: %w", err)
	}
	return s, nil
}

// ensureSchema creates the record class if it does not exist yet.
func (s *remoteStore) ensureSchema(ctx context.Context) error {
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(ClassName).Do(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	class := &wvmodels.Class{
		Class: ClassName,
		Properties: []*wvmodels.Property{
			{Name: "product", DataType: []string{"text"}},
			{Name: "category", DataType: []string{"text"}},
			{Name: "price", DataType: []string{"number"}},
			{Name: "currency", DataType: []string{"text"}},
			{Name: "datetime", DataType: []string{"date"}},
			{Name: "health_delta", DataType: []string{"number"}},
			{Name: "happiness_delta", DataType: []string{"number"}},
			{Name: "receipt_text", DataType: []string{"text"}},
		},
	}
	return s.client.Schema().ClassCreator().WithClass(class).Do(ctx)
}

func (s *remoteStore) Insert(ctx context.Context, items []models.Item, receiptText string, timestamp time.Time) error {
	records := buildRecords(s.tax, items, receiptText, timestamp)
	if len(records) == 0 {
		return nil
	}

	objects := make([]*wvmodels.Object, 0, len(records))
	for _, rec := range records {
		price, _ := rec.Price.Float64()
		objects = append(objects, &wvmodels.Object{
			Class: ClassName,
			Properties: map[string]interface{}{
				"product":         rec.Product,
				"category":        rec.Category,
				"price":           price,
				"currency":        rec.Currency,
				"datetime":        rec.DateTime.Format(time.RFC3339),
				"health_delta":    rec.HealthDelta,
				"happiness_delta": rec.HappinessDelta,
				"receipt_text":    rec.ReceiptText,
			},
		})
	}

	if _, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx); err != nil {
		return fmt.Errorf("error inserting records into remote store: %w", err)
	}
	s.log.WithField("count", len(objects)).Debug("Inserted records into remote store")
	return nil
}

func (s *remoteStore) Query(ctx context.Context, limit int) ([]models.StoredRecord, error) {
	objects, err := s.client.Data().ObjectsGetter().
		WithClassName(ClassName).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("error querying remote store: %w", err)
	}

	records := make([]models.StoredRecord, 0, len(objects))
	for _, obj := range objects {
		props, ok := obj.Properties.(map[string]interface{})
		if !ok {
			continue
		}
		records = append(records, recordFromProperties(props))
	}
	return records, nil
}

func (s *remoteStore) Tier() Tier { return TierRemote }

func (s *remoteStore) Close() error { return nil }

// recordFromProperties rebuilds a StoredRecord from the flat property map the
// remote store returns.
func recordFromProperties(props map[string]interface{}) models.StoredRecord {
	rec := models.StoredRecord{
		Product:        propString(props, "product"),
		Category:       propString(props, "category"),
		Price:          decimal.NewFromFloat(propFloat(props, "price")),
		Currency:       propString(props, "currency"),
		HealthDelta:    int(propFloat(props, "health_delta")),
		HappinessDelta: int(propFloat(props, "happiness_delta")),
		ReceiptText:    propString(props, "receipt_text"),
	}
	if ts, err := time.Parse(time.RFC3339, propString(props, "datetime")); err == nil {
		rec.DateTime = ts
	}
	return rec
}

func propString(props map[string]interface{}, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func propFloat(props map[string]interface{}, key string) float64 {
	if v, ok := props[key].(float64); ok {
		return v
	}
	return 0
}
