package searchindex

import (
	"context"
	"fmt"
	"time"

	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// BootstrapWeaviate ensures the Bookmark class exists with multi-tenancy
// enabled. A pre-existing class without multi-tenancy is dropped and
// recreated (dev/e2e convenience; production schemas are managed once).
func BootstrapWeaviate(ctx context.Context, baseURL string) error {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	bookmark := &models.Class{
		Class:      bookmarkClass,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "uuid", DataType: []string{"text"}},
			{Name: "organisationId", DataType: []string{"text"}},
			{Name: "collectionId", DataType: []string{"text"}},
			{Name: "url", DataType: []string{"text"}},
			{Name: "title", DataType: []string{"text"}},
			{Name: "description", DataType: []string{"text"}},
			{Name: "notes", DataType: []string{"text"}},
			{Name: "tags", DataType: []string{"text[]"}},
			{Name: "fullPage", DataType: []string{"text"}},
			{Name: "created", DataType: []string{"date"}},
		},
		MultiTenancyConfig: &models.MultiTenancyConfig{Enabled: true},
	}

	if err := ensureMTClass(cctx, cl, bookmark); err != nil {
		return fmt.Errorf("bootstrap Bookmark: %w", err)
	}
	return nil
}

func ensureMTClass(ctx context.Context, cl *weaviate.Client, desired *models.Class) error {
	ex, err := cl.Schema().ClassGetter().WithClassName(desired.Class).Do(ctx)
	if err == nil && ex != nil {
		if ex.MultiTenancyConfig != nil && ex.MultiTenancyConfig.Enabled {
			return nil
		}
		if err := cl.Schema().ClassDeleter().WithClassName(desired.Class).Do(ctx); err != nil {
			return fmt.Errorf("delete class %s: %w", desired.Class, err)
		}
	}
	if err := cl.Schema().ClassCreator().WithClass(desired).Do(ctx); err != nil {
		return fmt.Errorf("create class %s: %w", desired.Class, err)
	}
	return nil
}
