package migrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/jamesprial/catalog-admin/internal/catalog"
)

func runConstruction(ctx context.Context, env *Env, plan *Plan) (*Result, error) {
	p := plan.Construction
	res := &Result{}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(p.Document)); err != nil {
		return res, fmt.Errorf("construction document: %w", err)
	}
	doc := buf.String()

	prod, err := env.Repo.ProductBySlug(ctx, p.Product, env.Channel)
	if err != nil {
		return res, err
	}
	if prod == nil {
		res.Skipped++
		res.note("%s: product not found", p.Product)
		return res, nil
	}
	if current, ok := prod.MetadataValue(p.Key); ok && current == doc {
		res.Skipped++
		res.note("%s: %s unchanged", p.Product, p.Key)
		return res, nil
	}

	err = env.mutate("updateMetadata", p.Product, map[string]any{"key": p.Key, "bytes": len(doc)}, func() error {
		_, err := env.Repo.UpdateMetadata(ctx, prod.ID, []catalog.MetadataItem{{Key: p.Key, Value: doc}})
		return err
	})
	if skipBlocked(res, env.logger(), p.Product, err) {
		return res, nil
	}
	if err != nil {
		return res, err
	}
	res.Updated++
	env.logger().Info("metadata stored", zap.String("slug", p.Product), zap.String("key", p.Key))
	return res, nil
}
