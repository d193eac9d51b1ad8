package migrations

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jamesprial/catalog-admin/internal/catalog"
	"github.com/jamesprial/catalog-admin/internal/upsert"
)

// findAmenities returns the existing amenities attribute, by slug first and
// then by search.
func findAmenities(ctx context.Context, env *Env, p AmenitiesPlan) (*catalog.Attribute, error) {
	a, err := env.Repo.AttributeBySlug(ctx, p.Attribute.Slug)
	if err != nil || a != nil || p.Search == "" {
		return a, err
	}
	found, err := env.Repo.SearchAttributes(ctx, p.Search, 1)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return env.Repo.AttributeByID(ctx, found[0].ID)
}

// pickProductType returns the first product type whose name contains one of
// the patterns, or the first product type when none does.
func pickProductType(types []catalog.ProductType, patterns []string) *catalog.ProductType {
	for i := range types {
		for _, p := range patterns {
			if strings.Contains(types[i].Name, p) {
				return &types[i]
			}
		}
	}
	if len(types) > 0 {
		return &types[0]
	}
	return nil
}

func runAmenities(ctx context.Context, env *Env, plan *Plan) (*Result, error) {
	p := plan.Amenities
	res := &Result{}
	log := env.logger()

	attr, err := findAmenities(ctx, env, p)
	if err != nil {
		return res, err
	}
	if attr != nil && attr.InputType != catalog.InputMultiselect {
		if err := env.AttributeFilter.Check("attribute", attr.Slug); err != nil {
			return res, fmt.Errorf("recreate %s as multiselect: %w", attr.Slug, err)
		}
		start := time.Now()
		err := env.Repo.DeleteAttribute(ctx, attr.ID)
		env.record("attributeDelete", attr.Slug, map[string]any{"input_type": attr.InputType}, start, err)
		if err != nil {
			return res, err
		}
		res.Deleted++
		res.note("%s: recreated as multiselect (was %s)", attr.Slug, attr.InputType)
		log.Info("attribute recreated", zap.String("attribute", attr.Slug), zap.String("was", string(attr.InputType)))
		attr = nil
	}

	ref := catalog.AttributeRef{Slug: p.Attribute.Slug, InputType: catalog.InputMultiselect}
	if attr != nil {
		ref.ID, ref.Slug = attr.ID, attr.Slug
	} else {
		start := time.Now()
		out, err := upsert.Upsert(ctx, catalog.AttributeStore{Repo: env.Repo}, p.Attribute.Slug,
			catalog.AttributeInput{Name: p.Attribute.Name, InputType: catalog.InputMultiselect})
		if out.Created || err != nil {
			env.record("attributeCreate", p.Attribute.Slug, map[string]any{"name": p.Attribute.Name}, start, err)
		}
		if err != nil {
			return res, err
		}
		res.count(out)
		ref.ID = out.ID
	}

	values, err := upsertValues(ctx, env, res, ref.ID, p.Values)
	if err != nil {
		return res, err
	}

	types, err := env.Repo.ProductTypes(ctx)
	if err != nil {
		return res, err
	}
	if pt := pickProductType(types, p.ProductTypes); pt == nil {
		res.note("no product types; %s not assigned", ref.Slug)
	} else if err := ensureAssigned(ctx, env, res, pt, ref); err != nil {
		return res, err
	}

	defaults := make([]string, 0, len(p.Defaults))
	for _, d := range p.Defaults {
		defaults = append(defaults, values[d])
	}

	products, err := env.Repo.AllProducts(ctx, env.PageSize, "")
	if err != nil {
		return res, err
	}
	for _, prod := range products {
		if prod.ProductType == nil || !prod.ProductType.HasAttribute(ref.ID) {
			res.Skipped++
			continue
		}
		ids := defaults
		if !p.OverwriteValues {
			ids = mergeValues(prod, ref.ID, defaults)
		}
		err := env.mutate("productUpdate", prod.Slug, map[string]any{"attribute": ref.Slug, "values": len(ids)}, func() error {
			_, err := env.Repo.UpdateProduct(ctx, prod.ID, catalog.ProductUpdate{
				Attributes: []catalog.AttributeValueInput{catalog.MultiselectValues(ref.ID, ids...)},
			})
			return err
		})
		if skipBlocked(res, log, prod.Slug, err) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("update %s: %w", prod.Slug, err)
		}
		res.Updated++
	}
	log.Info("amenities assigned", zap.Int("products", res.Updated), zap.Int("skipped", res.Skipped))
	return res, nil
}

// mergeValues keeps the product's current values and appends the missing
// defaults.
func mergeValues(prod catalog.Product, attributeID string, defaults []string) []string {
	sel, _ := prod.AttributeByID(attributeID)
	out := sel.ValueIDs()
	for _, id := range defaults {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
