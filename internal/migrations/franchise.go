package migrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jamesprial/catalog-admin/internal/catalog"
	"github.com/jamesprial/catalog-admin/internal/safety"
	"github.com/jamesprial/catalog-admin/internal/upsert"
)

// skipBlocked reports whether err is a filter refusal and, if so, counts
// the product as skipped.
func skipBlocked(res *Result, log *zap.Logger, slug string, err error) bool {
	var blocked *safety.BlockedError
	if !errors.As(err, &blocked) {
		return false
	}
	log.Warn("product blocked by filter", zap.String("slug", slug))
	res.Skipped++
	res.note("%s: blocked by safety filter", slug)
	return true
}

// upsertValues makes sure every name is a choice value of the attribute and
// returns the name to id mapping.
func upsertValues(ctx context.Context, env *Env, res *Result, attributeID string, names []string) (map[string]string, error) {
	items := make([]upsert.Item[string, struct{}], 0, len(names))
	for _, n := range names {
		items = append(items, upsert.Item[string, struct{}]{Key: n})
	}
	start := time.Now()
	outcomes, err := upsert.UpsertSet(ctx, catalog.AttributeValueSet{Repo: env.Repo, AttributeID: attributeID}, items)
	counts := upsert.Tally(outcomes)
	if counts.Created > 0 || err != nil {
		env.record("attributeValueCreate", attributeID, map[string]any{"values": names, "created": counts.Created}, start, err)
	}
	res.tally(counts)
	if err != nil {
		return nil, err
	}
	return upsert.IDs(items, outcomes), nil
}

func ensureAssigned(ctx context.Context, env *Env, res *Result, pt *catalog.ProductType, attr catalog.AttributeRef) error {
	start := time.Now()
	assigned, err := catalog.EnsureAssigned(ctx, env.Repo, pt, attr.ID)
	if assigned || err != nil {
		env.record("productAttributeAssign", pt.Name, map[string]any{"attribute": attr.Slug}, start, err)
	}
	if err != nil {
		return fmt.Errorf("assign %s to %q: %w", attr.Slug, pt.Name, err)
	}
	if assigned {
		res.Updated++
		env.logger().Info("attribute assigned", zap.String("attribute", attr.Slug), zap.String("product_type", pt.Name))
	}
	return nil
}

// ---------------------------------------------------------------------------
// franchise-category
// ---------------------------------------------------------------------------

func runFranchiseCategory(ctx context.Context, env *Env, plan *Plan) (*Result, error) {
	p := plan.FranchiseCategory
	res := &Result{}
	log := env.logger()

	start := time.Now()
	attr, err := upsert.Upsert(ctx, catalog.AttributeStore{Repo: env.Repo}, p.Attribute.Slug,
		catalog.AttributeInput{Name: p.Attribute.Name, InputType: catalog.InputDropdown})
	if attr.Created || err != nil {
		env.record("attributeCreate", p.Attribute.Slug, map[string]any{"name": p.Attribute.Name}, start, err)
	}
	if err != nil {
		return res, err
	}
	res.count(attr)
	ref := catalog.AttributeRef{ID: attr.ID, Slug: p.Attribute.Slug, InputType: catalog.InputDropdown}

	pt, err := catalog.ProductTypeByName(ctx, env.Repo, p.ProductType)
	if err != nil {
		return res, err
	}
	if pt == nil {
		res.note("product type %q not found; attribute not assigned", p.ProductType)
	} else if err := ensureAssigned(ctx, env, res, pt, ref); err != nil {
		return res, err
	}

	values, err := upsertValues(ctx, env, res, attr.ID, p.Values)
	if err != nil {
		return res, err
	}

	for _, pv := range p.Products {
		prod, err := env.Repo.ProductBySlug(ctx, pv.Slug, env.Channel)
		if err != nil {
			return res, err
		}
		if prod == nil {
			res.Skipped++
			res.note("%s: product not found", pv.Slug)
			continue
		}
		valueID := values[pv.Value]
		err = env.mutate("productUpdate", pv.Slug, map[string]any{"attribute": ref.Slug, "value": pv.Value}, func() error {
			_, err := env.Repo.UpdateProduct(ctx, prod.ID, catalog.ProductUpdate{
				Attributes: []catalog.AttributeValueInput{catalog.DropdownValue(attr.ID, valueID)},
			})
			return err
		})
		if skipBlocked(res, log, pv.Slug, err) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("update %s: %w", pv.Slug, err)
		}
		res.Updated++
		log.Info("franchise category set", zap.String("slug", pv.Slug), zap.String("value", pv.Value))
	}
	return res, nil
}

// ---------------------------------------------------------------------------
// franchise-categories
// ---------------------------------------------------------------------------

func runFranchiseCategories(ctx context.Context, env *Env, plan *Plan) (*Result, error) {
	p := plan.FranchiseCategories
	res := &Result{}
	log := env.logger()
	store := catalog.CategoryStore{Repo: env.Repo}

	upsertCategory := func(slug string, in catalog.CategoryInput) (string, error) {
		start := time.Now()
		out, err := upsert.Upsert(ctx, store, slug, in)
		if out.Created || err != nil {
			env.record("categoryCreate", slug, map[string]any{"name": in.Name, "parent": in.ParentID}, start, err)
		}
		res.count(out)
		return out.ID, err
	}

	parentID, err := upsertCategory(p.Parent.Slug, catalog.CategoryInput{Name: p.Parent.Name})
	if err != nil {
		return res, err
	}

	for _, g := range p.Groups {
		slug := p.SlugPrefix + g.Key
		childID, err := upsertCategory(slug, catalog.CategoryInput{Name: g.Name, ParentID: parentID})
		if err != nil {
			return res, err
		}

		for _, ps := range g.Products {
			prod, err := env.Repo.ProductBySlug(ctx, ps, env.Channel)
			if err != nil {
				return res, err
			}
			if prod == nil {
				res.Skipped++
				res.note("%s: product not found", ps)
				continue
			}
			err = env.mutate("productUpdate", ps, map[string]any{"category": slug}, func() error {
				_, err := env.Repo.UpdateProduct(ctx, prod.ID, catalog.ProductUpdate{CategoryID: childID})
				return err
			})
			if skipBlocked(res, log, ps, err) {
				continue
			}
			if err != nil {
				return res, fmt.Errorf("move %s: %w", ps, err)
			}
			res.Updated++
			log.Info("product moved", zap.String("slug", ps), zap.String("category", slug))
		}
	}

	if p.RemoveAttribute == "" {
		return res, nil
	}
	attr, err := env.Repo.AttributeBySlug(ctx, p.RemoveAttribute)
	if err != nil {
		return res, err
	}
	if attr == nil {
		return res, nil
	}
	if err := env.AttributeFilter.Check("attribute", attr.Slug); err != nil {
		res.Skipped++
		res.note("%v", err)
		log.Warn("attribute kept", zap.String("attribute", attr.Slug), zap.Error(err))
		return res, nil
	}
	start := time.Now()
	err = env.Repo.DeleteAttribute(ctx, attr.ID)
	env.record("attributeDelete", attr.Slug, nil, start, err)
	if err != nil {
		return res, err
	}
	res.Deleted++
	log.Info("attribute deleted", zap.String("attribute", attr.Slug))
	return res, nil
}

// ---------------------------------------------------------------------------
// franchises
// ---------------------------------------------------------------------------

// franchiseDescription renders the rich-text description of a franchise.
func franchiseDescription(f Franchise) *catalog.Description {
	return &catalog.Description{Blocks: []catalog.Block{
		catalog.Header("Franchise Overview", 2),
		catalog.Paragraph(fmt.Sprintf("This is a premium %s opportunity located in %s.", f.Subtype, f.Location)),
		catalog.Header("Key Highlights", 3),
		catalog.List(f.Features...),
		catalog.Paragraph("Expected ROI: " + f.ROI),
	}}
}

// textValue sets a free-text value, or picks/creates a value by name when the
// attribute is not plain text.
func textValue(a *catalog.Attribute, text string) catalog.AttributeValueInput {
	if a.InputType == catalog.InputPlainText {
		return catalog.PlainTextValue(a.ID, text)
	}
	return catalog.AttributeValueInput{ID: a.ID, Values: []string{text}}
}

type franchiseRefs struct {
	categoryID  string
	productType *catalog.ProductType
	channel     *catalog.Channel
	location    *catalog.Attribute
	country     *catalog.Attribute
	propType    *catalog.Attribute
	status      *catalog.Attribute
	yield       *catalog.Attribute
}

func resolveFranchiseRefs(ctx context.Context, env *Env, res *Result, p FranchisesPlan) (*franchiseRefs, error) {
	refs := &franchiseRefs{}

	cat, err := env.Repo.CategoryBySlug(ctx, p.Category)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, fmt.Errorf("category %q not found", p.Category)
	}
	refs.categoryID = cat.ID

	if refs.productType, err = catalog.ProductTypeByName(ctx, env.Repo, p.ProductType); err != nil {
		return nil, err
	}
	if refs.productType == nil {
		return nil, fmt.Errorf("product type %q not found", p.ProductType)
	}
	if refs.channel, err = catalog.ChannelBySlug(ctx, env.Repo, env.Channel); err != nil {
		return nil, err
	}

	for _, slot := range []struct {
		slug string
		dst  **catalog.Attribute
	}{
		{p.Attributes.Location, &refs.location},
		{p.Attributes.Country, &refs.country},
		{p.Attributes.PropertyType, &refs.propType},
		{p.Attributes.Status, &refs.status},
		{p.Attributes.Yield, &refs.yield},
	} {
		a, err := env.Repo.AttributeBySlug(ctx, slot.slug)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, fmt.Errorf("attribute %q not found", slot.slug)
		}
		*slot.dst = a
		if err := ensureAssigned(ctx, env, res, refs.productType, catalog.AttributeRef{ID: a.ID, Slug: a.Slug}); err != nil {
			return nil, err
		}
	}
	return refs, nil
}

func runFranchises(ctx context.Context, env *Env, plan *Plan) (*Result, error) {
	p := plan.Franchises
	res := &Result{}
	log := env.logger()

	refs, err := resolveFranchiseRefs(ctx, env, res, p)
	if err != nil {
		return res, err
	}
	franchiseValue, ok := refs.propType.ValueByName(p.PropertyTypeValue)
	if !ok {
		return res, fmt.Errorf("attribute %q has no value %q", refs.propType.Slug, p.PropertyTypeValue)
	}

	for _, f := range p.Items {
		statusName := p.StatusValue(f.Status)
		status, ok := refs.status.ValueByName(statusName)
		if !ok {
			return res, fmt.Errorf("attribute %q has no value %q", refs.status.Slug, statusName)
		}
		attrs := []catalog.AttributeValueInput{
			textValue(refs.location, f.Location),
			textValue(refs.country, p.Country),
			catalog.DropdownValue(refs.propType.ID, franchiseValue.ID),
			catalog.DropdownValue(refs.status.ID, status.ID),
			textValue(refs.yield, f.ROI),
		}

		if err := upsertFranchise(ctx, env, res, refs, p, f, attrs); err != nil {
			if skipBlocked(res, log, f.Slug, err) {
				continue
			}
			return res, fmt.Errorf("franchise %s: %w", f.Slug, err)
		}
	}
	return res, nil
}

// upsertFranchise creates the product or updates it in place, then makes
// sure it has a priced variant and is published in the channel.
func upsertFranchise(ctx context.Context, env *Env, res *Result, refs *franchiseRefs, p FranchisesPlan, f Franchise, attrs []catalog.AttributeValueInput) error {
	log := env.logger().With(zap.String("slug", f.Slug))
	desc := franchiseDescription(f)

	prod, err := env.Repo.ProductBySlug(ctx, f.Slug, env.Channel)
	if err != nil {
		return err
	}
	if prod == nil {
		err = env.mutate("productCreate", f.Slug, map[string]any{"name": f.Name}, func() error {
			prod, err = env.Repo.CreateProduct(ctx, catalog.ProductInput{
				Name:          f.Name,
				Slug:          f.Slug,
				CategoryID:    refs.categoryID,
				ProductTypeID: refs.productType.ID,
				Description:   desc,
				Attributes:    attrs,
			})
			return err
		})
		if err != nil {
			return err
		}
		res.Created++
		log.Info("franchise created", zap.String("id", prod.ID))
	} else {
		id := prod.ID
		err = env.mutate("productUpdate", f.Slug, map[string]any{"name": f.Name}, func() error {
			prod, err = env.Repo.UpdateProduct(ctx, id, catalog.ProductUpdate{
				Name:        f.Name,
				CategoryID:  refs.categoryID,
				Description: desc,
				Attributes:  attrs,
			})
			return err
		})
		if err != nil {
			return err
		}
		res.Updated++
		log.Info("franchise updated", zap.String("id", prod.ID))
	}

	var variantID string
	if len(prod.Variants) > 0 {
		variantID = prod.Variants[0].ID
	} else {
		sku := f.Slug + p.SKUSuffix
		err = env.mutate("productVariantCreate", f.Slug, map[string]any{"sku": sku}, func() error {
			v, err := env.Repo.CreateVariant(ctx, catalog.VariantInput{ProductID: prod.ID, SKU: sku})
			if err == nil {
				variantID = v.ID
			}
			return err
		})
		if err != nil {
			return err
		}
		res.Created++
	}

	err = env.mutate("productVariantChannelListingUpdate", f.Slug, map[string]any{"price": f.Price, "channel": refs.channel.Slug}, func() error {
		return env.Repo.UpdateVariantListings(ctx, variantID, []catalog.VariantListing{
			{ChannelID: refs.channel.ID, Price: f.Price, CostPrice: f.Price},
		})
	})
	if err != nil {
		return err
	}

	return env.mutate("productChannelListingUpdate", f.Slug, map[string]any{"channel": refs.channel.Slug}, func() error {
		return env.Repo.UpdateProductListings(ctx, prod.ID, []catalog.ProductListing{{
			ChannelID:              refs.channel.ID,
			IsPublished:            true,
			VisibleInListings:      true,
			IsAvailableForPurchase: true,
			AvailableForPurchaseAt: p.AvailableForPurchaseAt,
		}})
	})
}
