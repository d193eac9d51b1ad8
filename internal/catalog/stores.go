package catalog

import (
	"context"
	"fmt"
)

// The stores below adapt the repository to natural-key lookups: each exposes
// FindByKey and Create so it can drive an idempotent upsert.

// AttributeStore looks attributes up by slug.
type AttributeStore struct {
	Repo AttributeRepository
}

func (s AttributeStore) FindByKey(ctx context.Context, slug string) (string, bool, error) {
	a, err := s.Repo.AttributeBySlug(ctx, slug)
	if err != nil || a == nil {
		return "", false, err
	}
	return a.ID, true, nil
}

func (s AttributeStore) Create(ctx context.Context, slug string, in AttributeInput) (string, error) {
	in.Slug = slug
	a, err := s.Repo.CreateAttribute(ctx, in)
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

// CategoryStore looks categories up by slug.
type CategoryStore struct {
	Repo TypeRepository
}

func (s CategoryStore) FindByKey(ctx context.Context, slug string) (string, bool, error) {
	c, err := s.Repo.CategoryBySlug(ctx, slug)
	if err != nil || c == nil {
		return "", false, err
	}
	return c.ID, true, nil
}

func (s CategoryStore) Create(ctx context.Context, slug string, in CategoryInput) (string, error) {
	in.Slug = slug
	c, err := s.Repo.CreateCategory(ctx, in)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

// ProductStore looks products up by slug within Channel.
type ProductStore struct {
	Repo    ProductRepository
	Channel string
}

func (s ProductStore) FindByKey(ctx context.Context, slug string) (string, bool, error) {
	p, err := s.Repo.ProductBySlug(ctx, slug, s.Channel)
	if err != nil || p == nil {
		return "", false, err
	}
	return p.ID, true, nil
}

func (s ProductStore) Create(ctx context.Context, slug string, in ProductInput) (string, error) {
	in.Slug = slug
	p, err := s.Repo.CreateProduct(ctx, in)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// AttributeValueSet is the choice value set of one attribute, keyed by value
// name.
type AttributeValueSet struct {
	Repo        AttributeRepository
	AttributeID string
}

// Existing returns every choice value name mapped to its id.
func (s AttributeValueSet) Existing(ctx context.Context) (map[string]string, error) {
	values, err := s.Repo.AttributeValues(ctx, s.AttributeID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(values))
	for _, v := range values {
		out[v.Name] = v.ID
	}
	return out, nil
}

func (s AttributeValueSet) Create(ctx context.Context, name string, _ struct{}) (string, error) {
	v, err := s.Repo.CreateAttributeValue(ctx, s.AttributeID, name)
	if err != nil {
		return "", err
	}
	return v.ID, nil
}

// ProductTypeByName returns the product type with exactly the given name.
func ProductTypeByName(ctx context.Context, repo TypeRepository, name string) (*ProductType, error) {
	types, err := repo.ProductTypes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range types {
		if types[i].Name == name {
			return &types[i], nil
		}
	}
	return nil, nil
}

// ChannelBySlug returns the channel with the given slug.
func ChannelBySlug(ctx context.Context, repo TypeRepository, slug string) (*Channel, error) {
	channels, err := repo.Channels(ctx)
	if err != nil {
		return nil, err
	}
	for i := range channels {
		if channels[i].Slug == slug {
			return &channels[i], nil
		}
	}
	return nil, fmt.Errorf("channel %q not found", slug)
}

// EnsureAssigned assigns the attribute to the product type unless it is
// already one of its product attributes. It reports whether an assignment
// was made.
func EnsureAssigned(ctx context.Context, repo TypeRepository, pt *ProductType, attributeID string) (bool, error) {
	if pt.HasAttribute(attributeID) {
		return false, nil
	}
	if err := repo.AssignProductAttributes(ctx, pt.ID, attributeID); err != nil {
		return false, err
	}
	pt.ProductAttributes = append(pt.ProductAttributes, AttributeRef{ID: attributeID})
	return true, nil
}
