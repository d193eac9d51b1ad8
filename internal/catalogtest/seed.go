package catalogtest

import (
	"slices"
	"sort"
)

// SeededAttribute is an attribute created by SeedAttribute.
type SeededAttribute struct {
	ID     string
	Values map[string]string // name -> id
}

// ProductSeed describes a product created by SeedProduct.
type ProductSeed struct {
	Name       string
	Slug       string
	TypeID     string
	CategoryID string
	// Attributes maps attribute ids to assigned value ids. Value ids need
	// not exist, which seeds a dangling reference.
	Attributes map[string][]string
	Metadata   map[string]string
	MediaURLs  []string
	// Unlisted leaves the product without channel listings, so channel
	// scoped product queries do not return it. Seeded products are
	// otherwise visible in every channel.
	Unlisted bool
}

// SeedChannel adds a sales channel and returns its id.
func (b *Backend) SeedChannel(slug, name, currency string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := &channel{ID: newID("Channel"), Name: name, Slug: slug, CurrencyCode: currency}
	b.channels = append(b.channels, c)
	return c.ID
}

// SeedAttribute adds an attribute with the given choice values.
func (b *Backend) SeedAttribute(slug, name, inputType string, values ...string) SeededAttribute {
	b.mu.Lock()
	defer b.mu.Unlock()
	a := &attribute{ID: newID("Attribute"), Name: name, Slug: slug, InputType: inputType}
	b.attributes = append(b.attributes, a)
	out := SeededAttribute{ID: a.ID, Values: make(map[string]string, len(values))}
	for _, v := range values {
		out.Values[v] = b.addValue(a, v, "").ID
	}
	return out
}

// SeedAttributeValue adds one choice value and returns its id.
func (b *Backend) SeedAttributeValue(attributeID, name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.attributeByID(attributeID)
	if a == nil {
		panic("catalogtest: unknown attribute " + attributeID)
	}
	return b.addValue(a, name, "").ID
}

// SeedProductType adds a product type carrying the given attributes.
func (b *Backend) SeedProductType(name string, attributeIDs ...string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	pt := &productType{ID: newID("ProductType"), Name: name, Slug: slugify(name), assignIDs: append([]string(nil), attributeIDs...)}
	b.productTypes = append(b.productTypes, pt)
	return pt.ID
}

// SeedCategory adds a category. parentID may be empty.
func (b *Backend) SeedCategory(slug, name, parentID string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := &category{ID: newID("Category"), Name: name, Slug: slug, parentID: parentID}
	b.categories = append(b.categories, c)
	return c.ID
}

// SeedProduct adds a product. Attribute ids are assigned in sorted order.
func (b *Backend) SeedProduct(s ProductSeed) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	pr := &product{
		ID:         newID("Product"),
		Name:       s.Name,
		Slug:       s.Slug,
		categoryID: s.CategoryID,
		typeID:     s.TypeID,
		listings:   map[string]listing{},
		everywhere: !s.Unlisted,
	}
	attrIDs := make([]string, 0, len(s.Attributes))
	for id := range s.Attributes {
		attrIDs = append(attrIDs, id)
	}
	sort.Strings(attrIDs)
	for _, id := range attrIDs {
		pr.assigned = append(pr.assigned, assignment{attributeID: id, valueIDs: append([]string(nil), s.Attributes[id]...)})
	}
	keys := make([]string, 0, len(s.Metadata))
	for k := range s.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pr.Metadata = append(pr.Metadata, metaItem{Key: k, Value: s.Metadata[k]})
	}
	for _, u := range s.MediaURLs {
		pr.Media = append(pr.Media, &media{ID: newID("ProductMedia"), URL: u})
	}
	b.products = append(b.products, pr)
	return pr.ID
}

// ---------------------------------------------------------------------------
// Inspection
// ---------------------------------------------------------------------------

// Calls returns how many times the named mutation was executed.
func (b *Backend) Calls(mutation string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[mutation]
}

// MutationCount returns the total number of mutations executed, excluding
// tokenCreate.
func (b *Backend) MutationCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for name, c := range b.calls {
		if name != "tokenCreate" {
			n += c
		}
	}
	return n
}

// Requests returns the number of GraphQL requests served.
func (b *Backend) Requests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests
}

// References counts products whose assignments still hold valueID.
func (b *Backend) References(valueID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, pr := range b.products {
		for _, as := range pr.assigned {
			if slices.Contains(as.valueIDs, valueID) {
				n++
				break
			}
		}
	}
	return n
}

// ValueExists reports whether the attribute value still exists.
func (b *Backend) ValueExists(valueID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.values[valueID] != nil
}

// ProductValueIDs returns the value ids a product holds for an attribute.
func (b *Backend) ProductValueIDs(productSlug, attributeSlug string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	pr, a := b.productBySlug(productSlug), b.attributeBySlug(attributeSlug)
	if pr == nil || a == nil {
		return nil
	}
	for _, as := range pr.assigned {
		if as.attributeID == a.ID {
			return append([]string(nil), as.valueIDs...)
		}
	}
	return nil
}

// ProductValueNames is ProductValueIDs resolved to value names. Dangling
// references appear as their id.
func (b *Backend) ProductValueNames(productSlug, attributeSlug string) []string {
	ids := b.ProductValueIDs(productSlug, attributeSlug)
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if v := b.values[id]; v != nil {
			out = append(out, v.Name)
		} else {
			out = append(out, id)
		}
	}
	return out
}

// AttributeValueNames lists an attribute's choice value names in creation
// order. ok is false when the attribute does not exist.
func (b *Backend) AttributeValueNames(attributeSlug string) (names []string, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.attributeBySlug(attributeSlug)
	if a == nil {
		return nil, false
	}
	for _, id := range a.valueIDs {
		names = append(names, b.values[id].Name)
	}
	return names, true
}

// AttributeInputType returns the input type of the attribute, or "".
func (b *Backend) AttributeInputType(attributeSlug string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a := b.attributeBySlug(attributeSlug); a != nil {
		return a.InputType
	}
	return ""
}

// AttributeCount returns the number of attributes.
func (b *Backend) AttributeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.attributes)
}

// ProductTypeHasAttribute reports whether the named product type carries the
// attribute.
func (b *Backend) ProductTypeHasAttribute(typeName, attributeSlug string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.attributeBySlug(attributeSlug)
	if a == nil {
		return false
	}
	for _, pt := range b.productTypes {
		if pt.Name == typeName {
			return pt.has(a.ID)
		}
	}
	return false
}

// CategoryParent returns the slug of the category's parent, or "".
func (b *Backend) CategoryParent(slug string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.categoryBySlug(slug)
	if c == nil || c.parentID == "" {
		return ""
	}
	if parent := b.categoryByID(c.parentID); parent != nil {
		return parent.Slug
	}
	return ""
}

// CategoryCount returns the number of categories.
func (b *Backend) CategoryCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.categories)
}

// ProductCategory returns the slug of the product's category, or "".
func (b *Backend) ProductCategory(productSlug string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	pr := b.productBySlug(productSlug)
	if pr == nil {
		return ""
	}
	if c := b.categoryByID(pr.categoryID); c != nil {
		return c.Slug
	}
	return ""
}

// ProductExists reports whether a product with the slug exists.
func (b *Backend) ProductExists(slug string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.productBySlug(slug) != nil
}

// ProductCount returns the number of products.
func (b *Backend) ProductCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.products)
}

// ProductMetadata returns the product's metadata value for key.
func (b *Backend) ProductMetadata(productSlug, key string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pr := b.productBySlug(productSlug)
	if pr == nil {
		return "", false
	}
	for _, m := range pr.Metadata {
		if m.Key == key {
			return m.Value, true
		}
	}
	return "", false
}

// ProductDescription returns the product's raw description JSON.
func (b *Backend) ProductDescription(productSlug string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	pr := b.productBySlug(productSlug)
	if pr == nil || pr.Description == nil {
		return ""
	}
	return *pr.Description
}

// ProductMedia returns the alt texts of the product's media in order.
func (b *Backend) ProductMedia(productSlug string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	pr := b.productBySlug(productSlug)
	if pr == nil {
		return nil
	}
	out := make([]string, 0, len(pr.Media))
	for _, m := range pr.Media {
		out = append(out, m.Alt)
	}
	return out
}

// ProductSKUs returns the SKUs of the product's variants.
func (b *Backend) ProductSKUs(productSlug string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	pr := b.productBySlug(productSlug)
	if pr == nil {
		return nil
	}
	out := make([]string, 0, len(pr.variantIDs))
	for _, id := range pr.variantIDs {
		out = append(out, b.variants[id].SKU)
	}
	return out
}

// VariantPrice returns the price of the product's first variant in the
// channel.
func (b *Backend) VariantPrice(productSlug, channelSlug string) (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pr, ch := b.productBySlug(productSlug), b.channelBySlug(channelSlug)
	if pr == nil || ch == nil || len(pr.variantIDs) == 0 {
		return 0, false
	}
	p, ok := b.variants[pr.variantIDs[0]].prices[ch.ID]
	return p.amount, ok
}

// ProductPublished reports whether the product is published and available
// for purchase in the channel.
func (b *Backend) ProductPublished(productSlug, channelSlug string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	pr, ch := b.productBySlug(productSlug), b.channelBySlug(channelSlug)
	if pr == nil || ch == nil {
		return false
	}
	l, ok := pr.listings[ch.ID]
	return ok && l.published && l.available
}
