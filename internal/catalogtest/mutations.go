package catalogtest

import (
	"fmt"

	"github.com/graphql-go/graphql"
)

func (b *Backend) resolveAttributeCreate(p graphql.ResolveParams) (any, error) {
	input := obj(p.Args["input"])
	name := str(input["name"])
	slug := str(input["slug"])
	if slug == "" {
		slug = slugify(name)
	}
	if b.attributeBySlug(slug) != nil {
		return payload("attribute", nil, fieldError{Field: "slug", Message: "Attribute with this Slug already exists.", Code: "UNIQUE"}), nil
	}
	inputType := str(input["inputType"])
	if inputType == "" {
		inputType = "DROPDOWN"
	}
	required, _ := input["valueRequired"].(bool)
	a := &attribute{ID: newID("Attribute"), Name: name, Slug: slug, InputType: inputType, ValueRequired: required}
	b.attributes = append(b.attributes, a)
	return payload("attribute", a), nil
}

func (b *Backend) resolveAttributeAssign(p graphql.ResolveParams) (any, error) {
	pt := b.productTypeByID(str(p.Args["productTypeId"]))
	if pt == nil {
		return payload("productType", nil, notFound("productTypeId", "product type")), nil
	}
	ops := list(p.Args["operations"])
	for _, raw := range ops {
		id := str(obj(raw)["id"])
		if b.attributeByID(id) == nil {
			return payload("productType", nil, notFound("operations", "attribute")), nil
		}
		if pt.has(id) {
			return payload("productType", nil, fieldError{
				Field: "operations", Code: "ATTRIBUTE_ALREADY_ASSIGNED",
				Message: "Attribute already assigned to this product type.",
			}), nil
		}
	}
	for _, raw := range ops {
		pt.assignIDs = append(pt.assignIDs, str(obj(raw)["id"]))
	}
	return payload("productType", pt), nil
}

func (b *Backend) resolveCategoryCreate(p graphql.ResolveParams) (any, error) {
	input := obj(p.Args["input"])
	name := str(input["name"])
	slug := str(input["slug"])
	if slug == "" {
		slug = slugify(name)
	}
	if b.categoryBySlug(slug) != nil {
		return payload("category", nil, fieldError{Field: "slug", Message: "Category with this Slug already exists.", Code: "UNIQUE"}), nil
	}
	parentID := str(p.Args["parent"])
	if parentID != "" && b.categoryByID(parentID) == nil {
		return payload("category", nil, notFound("parent", "category")), nil
	}
	c := &category{ID: newID("Category"), Name: name, Slug: slug, parentID: parentID}
	b.categories = append(b.categories, c)
	return payload("category", c), nil
}

// resolveAssignments turns attribute inputs into value assignments for a
// product of type pt. Values given by name are created when missing.
func (b *Backend) resolveAssignments(pt *productType, raw []any) ([]assignment, *fieldError) {
	out := make([]assignment, 0, len(raw))
	for _, r := range raw {
		input := obj(r)
		a := b.attributeByID(str(input["id"]))
		if a == nil {
			fe := notFound("attributes", "attribute")
			return nil, &fe
		}
		if !pt.has(a.ID) {
			return nil, &fieldError{
				Field:   "attributes",
				Code:    "INVALID",
				Message: fmt.Sprintf("Attribute %q is not assigned to product type %q.", a.Slug, pt.Name),
			}
		}

		var ids []string
		add := func(id string) {
			for _, x := range ids {
				if x == id {
					return
				}
			}
			ids = append(ids, id)
		}
		selectValue := func(sel map[string]any) *fieldError {
			if id := str(sel["id"]); id != "" {
				if v := b.values[id]; v == nil || v.ownerID != a.ID {
					return &fieldError{Field: "attributes", Code: "INVALID", Message: fmt.Sprintf("Value %s does not belong to attribute %q.", id, a.Slug)}
				}
				add(id)
				return nil
			}
			name := str(sel["value"])
			if v := b.valueByName(a, name); v != nil {
				add(v.ID)
				return nil
			}
			add(b.addValue(a, name, "").ID)
			return nil
		}

		if d := obj(input["dropdown"]); d != nil {
			if fe := selectValue(d); fe != nil {
				return nil, fe
			}
		}
		for _, m := range list(input["multiselect"]) {
			if fe := selectValue(obj(m)); fe != nil {
				return nil, fe
			}
		}
		for _, v := range list(input["values"]) {
			s := str(v)
			if existing := b.values[s]; existing != nil && existing.ownerID == a.ID {
				add(s)
				continue
			}
			if fe := selectValue(map[string]any{"value": s}); fe != nil {
				return nil, fe
			}
		}
		if text, ok := input["plainText"].(string); ok {
			name := text
			if len(name) > 200 {
				name = name[:200]
			}
			if v := b.valueByName(a, name); v != nil && v.PlainText == text {
				add(v.ID)
			} else {
				add(b.addValue(a, name, text).ID)
			}
		}

		if a.ValueRequired && len(ids) == 0 {
			return nil, &fieldError{Field: "attributes", Code: "REQUIRED", Message: fmt.Sprintf("Attribute %q requires a value.", a.Slug)}
		}
		out = append(out, assignment{attributeID: a.ID, valueIDs: ids})
	}
	return out, nil
}

func (b *Backend) resolveProductCreate(p graphql.ResolveParams) (any, error) {
	input := obj(p.Args["input"])
	pt := b.productTypeByID(str(input["productType"]))
	if pt == nil {
		return payload("product", nil, notFound("productType", "product type")), nil
	}
	name := str(input["name"])
	slug := str(input["slug"])
	if slug == "" {
		slug = slugify(name)
	}
	if b.productBySlug(slug) != nil {
		return payload("product", nil, fieldError{Field: "slug", Message: "Product with this Slug already exists.", Code: "UNIQUE"}), nil
	}
	pr := &product{ID: newID("Product"), Name: name, Slug: slug, typeID: pt.ID, listings: map[string]listing{}}
	if fe := b.applyProductInput(pr, pt, input); fe != nil {
		return payload("product", nil, *fe), nil
	}
	b.products = append(b.products, pr)
	return payload("product", pr), nil
}

func (b *Backend) resolveProductUpdate(p graphql.ResolveParams) (any, error) {
	pr := b.productByID(str(p.Args["id"]))
	if pr == nil {
		return payload("product", nil, notFound("id", "product")), nil
	}
	input := obj(p.Args["input"])
	if slug := str(input["slug"]); slug != "" && slug != pr.Slug {
		if b.productBySlug(slug) != nil {
			return payload("product", nil, fieldError{Field: "slug", Message: "Product with this Slug already exists.", Code: "UNIQUE"}), nil
		}
		pr.Slug = slug
	}
	if name := str(input["name"]); name != "" {
		pr.Name = name
	}
	if fe := b.applyProductInput(pr, b.productTypeByID(pr.typeID), input); fe != nil {
		return payload("product", nil, *fe), nil
	}
	return payload("product", pr), nil
}

// applyProductInput sets category, description and attributes. Attributes
// listed in the input replace the product's values for those attributes.
func (b *Backend) applyProductInput(pr *product, pt *productType, input map[string]any) *fieldError {
	if id := str(input["category"]); id != "" {
		if b.categoryByID(id) == nil {
			fe := notFound("category", "category")
			return &fe
		}
		pr.categoryID = id
	}
	if d, ok := input["description"].(string); ok {
		pr.Description = &d
	}
	raw := list(input["attributes"])
	if len(raw) == 0 {
		return nil
	}
	if pt == nil {
		fe := notFound("productType", "product type")
		return &fe
	}
	assigned, fe := b.resolveAssignments(pt, raw)
	if fe != nil {
		return fe
	}
	for _, as := range assigned {
		replaced := false
		for i := range pr.assigned {
			if pr.assigned[i].attributeID == as.attributeID {
				pr.assigned[i] = as
				replaced = true
				break
			}
		}
		if !replaced {
			pr.assigned = append(pr.assigned, as)
		}
	}
	return nil
}

func (b *Backend) resolveVariantCreate(p graphql.ResolveParams) (any, error) {
	input := obj(p.Args["input"])
	pr := b.productByID(str(input["product"]))
	if pr == nil {
		return payload("productVariant", nil, notFound("product", "product")), nil
	}
	sku := str(input["sku"])
	if sku != "" {
		for _, v := range b.variants {
			if v.SKU == sku {
				return payload("productVariant", nil, fieldError{Field: "sku", Message: "Product variant with this SKU already exists.", Code: "UNIQUE"}), nil
			}
		}
	}
	v := &variant{ID: newID("ProductVariant"), SKU: sku, productID: pr.ID, prices: map[string]price{}}
	b.variants[v.ID] = v
	pr.variantIDs = append(pr.variantIDs, v.ID)
	return payload("productVariant", v), nil
}

func (b *Backend) resolveVariantListings(p graphql.ResolveParams) (any, error) {
	v := b.variants[str(p.Args["id"])]
	if v == nil {
		return payload("variant", nil, notFound("id", "variant")), nil
	}
	entries := list(p.Args["input"])
	for _, raw := range entries {
		if b.channelByID(str(obj(raw)["channelId"])) == nil {
			return payload("variant", nil, notFound("channelId", "channel")), nil
		}
	}
	for _, raw := range entries {
		e := obj(raw)
		amount, _ := e["price"].(float64)
		cost, _ := e["costPrice"].(float64)
		v.prices[str(e["channelId"])] = price{amount: amount, cost: cost}
	}
	return payload("variant", v), nil
}

func (b *Backend) resolveProductListings(p graphql.ResolveParams) (any, error) {
	pr := b.productByID(str(p.Args["id"]))
	if pr == nil {
		return payload("product", nil, notFound("id", "product")), nil
	}
	input := obj(p.Args["input"])
	updates := list(input["updateChannels"])
	for _, raw := range updates {
		if b.channelByID(str(obj(raw)["channelId"])) == nil {
			return payload("product", nil, notFound("channelId", "channel")), nil
		}
	}
	for _, raw := range updates {
		e := obj(raw)
		l := pr.listings[str(e["channelId"])]
		if v, ok := e["isPublished"].(bool); ok {
			l.published = v
		}
		if v, ok := e["visibleInListings"].(bool); ok {
			l.visible = v
		}
		if v, ok := e["isAvailableForPurchase"].(bool); ok {
			l.available = v
		}
		if v, ok := e["availableForPurchaseAt"].(string); ok {
			l.availableAt = v
		}
		pr.listings[str(e["channelId"])] = l
	}
	for _, id := range list(input["removeChannels"]) {
		delete(pr.listings, str(id))
	}
	return payload("product", pr), nil
}

func (b *Backend) resolveUpdateMetadata(p graphql.ResolveParams) (any, error) {
	pr := b.productByID(str(p.Args["id"]))
	if pr == nil {
		return payload("item", nil, notFound("id", "object")), nil
	}
	for _, raw := range list(p.Args["input"]) {
		e := obj(raw)
		key, value := str(e["key"]), str(e["value"])
		replaced := false
		for i := range pr.Metadata {
			if pr.Metadata[i].Key == key {
				pr.Metadata[i].Value = value
				replaced = true
				break
			}
		}
		if !replaced {
			pr.Metadata = append(pr.Metadata, metaItem{Key: key, Value: value})
		}
	}
	return payload("item", pr), nil
}

func (b *Backend) resolveMediaCreate(p graphql.ResolveParams) (any, error) {
	input := obj(p.Args["input"])
	pr := b.productByID(str(input["product"]))
	if pr == nil {
		return map[string]any{"product": nil, "media": nil, "errors": []fieldError{notFound("product", "product")}}, nil
	}
	var url string
	switch up := input["image"].(type) {
	case *Upload:
		if len(up.Data) == 0 {
			return map[string]any{"product": nil, "media": nil, "errors": []fieldError{{
				Field: "image", Code: "INVALID", Message: "Uploaded file is empty.",
			}}}, nil
		}
		url = fmt.Sprintf("/media/products/%s", up.Filename)
	default:
		url = str(input["mediaUrl"])
	}
	if url == "" {
		return map[string]any{"product": nil, "media": nil, "errors": []fieldError{{
			Field: "image", Code: "REQUIRED", Message: "Image or external URL is required.",
		}}}, nil
	}
	m := &media{ID: newID("ProductMedia"), URL: url, Alt: str(input["alt"])}
	pr.Media = append(pr.Media, m)
	return map[string]any{"product": pr, "media": m, "errors": []fieldError{}}, nil
}
