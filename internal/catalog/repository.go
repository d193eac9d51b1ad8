package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/jamesprial/catalog-admin/internal/graphql"
)

const (
	defaultPageSize  = 100
	valuePageSize    = 100
	productTypePage  = 100
	categoryPageSize = 100
)

var _ Repository = (*GraphQLRepository)(nil)

// GraphQLRepository implements Repository against the backend GraphQL API.
type GraphQLRepository struct {
	client graphql.Uploader
	logger *zap.Logger
}

// NewGraphQLRepository returns a repository that sends every operation
// through client. A nil logger is replaced with a no-op logger.
func NewGraphQLRepository(client graphql.Uploader, logger *zap.Logger) *GraphQLRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphQLRepository{client: client, logger: logger}
}

// exec runs a document and decodes the data into out.
func (r *GraphQLRepository) exec(ctx context.Context, op, doc string, vars map[string]any, out any) error {
	data, err := r.client.Execute(ctx, doc, vars)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Wire shapes
// ---------------------------------------------------------------------------

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type valueConnection struct {
	Edges []struct {
		Node AttributeValue `json:"node"`
	} `json:"edges"`
	PageInfo pageInfo `json:"pageInfo"`
}

func (c *valueConnection) values() []AttributeValue {
	if c == nil {
		return nil
	}
	out := make([]AttributeValue, 0, len(c.Edges))
	for _, e := range c.Edges {
		out = append(out, e.Node)
	}
	return out
}

type attributeNode struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Slug      string           `json:"slug"`
	InputType InputType        `json:"inputType"`
	Choices   *valueConnection `json:"choices"`
}

func (n *attributeNode) attribute() *Attribute {
	return &Attribute{
		ID:        n.ID,
		Name:      n.Name,
		Slug:      n.Slug,
		InputType: n.InputType,
		Values:    n.Choices.values(),
	}
}

type productNode struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Slug        string              `json:"slug"`
	Description *string             `json:"description"`
	Category    *CategoryRef        `json:"category"`
	ProductType *ProductType        `json:"productType"`
	Attributes  []SelectedAttribute `json:"attributes"`
	Metadata    []MetadataItem      `json:"metadata"`
	Media       []Media             `json:"media"`
	Variants    []Variant           `json:"variants"`
}

func (n *productNode) product() (*Product, error) {
	p := &Product{
		ID:          n.ID,
		Name:        n.Name,
		Slug:        n.Slug,
		Category:    n.Category,
		ProductType: n.ProductType,
		Attributes:  n.Attributes,
		Metadata:    n.Metadata,
		Media:       n.Media,
		Variants:    n.Variants,
	}
	if n.Description != nil {
		d, err := ParseDescription(*n.Description)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", n.Slug, err)
		}
		p.Description = d
	}
	return p, nil
}

// ---------------------------------------------------------------------------
// Attributes
// ---------------------------------------------------------------------------

// AttributeBySlug returns the attribute with all of its choice values, or
// nil when no attribute has the slug.
func (r *GraphQLRepository) AttributeBySlug(ctx context.Context, slug string) (*Attribute, error) {
	var resp struct {
		Attribute *attributeNode `json:"attribute"`
	}
	if err := r.exec(ctx, "attribute by slug", queryAttributeBySlug,
		map[string]any{"slug": slug, "first": valuePageSize}, &resp); err != nil {
		return nil, err
	}
	return r.completeAttribute(ctx, resp.Attribute)
}

// AttributeByID returns the attribute with all of its choice values, or nil.
func (r *GraphQLRepository) AttributeByID(ctx context.Context, id string) (*Attribute, error) {
	var resp struct {
		Attribute *attributeNode `json:"attribute"`
	}
	if err := r.exec(ctx, "attribute by id", queryAttributeByID,
		map[string]any{"id": id, "first": valuePageSize}, &resp); err != nil {
		return nil, err
	}
	return r.completeAttribute(ctx, resp.Attribute)
}

// completeAttribute fetches the remaining choice pages of n.
func (r *GraphQLRepository) completeAttribute(ctx context.Context, n *attributeNode) (*Attribute, error) {
	if n == nil {
		return nil, nil
	}
	attr := n.attribute()
	if n.Choices == nil || !n.Choices.PageInfo.HasNextPage {
		return attr, nil
	}
	rest, err := r.attributeValuesFrom(ctx, n.ID, n.Choices.PageInfo.EndCursor)
	if err != nil {
		return nil, err
	}
	attr.Values = append(attr.Values, rest...)
	return attr, nil
}

// SearchAttributes returns up to first attributes matching search.
func (r *GraphQLRepository) SearchAttributes(ctx context.Context, search string, first int) ([]Attribute, error) {
	if first <= 0 {
		first = defaultPageSize
	}
	var resp struct {
		Attributes struct {
			Edges []struct {
				Node attributeNode `json:"node"`
			} `json:"edges"`
		} `json:"attributes"`
	}
	if err := r.exec(ctx, "search attributes", querySearchAttributes,
		map[string]any{"search": search, "first": first}, &resp); err != nil {
		return nil, err
	}
	out := make([]Attribute, 0, len(resp.Attributes.Edges))
	for i := range resp.Attributes.Edges {
		attr, err := r.completeAttribute(ctx, &resp.Attributes.Edges[i].Node)
		if err != nil {
			return nil, err
		}
		out = append(out, *attr)
	}
	return out, nil
}

// CreateAttribute creates a product attribute.
func (r *GraphQLRepository) CreateAttribute(ctx context.Context, in AttributeInput) (*Attribute, error) {
	var resp struct {
		AttributeCreate struct {
			Attribute *Attribute   `json:"attribute"`
			Errors    []FieldError `json:"errors"`
		} `json:"attributeCreate"`
	}
	input := map[string]any{
		"name":          in.Name,
		"slug":          in.Slug,
		"type":          "PRODUCT_TYPE",
		"inputType":     string(in.InputType),
		"valueRequired": in.ValueRequired,
	}
	if err := r.exec(ctx, "attributeCreate", mutationAttributeCreate, map[string]any{"input": input}, &resp); err != nil {
		return nil, err
	}
	if err := mutationErr("attributeCreate", resp.AttributeCreate.Errors); err != nil {
		return nil, err
	}
	if resp.AttributeCreate.Attribute == nil {
		return nil, fmt.Errorf("attributeCreate: no attribute returned")
	}
	r.logger.Info("attribute created", zap.String("slug", in.Slug), zap.String("id", resp.AttributeCreate.Attribute.ID))
	return resp.AttributeCreate.Attribute, nil
}

// DeleteAttribute deletes an attribute. The backend unassigns it from
// product types.
func (r *GraphQLRepository) DeleteAttribute(ctx context.Context, id string) error {
	var resp struct {
		AttributeDelete struct {
			Errors []FieldError `json:"errors"`
		} `json:"attributeDelete"`
	}
	if err := r.exec(ctx, "attributeDelete", mutationAttributeDelete, map[string]any{"id": id}, &resp); err != nil {
		return err
	}
	return mutationErr("attributeDelete", resp.AttributeDelete.Errors)
}

// AttributeValues pages through every choice value of an attribute.
func (r *GraphQLRepository) AttributeValues(ctx context.Context, attributeID string) ([]AttributeValue, error) {
	return r.attributeValuesFrom(ctx, attributeID, "")
}

func (r *GraphQLRepository) attributeValuesFrom(ctx context.Context, attributeID, after string) ([]AttributeValue, error) {
	var out []AttributeValue
	for {
		vars := map[string]any{"id": attributeID, "first": valuePageSize}
		if after != "" {
			vars["after"] = after
		}
		var resp struct {
			Attribute *struct {
				Choices *valueConnection `json:"choices"`
			} `json:"attribute"`
		}
		if err := r.exec(ctx, "attribute choices", queryAttributeChoices, vars, &resp); err != nil {
			return nil, err
		}
		if resp.Attribute == nil {
			return nil, fmt.Errorf("attribute choices: attribute %s not found", attributeID)
		}
		out = append(out, resp.Attribute.Choices.values()...)
		if resp.Attribute.Choices == nil || !resp.Attribute.Choices.PageInfo.HasNextPage {
			return out, nil
		}
		after = resp.Attribute.Choices.PageInfo.EndCursor
	}
}

// CreateAttributeValue adds a choice value to an attribute.
func (r *GraphQLRepository) CreateAttributeValue(ctx context.Context, attributeID, name string) (*AttributeValue, error) {
	var resp struct {
		AttributeValueCreate struct {
			AttributeValue *AttributeValue `json:"attributeValue"`
			Errors         []FieldError    `json:"errors"`
		} `json:"attributeValueCreate"`
	}
	vars := map[string]any{
		"attribute": attributeID,
		"input":     map[string]any{"name": name},
	}
	if err := r.exec(ctx, "attributeValueCreate", mutationAttributeValueCreate, vars, &resp); err != nil {
		return nil, err
	}
	if err := mutationErr("attributeValueCreate", resp.AttributeValueCreate.Errors); err != nil {
		return nil, err
	}
	if resp.AttributeValueCreate.AttributeValue == nil {
		return nil, fmt.Errorf("attributeValueCreate: no value returned")
	}
	return resp.AttributeValueCreate.AttributeValue, nil
}

// DeleteAttributeValue deletes one choice value.
func (r *GraphQLRepository) DeleteAttributeValue(ctx context.Context, id string) error {
	var resp struct {
		AttributeValueDelete struct {
			Errors []FieldError `json:"errors"`
		} `json:"attributeValueDelete"`
	}
	if err := r.exec(ctx, "attributeValueDelete", mutationAttributeValueDelete, map[string]any{"id": id}, &resp); err != nil {
		return err
	}
	return mutationErr("attributeValueDelete", resp.AttributeValueDelete.Errors)
}

// ---------------------------------------------------------------------------
// Product types, categories, channels
// ---------------------------------------------------------------------------

// ProductTypes returns every product type with its product attributes.
func (r *GraphQLRepository) ProductTypes(ctx context.Context) ([]ProductType, error) {
	var (
		out   []ProductType
		after string
	)
	for {
		vars := map[string]any{"first": productTypePage}
		if after != "" {
			vars["after"] = after
		}
		var resp struct {
			ProductTypes struct {
				Edges []struct {
					Node ProductType `json:"node"`
				} `json:"edges"`
				PageInfo pageInfo `json:"pageInfo"`
			} `json:"productTypes"`
		}
		if err := r.exec(ctx, "product types", queryProductTypes, vars, &resp); err != nil {
			return nil, err
		}
		for _, e := range resp.ProductTypes.Edges {
			out = append(out, e.Node)
		}
		if !resp.ProductTypes.PageInfo.HasNextPage {
			return out, nil
		}
		after = resp.ProductTypes.PageInfo.EndCursor
	}
}

// AssignProductAttributes assigns attributes to a product type as product
// level attributes.
func (r *GraphQLRepository) AssignProductAttributes(ctx context.Context, productTypeID string, attributeIDs ...string) error {
	if len(attributeIDs) == 0 {
		return nil
	}
	ops := make([]map[string]any, 0, len(attributeIDs))
	for _, id := range attributeIDs {
		ops = append(ops, map[string]any{"id": id, "type": "PRODUCT"})
	}
	var resp struct {
		ProductAttributeAssign struct {
			Errors []FieldError `json:"errors"`
		} `json:"productAttributeAssign"`
	}
	vars := map[string]any{"productTypeId": productTypeID, "operations": ops}
	if err := r.exec(ctx, "productAttributeAssign", mutationProductAttributeAssign, vars, &resp); err != nil {
		return err
	}
	return mutationErr("productAttributeAssign", resp.ProductAttributeAssign.Errors)
}

// CategoryBySlug returns the category or nil.
func (r *GraphQLRepository) CategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	var resp struct {
		Category *Category `json:"category"`
	}
	if err := r.exec(ctx, "category by slug", queryCategoryBySlug, map[string]any{"slug": slug}, &resp); err != nil {
		return nil, err
	}
	return resp.Category, nil
}

// Categories pages through every category.
func (r *GraphQLRepository) Categories(ctx context.Context) ([]Category, error) {
	var (
		out   []Category
		after string
	)
	for {
		vars := map[string]any{"first": categoryPageSize}
		if after != "" {
			vars["after"] = after
		}
		var resp struct {
			Categories struct {
				Edges []struct {
					Node Category `json:"node"`
				} `json:"edges"`
				PageInfo pageInfo `json:"pageInfo"`
			} `json:"categories"`
		}
		if err := r.exec(ctx, "categories", queryCategories, vars, &resp); err != nil {
			return nil, err
		}
		for _, e := range resp.Categories.Edges {
			out = append(out, e.Node)
		}
		if !resp.Categories.PageInfo.HasNextPage {
			return out, nil
		}
		after = resp.Categories.PageInfo.EndCursor
	}
}

// CreateCategory creates a category, under in.ParentID when set.
func (r *GraphQLRepository) CreateCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	var resp struct {
		CategoryCreate struct {
			Category *Category   `json:"category"`
			Errors   []FieldError `json:"errors"`
		} `json:"categoryCreate"`
	}
	vars := map[string]any{"input": map[string]any{"name": in.Name, "slug": in.Slug}}
	if in.ParentID != "" {
		vars["parent"] = in.ParentID
	}
	if err := r.exec(ctx, "categoryCreate", mutationCategoryCreate, vars, &resp); err != nil {
		return nil, err
	}
	if err := mutationErr("categoryCreate", resp.CategoryCreate.Errors); err != nil {
		return nil, err
	}
	if resp.CategoryCreate.Category == nil {
		return nil, fmt.Errorf("categoryCreate: no category returned")
	}
	r.logger.Info("category created", zap.String("slug", in.Slug), zap.String("id", resp.CategoryCreate.Category.ID))
	return resp.CategoryCreate.Category, nil
}

// Channels returns every sales channel.
func (r *GraphQLRepository) Channels(ctx context.Context) ([]Channel, error) {
	var resp struct {
		Channels []Channel `json:"channels"`
	}
	if err := r.exec(ctx, "channels", queryChannels, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Channels, nil
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

func optional(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// ProductBySlug returns the product or nil. channel may be empty.
func (r *GraphQLRepository) ProductBySlug(ctx context.Context, slug, channel string) (*Product, error) {
	var resp struct {
		Product *productNode `json:"product"`
	}
	vars := map[string]any{"slug": slug, "channel": optional(channel)}
	if err := r.exec(ctx, "product by slug", queryProductBySlug, vars, &resp); err != nil {
		return nil, err
	}
	if resp.Product == nil {
		return nil, nil
	}
	return resp.Product.product()
}

// ProductsPage returns one page of products.
func (r *GraphQLRepository) ProductsPage(ctx context.Context, page PageRequest) (*ProductPage, error) {
	first := page.First
	if first <= 0 {
		first = defaultPageSize
	}
	vars := map[string]any{
		"first":   first,
		"after":   optional(page.After),
		"channel": optional(page.Channel),
		"search":  optional(page.Search),
	}
	var resp struct {
		Products struct {
			Edges []struct {
				Node productNode `json:"node"`
			} `json:"edges"`
			PageInfo pageInfo `json:"pageInfo"`
		} `json:"products"`
	}
	if err := r.exec(ctx, "products", queryProducts, vars, &resp); err != nil {
		return nil, err
	}
	out := &ProductPage{
		Products:    make([]Product, 0, len(resp.Products.Edges)),
		HasNextPage: resp.Products.PageInfo.HasNextPage,
		EndCursor:   resp.Products.PageInfo.EndCursor,
	}
	for i := range resp.Products.Edges {
		p, err := resp.Products.Edges[i].Node.product()
		if err != nil {
			return nil, err
		}
		out.Products = append(out.Products, *p)
	}
	return out, nil
}

// AllProducts pages through every product.
func (r *GraphQLRepository) AllProducts(ctx context.Context, pageSize int, channel string) ([]Product, error) {
	var (
		out   []Product
		after string
	)
	for {
		page, err := r.ProductsPage(ctx, PageRequest{First: pageSize, After: after, Channel: channel})
		if err != nil {
			return nil, err
		}
		out = append(out, page.Products...)
		if !page.HasNextPage || page.EndCursor == "" {
			return out, nil
		}
		after = page.EndCursor
	}
}

// CreateProduct creates a product.
func (r *GraphQLRepository) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	input := map[string]any{
		"name":        in.Name,
		"slug":        in.Slug,
		"productType": in.ProductTypeID,
	}
	if in.CategoryID != "" {
		input["category"] = in.CategoryID
	}
	if in.Description != nil {
		input["description"] = in.Description.String()
	}
	if len(in.Attributes) > 0 {
		input["attributes"] = in.Attributes
	}

	var resp struct {
		ProductCreate struct {
			Product *productNode `json:"product"`
			Errors  []FieldError `json:"errors"`
		} `json:"productCreate"`
	}
	if err := r.exec(ctx, "productCreate", mutationProductCreate, map[string]any{"input": input}, &resp); err != nil {
		return nil, err
	}
	if err := mutationErr("productCreate", resp.ProductCreate.Errors); err != nil {
		return nil, err
	}
	if resp.ProductCreate.Product == nil {
		return nil, fmt.Errorf("productCreate: no product returned")
	}
	r.logger.Info("product created", zap.String("slug", in.Slug), zap.String("id", resp.ProductCreate.Product.ID))
	return resp.ProductCreate.Product.product()
}

// UpdateProduct applies in to the product. Attribute assignments replace the
// product's values for each listed attribute.
func (r *GraphQLRepository) UpdateProduct(ctx context.Context, id string, in ProductUpdate) (*Product, error) {
	input := map[string]any{}
	if in.Name != "" {
		input["name"] = in.Name
	}
	if in.CategoryID != "" {
		input["category"] = in.CategoryID
	}
	if in.Description != nil {
		input["description"] = in.Description.String()
	}
	if len(in.Attributes) > 0 {
		input["attributes"] = in.Attributes
	}

	var resp struct {
		ProductUpdate struct {
			Product *productNode `json:"product"`
			Errors  []FieldError `json:"errors"`
		} `json:"productUpdate"`
	}
	if err := r.exec(ctx, "productUpdate", mutationProductUpdate, map[string]any{"id": id, "input": input}, &resp); err != nil {
		return nil, err
	}
	if err := mutationErr("productUpdate", resp.ProductUpdate.Errors); err != nil {
		return nil, err
	}
	if resp.ProductUpdate.Product == nil {
		return nil, fmt.Errorf("productUpdate: no product returned")
	}
	return resp.ProductUpdate.Product.product()
}

// DeleteProduct deletes a product.
func (r *GraphQLRepository) DeleteProduct(ctx context.Context, id string) error {
	var resp struct {
		ProductDelete struct {
			Errors []FieldError `json:"errors"`
		} `json:"productDelete"`
	}
	if err := r.exec(ctx, "productDelete", mutationProductDelete, map[string]any{"id": id}, &resp); err != nil {
		return err
	}
	return mutationErr("productDelete", resp.ProductDelete.Errors)
}

// CreateVariant creates a variant without variant attributes.
func (r *GraphQLRepository) CreateVariant(ctx context.Context, in VariantInput) (*Variant, error) {
	var resp struct {
		ProductVariantCreate struct {
			ProductVariant *Variant     `json:"productVariant"`
			Errors         []FieldError `json:"errors"`
		} `json:"productVariantCreate"`
	}
	input := map[string]any{
		"product":    in.ProductID,
		"sku":        in.SKU,
		"attributes": []any{},
	}
	if err := r.exec(ctx, "productVariantCreate", mutationVariantCreate, map[string]any{"input": input}, &resp); err != nil {
		return nil, err
	}
	if err := mutationErr("productVariantCreate", resp.ProductVariantCreate.Errors); err != nil {
		return nil, err
	}
	if resp.ProductVariantCreate.ProductVariant == nil {
		return nil, fmt.Errorf("productVariantCreate: no variant returned")
	}
	return resp.ProductVariantCreate.ProductVariant, nil
}

// UpdateVariantListings sets variant prices per channel.
func (r *GraphQLRepository) UpdateVariantListings(ctx context.Context, variantID string, listings []VariantListing) error {
	input := make([]map[string]any, 0, len(listings))
	for _, l := range listings {
		input = append(input, map[string]any{
			"channelId": l.ChannelID,
			"price":     l.Price,
			"costPrice": l.CostPrice,
		})
	}
	var resp struct {
		ProductVariantChannelListingUpdate struct {
			Errors []FieldError `json:"errors"`
		} `json:"productVariantChannelListingUpdate"`
	}
	vars := map[string]any{"id": variantID, "input": input}
	if err := r.exec(ctx, "productVariantChannelListingUpdate", mutationVariantChannelListingUpdate, vars, &resp); err != nil {
		return err
	}
	return mutationErr("productVariantChannelListingUpdate", resp.ProductVariantChannelListingUpdate.Errors)
}

// UpdateProductListings publishes the product in the listed channels.
func (r *GraphQLRepository) UpdateProductListings(ctx context.Context, productID string, listings []ProductListing) error {
	channels := make([]map[string]any, 0, len(listings))
	for _, l := range listings {
		ch := map[string]any{
			"channelId":              l.ChannelID,
			"isPublished":            l.IsPublished,
			"visibleInListings":      l.VisibleInListings,
			"isAvailableForPurchase": l.IsAvailableForPurchase,
		}
		if l.AvailableForPurchaseAt != "" {
			ch["availableForPurchaseAt"] = l.AvailableForPurchaseAt
		}
		channels = append(channels, ch)
	}
	var resp struct {
		ProductChannelListingUpdate struct {
			Errors []FieldError `json:"errors"`
		} `json:"productChannelListingUpdate"`
	}
	vars := map[string]any{"id": productID, "input": map[string]any{"updateChannels": channels}}
	if err := r.exec(ctx, "productChannelListingUpdate", mutationProductChannelListingUpdate, vars, &resp); err != nil {
		return err
	}
	return mutationErr("productChannelListingUpdate", resp.ProductChannelListingUpdate.Errors)
}

// UpdateMetadata upserts public metadata keys on any object with metadata
// and returns the object's resulting metadata.
func (r *GraphQLRepository) UpdateMetadata(ctx context.Context, id string, items []MetadataItem) ([]MetadataItem, error) {
	var resp struct {
		UpdateMetadata struct {
			Item *struct {
				Metadata []MetadataItem `json:"metadata"`
			} `json:"item"`
			Errors []FieldError `json:"errors"`
		} `json:"updateMetadata"`
	}
	if err := r.exec(ctx, "updateMetadata", mutationUpdateMetadata, map[string]any{"id": id, "input": items}, &resp); err != nil {
		return nil, err
	}
	if err := mutationErr("updateMetadata", resp.UpdateMetadata.Errors); err != nil {
		return nil, err
	}
	if resp.UpdateMetadata.Item == nil {
		return nil, nil
	}
	return resp.UpdateMetadata.Item.Metadata, nil
}

// CreateProductMedia uploads image as a new product media item.
func (r *GraphQLRepository) CreateProductMedia(ctx context.Context, productID, alt string, image graphql.File) (*Media, error) {
	vars := map[string]any{"product": productID, "alt": alt}
	data, err := r.client.Upload(ctx, mutationProductMediaCreate, vars, map[string]graphql.File{"variables.image": image})
	if err != nil {
		return nil, fmt.Errorf("productMediaCreate: %w", err)
	}
	var resp struct {
		ProductMediaCreate struct {
			Media  *Media       `json:"media"`
			Errors []FieldError `json:"errors"`
		} `json:"productMediaCreate"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("productMediaCreate: decode: %w", err)
	}
	if err := mutationErr("productMediaCreate", resp.ProductMediaCreate.Errors); err != nil {
		return nil, err
	}
	if resp.ProductMediaCreate.Media == nil {
		return nil, fmt.Errorf("productMediaCreate: no media returned")
	}
	return resp.ProductMediaCreate.Media, nil
}
