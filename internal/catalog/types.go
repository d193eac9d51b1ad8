// Package catalog models the catalog entities of the backend and provides a
// GraphQL-backed repository with natural-key lookups.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jamesprial/catalog-admin/internal/graphql"
)

// InputType is the kind of input an attribute accepts.
type InputType string

const (
	InputDropdown    InputType = "DROPDOWN"
	InputMultiselect InputType = "MULTISELECT"
	InputPlainText   InputType = "PLAIN_TEXT"
)

// Attribute is a typed product field with a set of choice values.
type Attribute struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Slug      string           `json:"slug"`
	InputType InputType        `json:"inputType"`
	Values    []AttributeValue `json:"values,omitempty"`
}

// ValueByName returns the choice value with exactly the given name.
func (a *Attribute) ValueByName(name string) (AttributeValue, bool) {
	for _, v := range a.Values {
		if v.Name == name {
			return v, true
		}
	}
	return AttributeValue{}, false
}

// HasValue reports whether id is one of the attribute's choice values.
func (a *Attribute) HasValue(id string) bool {
	for _, v := range a.Values {
		if v.ID == id {
			return true
		}
	}
	return false
}

// AttributeValue is one choice value of an attribute, unique by name within
// the attribute.
type AttributeValue struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug,omitempty"`
	PlainText string `json:"plainText,omitempty"`
}

// AttributeRef identifies an attribute without its values.
type AttributeRef struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name,omitempty"`
	InputType InputType `json:"inputType,omitempty"`
}

// Category is a node of the category tree.
type Category struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Slug   string       `json:"slug"`
	Parent *CategoryRef `json:"parent,omitempty"`
}

// CategoryRef identifies a category.
type CategoryRef struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// ProductType groups the attributes a product may carry.
type ProductType struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Slug              string         `json:"slug"`
	ProductAttributes []AttributeRef `json:"productAttributes,omitempty"`
}

// HasAttribute reports whether attributeID is assigned to the product type.
func (pt *ProductType) HasAttribute(attributeID string) bool {
	for _, a := range pt.ProductAttributes {
		if a.ID == attributeID {
			return true
		}
	}
	return false
}

// Channel is a sales context with its own pricing and publication state.
type Channel struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	CurrencyCode string `json:"currencyCode,omitempty"`
}

// MetadataItem is one public metadata key/value pair.
type MetadataItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Media is an image attached to a product.
type Media struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
	Alt string `json:"alt,omitempty"`
}

// Variant is a purchasable variant of a product.
type Variant struct {
	ID  string `json:"id"`
	SKU string `json:"sku"`
}

// SelectedAttribute is an attribute assignment on a product.
type SelectedAttribute struct {
	Attribute AttributeRef     `json:"attribute"`
	Values    []AttributeValue `json:"values"`
}

// ValueIDs returns the identifiers of the assigned values.
func (s SelectedAttribute) ValueIDs() []string {
	ids := make([]string, 0, len(s.Values))
	for _, v := range s.Values {
		if v.ID != "" {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

// Product is a catalog product. Fields not requested by a lookup stay zero.
type Product struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Slug        string              `json:"slug"`
	Description *Description        `json:"description,omitempty"`
	Category    *CategoryRef        `json:"category,omitempty"`
	ProductType *ProductType        `json:"productType,omitempty"`
	Attributes  []SelectedAttribute `json:"attributes,omitempty"`
	Metadata    []MetadataItem      `json:"metadata,omitempty"`
	Media       []Media             `json:"media,omitempty"`
	Variants    []Variant           `json:"variants,omitempty"`
}

// AttributeBySlug returns the product's assignment for the attribute slug.
func (p *Product) AttributeBySlug(slug string) (SelectedAttribute, bool) {
	for _, a := range p.Attributes {
		if a.Attribute.Slug == slug {
			return a, true
		}
	}
	return SelectedAttribute{}, false
}

// AttributeByID returns the product's assignment for the attribute id.
func (p *Product) AttributeByID(id string) (SelectedAttribute, bool) {
	for _, a := range p.Attributes {
		if a.Attribute.ID == id {
			return a, true
		}
	}
	return SelectedAttribute{}, false
}

// MetadataValue returns the value stored under key.
func (p *Product) MetadataValue(key string) (string, bool) {
	for _, m := range p.Metadata {
		if m.Key == key {
			return m.Value, true
		}
	}
	return "", false
}

// Description is an Editor.js style rich-text document. The backend stores
// it as a JSON string.
type Description struct {
	Time    int64   `json:"time,omitempty"`
	Blocks  []Block `json:"blocks"`
	Version string  `json:"version,omitempty"`
}

// Block is one rich-text block.
type Block struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Header returns a header block.
func Header(text string, level int) Block {
	return Block{Type: "header", Data: map[string]any{"text": text, "level": level}}
}

// Paragraph returns a paragraph block.
func Paragraph(text string) Block {
	return Block{Type: "paragraph", Data: map[string]any{"text": text}}
}

// List returns an unordered list block.
func List(items ...string) Block {
	return Block{Type: "list", Data: map[string]any{"style": "unordered", "items": items}}
}

// String encodes the description as the JSON string the backend expects.
func (d *Description) String() string {
	if d == nil {
		return ""
	}
	b, err := json.Marshal(d)
	if err != nil {
		return ""
	}
	return string(b)
}

// ParseDescription decodes a JSON string description. Empty input yields nil.
func ParseDescription(raw string) (*Description, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var d Description
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("decode description: %w", err)
	}
	return &d, nil
}

// ---------------------------------------------------------------------------
// Inputs
// ---------------------------------------------------------------------------

// AttributeInput creates a product attribute.
type AttributeInput struct {
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	InputType     InputType `json:"inputType"`
	ValueRequired bool      `json:"valueRequired"`
}

// CategoryInput creates a category. ParentID is optional.
type CategoryInput struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID string `json:"-"`
}

// ValueSelector picks an attribute value by id or, when ID is empty, by name.
type ValueSelector struct {
	ID    string `json:"id,omitempty"`
	Value string `json:"value,omitempty"`
}

// AttributeValueInput assigns values of one attribute to a product. Exactly
// one of Dropdown, Multiselect, PlainText or Values should be set.
type AttributeValueInput struct {
	ID          string          `json:"id"`
	Values      []string        `json:"values,omitempty"`
	Dropdown    *ValueSelector  `json:"dropdown,omitempty"`
	Multiselect []ValueSelector `json:"multiselect,omitempty"`
	PlainText   *string         `json:"plainText,omitempty"`
}

// DropdownValue selects a single choice value by id.
func DropdownValue(attributeID, valueID string) AttributeValueInput {
	return AttributeValueInput{ID: attributeID, Dropdown: &ValueSelector{ID: valueID}}
}

// MultiselectValues selects choice values by id.
func MultiselectValues(attributeID string, valueIDs ...string) AttributeValueInput {
	sel := make([]ValueSelector, 0, len(valueIDs))
	for _, id := range valueIDs {
		sel = append(sel, ValueSelector{ID: id})
	}
	return AttributeValueInput{ID: attributeID, Multiselect: sel}
}

// PlainTextValue sets a free-text attribute.
func PlainTextValue(attributeID, text string) AttributeValueInput {
	return AttributeValueInput{ID: attributeID, PlainText: &text}
}

// SelectValues builds the assignment appropriate for the attribute's input
// type. Dropdown attributes take the first id only.
func SelectValues(attr AttributeRef, valueIDs ...string) AttributeValueInput {
	if attr.InputType == InputDropdown && len(valueIDs) > 0 {
		return DropdownValue(attr.ID, valueIDs[0])
	}
	if attr.InputType == InputMultiselect {
		return MultiselectValues(attr.ID, valueIDs...)
	}
	return AttributeValueInput{ID: attr.ID, Values: valueIDs}
}

// ProductInput creates a product.
type ProductInput struct {
	Name          string
	Slug          string
	CategoryID    string
	ProductTypeID string
	Description   *Description
	Attributes    []AttributeValueInput
}

// ProductUpdate changes selected fields of a product; zero fields are left
// untouched.
type ProductUpdate struct {
	Name        string
	CategoryID  string
	Description *Description
	Attributes  []AttributeValueInput
}

// VariantInput creates a product variant.
type VariantInput struct {
	ProductID string
	SKU       string
}

// VariantListing is a variant's price in one channel.
type VariantListing struct {
	ChannelID string
	Price     float64
	CostPrice float64
}

// ProductListing is a product's publication state in one channel.
// AvailableForPurchaseAt is an RFC 3339 timestamp and may be empty.
type ProductListing struct {
	ChannelID              string
	IsPublished            bool
	VisibleInListings      bool
	IsAvailableForPurchase bool
	AvailableForPurchaseAt string
}

// PageRequest selects one page of a connection.
type PageRequest struct {
	First   int
	After   string
	Channel string
	Search  string
}

// ProductPage is one page of products.
type ProductPage struct {
	Products    []Product
	HasNextPage bool
	EndCursor   string
}

// ---------------------------------------------------------------------------
// Repository interfaces
// ---------------------------------------------------------------------------

// AttributeRepository manages attributes and their choice values. Lookups
// return (nil, nil) when the record does not exist.
type AttributeRepository interface {
	AttributeBySlug(ctx context.Context, slug string) (*Attribute, error)
	AttributeByID(ctx context.Context, id string) (*Attribute, error)
	SearchAttributes(ctx context.Context, search string, first int) ([]Attribute, error)
	CreateAttribute(ctx context.Context, in AttributeInput) (*Attribute, error)
	DeleteAttribute(ctx context.Context, id string) error
	AttributeValues(ctx context.Context, attributeID string) ([]AttributeValue, error)
	CreateAttributeValue(ctx context.Context, attributeID, name string) (*AttributeValue, error)
	DeleteAttributeValue(ctx context.Context, id string) error
}

// TypeRepository manages product types, categories and channels.
type TypeRepository interface {
	ProductTypes(ctx context.Context) ([]ProductType, error)
	AssignProductAttributes(ctx context.Context, productTypeID string, attributeIDs ...string) error
	CategoryBySlug(ctx context.Context, slug string) (*Category, error)
	Categories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, in CategoryInput) (*Category, error)
	Channels(ctx context.Context) ([]Channel, error)
}

// ProductRepository manages products and everything hanging off them.
type ProductRepository interface {
	ProductBySlug(ctx context.Context, slug, channel string) (*Product, error)
	ProductsPage(ctx context.Context, page PageRequest) (*ProductPage, error)
	AllProducts(ctx context.Context, pageSize int, channel string) ([]Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, id string, in ProductUpdate) (*Product, error)
	DeleteProduct(ctx context.Context, id string) error
	CreateVariant(ctx context.Context, in VariantInput) (*Variant, error)
	UpdateVariantListings(ctx context.Context, variantID string, listings []VariantListing) error
	UpdateProductListings(ctx context.Context, productID string, listings []ProductListing) error
	UpdateMetadata(ctx context.Context, id string, items []MetadataItem) ([]MetadataItem, error)
	CreateProductMedia(ctx context.Context, productID, alt string, image graphql.File) (*Media, error)
}

// Repository is the full catalog surface.
type Repository interface {
	AttributeRepository
	TypeRepository
	ProductRepository
}
