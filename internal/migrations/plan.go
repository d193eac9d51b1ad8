package migrations

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/jamesprial/catalog-admin/internal/media"
	"github.com/jamesprial/catalog-admin/internal/repair"
)

//go:embed plan.yaml
var defaultPlan []byte

// NamedEntity is a slug and display name pair.
type NamedEntity struct {
	Slug string `yaml:"slug" json:"slug"`
	Name string `yaml:"name" json:"name"`
}

// ProductValue assigns one attribute value, by name, to a product.
type ProductValue struct {
	Slug  string `yaml:"slug" json:"slug"`
	Value string `yaml:"value" json:"value"`
}

// FranchiseCategoryPlan introduces the franchise category attribute.
type FranchiseCategoryPlan struct {
	Attribute   NamedEntity    `yaml:"attribute" json:"attribute"`
	ProductType string         `yaml:"product_type" json:"product_type"`
	Values      []string       `yaml:"values" json:"values"`
	Products    []ProductValue `yaml:"products" json:"products"`
}

// CategoryGroup is one child category and the products moved into it.
type CategoryGroup struct {
	Key      string   `yaml:"key" json:"key"`
	Name     string   `yaml:"name" json:"name"`
	Products []string `yaml:"products" json:"products"`
}

// FranchiseCategoriesPlan replaces the franchise attribute with a category
// tree.
type FranchiseCategoriesPlan struct {
	Parent          NamedEntity     `yaml:"parent" json:"parent"`
	SlugPrefix      string          `yaml:"slug_prefix" json:"slug_prefix"`
	Groups          []CategoryGroup `yaml:"groups" json:"groups"`
	RemoveAttribute string          `yaml:"remove_attribute" json:"remove_attribute,omitempty"`
}

// AmenitiesPlan sets up the multiselect amenities attribute.
type AmenitiesPlan struct {
	Attribute NamedEntity `yaml:"attribute" json:"attribute"`
	Search    string      `yaml:"search" json:"search"`
	// ProductTypes are matched by substring, in order. The first product
	// type is used when nothing matches.
	ProductTypes    []string `yaml:"product_types" json:"product_types"`
	Values          []string `yaml:"values" json:"values"`
	Defaults        []string `yaml:"defaults" json:"defaults"`
	OverwriteValues bool     `yaml:"overwrite_values" json:"overwrite_values,omitempty"`
}

// ConstructionPlan stores a JSON document in product metadata.
type ConstructionPlan struct {
	Product  string `yaml:"product" json:"product"`
	Key      string `yaml:"key" json:"key"`
	Document string `yaml:"document" json:"document"`
}

// FranchiseAttributes names the attribute slugs franchise products carry.
type FranchiseAttributes struct {
	Location     string `yaml:"location" json:"location"`
	Country      string `yaml:"country" json:"country"`
	PropertyType string `yaml:"property_type" json:"property_type"`
	Status       string `yaml:"status" json:"status"`
	Yield        string `yaml:"yield" json:"yield"`
}

// Franchise is one franchise product.
type Franchise struct {
	Name     string   `yaml:"name" json:"name"`
	Slug     string   `yaml:"slug" json:"slug"`
	Location string   `yaml:"location" json:"location"`
	Subtype  string   `yaml:"subtype" json:"subtype"`
	Price    float64  `yaml:"price" json:"price"`
	ROI      string   `yaml:"roi" json:"roi"`
	Status   string   `yaml:"status" json:"status"`
	Features []string `yaml:"features" json:"features"`
}

// FranchisesPlan upserts the franchise products.
type FranchisesPlan struct {
	Category               string              `yaml:"category" json:"category"`
	ProductType            string              `yaml:"product_type" json:"product_type"`
	SKUSuffix              string              `yaml:"sku_suffix" json:"sku_suffix"`
	AvailableForPurchaseAt string              `yaml:"available_for_purchase_at" json:"available_for_purchase_at"`
	Country                string              `yaml:"country" json:"country"`
	Attributes             FranchiseAttributes `yaml:"attributes" json:"attributes"`
	PropertyTypeValue      string              `yaml:"property_type_value" json:"property_type_value"`
	StatusValues           map[string]string   `yaml:"status_values" json:"status_values"`
	DefaultStatus          string              `yaml:"default_status" json:"default_status"`
	Items                  []Franchise         `yaml:"items" json:"items"`
}

// StatusValue maps a franchise status text to the status attribute value.
func (p *FranchisesPlan) StatusValue(status string) string {
	if v, ok := p.StatusValues[status]; ok {
		return v
	}
	return p.DefaultStatus
}

// InspectPlan configures the read-only inspections.
type InspectPlan struct {
	AttributeSearch string `yaml:"attribute_search" json:"attribute_search"`
}

// Plan is the whole migration input.
type Plan struct {
	FranchiseCategory   FranchiseCategoryPlan   `yaml:"franchise_category" json:"franchise_category"`
	FranchiseCategories FranchiseCategoriesPlan `yaml:"franchise_categories" json:"franchise_categories"`
	Repairs             []repair.Plan           `yaml:"repairs" json:"repairs"`
	Amenities           AmenitiesPlan           `yaml:"amenities" json:"amenities"`
	Construction        ConstructionPlan        `yaml:"construction" json:"construction"`
	Franchises          FranchisesPlan          `yaml:"franchises" json:"franchises"`
	Images              []media.Target          `yaml:"images" json:"images"`
	Inspect             InspectPlan             `yaml:"inspect" json:"inspect"`
}

// DefaultPlan returns the embedded plan.
func DefaultPlan() (*Plan, error) {
	return ParsePlan(defaultPlan)
}

// LoadPlan reads a plan file. An empty path yields the embedded plan.
func LoadPlan(path string) (*Plan, error) {
	if path == "" {
		return DefaultPlan()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan decodes and validates a YAML plan. Unknown keys are rejected.
func ParsePlan(data []byte) (*Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var p Plan
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the plan for values every migration relies on.
func (p *Plan) Validate() error {
	if doc := p.Construction.Document; doc != "" && !json.Valid([]byte(doc)) {
		return fmt.Errorf("plan: construction.document is not valid JSON")
	}
	for _, pv := range p.FranchiseCategory.Products {
		if !slices.Contains(p.FranchiseCategory.Values, pv.Value) {
			return fmt.Errorf("plan: franchise_category product %q uses unknown value %q", pv.Slug, pv.Value)
		}
	}
	for _, d := range p.Amenities.Defaults {
		if !slices.Contains(p.Amenities.Values, d) {
			return fmt.Errorf("plan: amenities default %q is not one of the values", d)
		}
	}
	for i, r := range p.Repairs {
		if r.Attribute == "" || len(r.Rules) == 0 {
			return fmt.Errorf("plan: repairs[%d] needs an attribute and rules", i)
		}
	}
	for _, img := range p.Images {
		if img.Slug == "" || img.URL == "" {
			return fmt.Errorf("plan: image entries need slug and url")
		}
	}
	return nil
}
