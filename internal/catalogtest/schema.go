package catalogtest

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

var errPermission = errors.New("you do not have permission to perform this action")

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type selected struct {
	Attribute *attribute   `json:"attribute"`
	Values    []*attrValue `json:"values"`
}

func payload(key string, obj any, errs ...fieldError) map[string]any {
	if errs == nil {
		errs = []fieldError{}
	}
	if len(errs) > 0 {
		obj = nil
	}
	return map[string]any{key: obj, "errors": errs}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

func obj(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func encodeCursor(i int) string {
	return base64.StdEncoding.EncodeToString([]byte("cursor:" + strconv.Itoa(i)))
}

func decodeCursor(c string) (int, error) {
	raw, err := base64.StdEncoding.DecodeString(c)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor %q", c)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(string(raw), "cursor:"))
	if err != nil {
		return 0, fmt.Errorf("invalid cursor %q", c)
	}
	return n, nil
}

// page slices items into a connection honouring first, after and the
// backend's page limit.
func page[T any](b *Backend, items []T, args map[string]any) (map[string]any, error) {
	first, _ := args["first"].(int)
	if first <= 0 {
		return nil, errors.New("you must provide a `first` value to properly paginate the connection")
	}
	if first > maxFirst {
		return nil, fmt.Errorf("requesting %d records exceeds the `first` limit of %d records", first, maxFirst)
	}
	if first > b.opts.PageLimit {
		first = b.opts.PageLimit
	}
	start := 0
	if after := str(args["after"]); after != "" {
		n, err := decodeCursor(after)
		if err != nil {
			return nil, err
		}
		start = n + 1
	}
	if start > len(items) {
		start = len(items)
	}
	end := min(start+first, len(items))

	edges := make([]any, 0, end-start)
	for i := start; i < end; i++ {
		edges = append(edges, map[string]any{"node": items[i], "cursor": encodeCursor(i)})
	}
	var endCursor any
	if end > start {
		endCursor = encodeCursor(end - 1)
	}
	return map[string]any{
		"edges":    edges,
		"pageInfo": map[string]any{"hasNextPage": end < len(items), "endCursor": endCursor},
	}, nil
}

func connection(name string, node graphql.Output, pageInfo *graphql.Object) *graphql.Object {
	edge := graphql.NewObject(graphql.ObjectConfig{
		Name: name + "CountableEdge",
		Fields: graphql.Fields{
			"node":   &graphql.Field{Type: graphql.NewNonNull(node)},
			"cursor": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	return graphql.NewObject(graphql.ObjectConfig{
		Name: name + "CountableConnection",
		Fields: graphql.Fields{
			"edges":    &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(edge)))},
			"pageInfo": &graphql.Field{Type: graphql.NewNonNull(pageInfo)},
		},
	})
}

func enum(name string, values ...string) *graphql.Enum {
	m := graphql.EnumValueConfigMap{}
	for _, v := range values {
		m[v] = &graphql.EnumValueConfig{Value: v}
	}
	return graphql.NewEnum(graphql.EnumConfig{Name: name, Values: m})
}

func inputObject(name string, fields graphql.InputObjectConfigFieldMap) *graphql.InputObject {
	return graphql.NewInputObject(graphql.InputObjectConfig{Name: name, Fields: fields})
}

func in(t graphql.Input) *graphql.InputObjectFieldConfig {
	return &graphql.InputObjectFieldConfig{Type: t}
}

func arg(t graphql.Input) *graphql.ArgumentConfig {
	return &graphql.ArgumentConfig{Type: t}
}

var (
	nonNullID     = graphql.NewNonNull(graphql.ID)
	nonNullString = graphql.NewNonNull(graphql.String)
)

var uploadScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name: "Upload",
	Serialize: func(v any) any {
		if u, ok := v.(*Upload); ok {
			return u.Filename
		}
		return nil
	},
	ParseValue: func(v any) any {
		if u, ok := v.(*Upload); ok && u != nil {
			return u
		}
		return nil
	},
	ParseLiteral: func(ast.Value) any { return nil },
})

func (b *Backend) buildSchema() (graphql.Schema, error) {
	errorType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Error",
		Fields: graphql.Fields{
			"field":   &graphql.Field{Type: graphql.String},
			"message": &graphql.Field{Type: graphql.String},
			"code":    &graphql.Field{Type: graphql.String},
		},
	})

	pageInfo := graphql.NewObject(graphql.ObjectConfig{
		Name: "PageInfo",
		Fields: graphql.Fields{
			"hasNextPage": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"endCursor":   &graphql.Field{Type: graphql.String},
		},
	})

	inputTypeEnum := enum("AttributeInputTypeEnum", "DROPDOWN", "MULTISELECT", "PLAIN_TEXT")
	attributeTypeEnum := enum("AttributeTypeEnum", "PRODUCT_TYPE", "PAGE_TYPE")
	productAttributeType := enum("ProductAttributeType", "PRODUCT", "VARIANT")

	valueType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AttributeValue",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: nonNullID},
			"name":      &graphql.Field{Type: graphql.String},
			"slug":      &graphql.Field{Type: graphql.String},
			"plainText": &graphql.Field{Type: graphql.String},
		},
	})
	valueConnection := connection("AttributeValue", valueType, pageInfo)

	attributeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Attribute",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: nonNullID},
			"name":          &graphql.Field{Type: graphql.String},
			"slug":          &graphql.Field{Type: graphql.String},
			"inputType":     &graphql.Field{Type: inputTypeEnum},
			"valueRequired": &graphql.Field{Type: graphql.Boolean},
			"choices": &graphql.Field{
				Type: valueConnection,
				Args: graphql.FieldConfigArgument{"first": arg(graphql.Int), "after": arg(graphql.String)},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					a := p.Source.(*attribute)
					vals := make([]*attrValue, 0, len(a.valueIDs))
					for _, id := range a.valueIDs {
						vals = append(vals, b.values[id])
					}
					return page(b, vals, p.Args)
				},
			},
		},
	})
	attributeConnection := connection("Attribute", attributeType, pageInfo)

	productTypeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProductType",
		Fields: graphql.Fields{
			"id":   &graphql.Field{Type: nonNullID},
			"name": &graphql.Field{Type: graphql.String},
			"slug": &graphql.Field{Type: graphql.String},
			"productAttributes": &graphql.Field{
				Type: graphql.NewList(attributeType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					pt := p.Source.(*productType)
					out := make([]*attribute, 0, len(pt.assignIDs))
					for _, id := range pt.assignIDs {
						if a := b.attributeByID(id); a != nil {
							out = append(out, a)
						}
					}
					return out, nil
				},
			},
		},
	})
	productTypeConnection := connection("ProductType", productTypeType, pageInfo)

	var categoryType *graphql.Object
	categoryType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Category",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":   &graphql.Field{Type: nonNullID},
				"name": &graphql.Field{Type: graphql.String},
				"slug": &graphql.Field{Type: graphql.String},
				"parent": &graphql.Field{
					Type: categoryType,
					Resolve: func(p graphql.ResolveParams) (any, error) {
						c := p.Source.(*category)
						if c.parentID == "" {
							return nil, nil
						}
						return b.categoryByID(c.parentID), nil
					},
				},
			}
		}),
	})
	categoryConnection := connection("Category", categoryType, pageInfo)

	channelType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Channel",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: nonNullID},
			"name":         &graphql.Field{Type: graphql.String},
			"slug":         &graphql.Field{Type: graphql.String},
			"currencyCode": &graphql.Field{Type: graphql.String},
		},
	})

	metadataType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MetadataItem",
		Fields: graphql.Fields{
			"key":   &graphql.Field{Type: nonNullString},
			"value": &graphql.Field{Type: nonNullString},
		},
	})
	mediaType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProductMedia",
		Fields: graphql.Fields{
			"id":  &graphql.Field{Type: nonNullID},
			"url": &graphql.Field{Type: graphql.String},
			"alt": &graphql.Field{Type: graphql.String},
		},
	})
	variantType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProductVariant",
		Fields: graphql.Fields{
			"id":  &graphql.Field{Type: nonNullID},
			"sku": &graphql.Field{Type: graphql.String},
		},
	})
	selectedType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SelectedAttribute",
		Fields: graphql.Fields{
			"attribute": &graphql.Field{Type: attributeType},
			"values":    &graphql.Field{Type: graphql.NewList(valueType)},
		},
	})

	productObj := graphql.NewObject(graphql.ObjectConfig{
		Name: "Product",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: nonNullID},
			"name":        &graphql.Field{Type: graphql.String},
			"slug":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"metadata":    &graphql.Field{Type: graphql.NewList(metadataType)},
			"media":       &graphql.Field{Type: graphql.NewList(mediaType)},
			"category": &graphql.Field{
				Type: categoryType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return b.categoryByID(p.Source.(*product).categoryID), nil
				},
			},
			"productType": &graphql.Field{
				Type: productTypeType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return b.productTypeByID(p.Source.(*product).typeID), nil
				},
			},
			"attributes": &graphql.Field{
				Type: graphql.NewList(selectedType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return b.selectedAttributes(p.Source.(*product)), nil
				},
			},
			"variants": &graphql.Field{
				Type: graphql.NewList(variantType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					pr := p.Source.(*product)
					out := make([]*variant, 0, len(pr.variantIDs))
					for _, id := range pr.variantIDs {
						out = append(out, b.variants[id])
					}
					return out, nil
				},
			},
		},
	})
	productConnection := connection("Product", productObj, pageInfo)

	metadataOwner := graphql.NewObject(graphql.ObjectConfig{
		Name: "ObjectWithMetadata",
		Fields: graphql.Fields{
			"metadata": &graphql.Field{Type: graphql.NewList(metadataType)},
		},
	})

	// Inputs.
	selectable := inputObject("AttributeValueSelectableTypeInput", graphql.InputObjectConfigFieldMap{
		"id":    in(graphql.ID),
		"value": in(graphql.String),
	})
	attributeValueInput := inputObject("AttributeValueInput", graphql.InputObjectConfigFieldMap{
		"id":          in(graphql.ID),
		"values":      in(graphql.NewList(graphql.String)),
		"dropdown":    in(selectable),
		"multiselect": in(graphql.NewList(selectable)),
		"plainText":   in(graphql.String),
	})
	attributeCreateInput := inputObject("AttributeCreateInput", graphql.InputObjectConfigFieldMap{
		"name":          in(nonNullString),
		"slug":          in(graphql.String),
		"type":          in(graphql.NewNonNull(attributeTypeEnum)),
		"inputType":     in(inputTypeEnum),
		"valueRequired": in(graphql.Boolean),
	})
	attributeValueCreateInput := inputObject("AttributeValueCreateInput", graphql.InputObjectConfigFieldMap{
		"name": in(nonNullString),
	})
	assignInput := inputObject("ProductAttributeAssignInput", graphql.InputObjectConfigFieldMap{
		"id":   in(nonNullID),
		"type": in(graphql.NewNonNull(productAttributeType)),
	})
	categoryInput := inputObject("CategoryInput", graphql.InputObjectConfigFieldMap{
		"name": in(graphql.String),
		"slug": in(graphql.String),
	})
	productFields := func(create bool) graphql.InputObjectConfigFieldMap {
		m := graphql.InputObjectConfigFieldMap{
			"name":        in(graphql.String),
			"slug":        in(graphql.String),
			"category":    in(graphql.ID),
			"description": in(graphql.String),
			"attributes":  in(graphql.NewList(graphql.NewNonNull(attributeValueInput))),
		}
		if create {
			m["productType"] = in(nonNullID)
		}
		return m
	}
	productCreateInput := inputObject("ProductCreateInput", productFields(true))
	productInput := inputObject("ProductInput", productFields(false))
	variantCreateInput := inputObject("ProductVariantCreateInput", graphql.InputObjectConfigFieldMap{
		"product":    in(nonNullID),
		"sku":        in(graphql.String),
		"attributes": in(graphql.NewList(graphql.NewNonNull(attributeValueInput))),
	})
	variantListingInput := inputObject("ProductVariantChannelListingAddInput", graphql.InputObjectConfigFieldMap{
		"channelId": in(nonNullID),
		"price":     in(graphql.NewNonNull(graphql.Float)),
		"costPrice": in(graphql.Float),
	})
	productListingAdd := inputObject("ProductChannelListingAddInput", graphql.InputObjectConfigFieldMap{
		"channelId":              in(nonNullID),
		"isPublished":            in(graphql.Boolean),
		"visibleInListings":      in(graphql.Boolean),
		"isAvailableForPurchase": in(graphql.Boolean),
		"availableForPurchaseAt": in(graphql.String),
	})
	productListingUpdate := inputObject("ProductChannelListingUpdateInput", graphql.InputObjectConfigFieldMap{
		"updateChannels": in(graphql.NewList(graphql.NewNonNull(productListingAdd))),
		"removeChannels": in(graphql.NewList(nonNullID)),
	})
	metadataInput := inputObject("MetadataInput", graphql.InputObjectConfigFieldMap{
		"key":   in(nonNullString),
		"value": in(nonNullString),
	})
	mediaCreateInput := inputObject("ProductMediaCreateInput", graphql.InputObjectConfigFieldMap{
		"product":  in(nonNullID),
		"image":    in(uploadScalar),
		"alt":      in(graphql.String),
		"mediaUrl": in(graphql.String),
	})

	payloadType := func(name string, fields graphql.Fields) *graphql.Object {
		fields["errors"] = &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(errorType)))}
		return graphql.NewObject(graphql.ObjectConfig{Name: name, Fields: fields})
	}

	query := graphql.Fields{
		"attribute": &graphql.Field{
			Type: attributeType,
			Args: graphql.FieldConfigArgument{"id": arg(graphql.ID), "slug": arg(graphql.String)},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if id := str(p.Args["id"]); id != "" {
					return b.attributeByID(id), nil
				}
				return b.attributeBySlug(str(p.Args["slug"])), nil
			},
		},
		"attributes": &graphql.Field{
			Type: attributeConnection,
			Args: graphql.FieldConfigArgument{
				"first": arg(graphql.Int), "after": arg(graphql.String), "search": arg(graphql.String),
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				search := strings.ToLower(str(p.Args["search"]))
				var out []*attribute
				for _, a := range b.attributes {
					if search == "" || strings.Contains(strings.ToLower(a.Name), search) || strings.Contains(a.Slug, search) {
						out = append(out, a)
					}
				}
				return page(b, out, p.Args)
			},
		},
		"productTypes": &graphql.Field{
			Type: productTypeConnection,
			Args: graphql.FieldConfigArgument{"first": arg(graphql.Int), "after": arg(graphql.String)},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return page(b, b.productTypes, p.Args)
			},
		},
		"category": &graphql.Field{
			Type: categoryType,
			Args: graphql.FieldConfigArgument{"id": arg(graphql.ID), "slug": arg(graphql.String)},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if id := str(p.Args["id"]); id != "" {
					return b.categoryByID(id), nil
				}
				return b.categoryBySlug(str(p.Args["slug"])), nil
			},
		},
		"categories": &graphql.Field{
			Type: categoryConnection,
			Args: graphql.FieldConfigArgument{"first": arg(graphql.Int), "after": arg(graphql.String)},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return page(b, b.categories, p.Args)
			},
		},
		"channels": &graphql.Field{
			Type: graphql.NewList(graphql.NewNonNull(channelType)),
			Resolve: func(graphql.ResolveParams) (any, error) {
				return b.channels, nil
			},
		},
		"product": &graphql.Field{
			Type: productObj,
			Args: graphql.FieldConfigArgument{
				"id": arg(graphql.ID), "slug": arg(graphql.String), "channel": arg(graphql.String),
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if err := b.checkChannel(p.Args); err != nil {
					return nil, err
				}
				if id := str(p.Args["id"]); id != "" {
					return b.productByID(id), nil
				}
				return b.productBySlug(str(p.Args["slug"])), nil
			},
		},
		"products": &graphql.Field{
			Type: productConnection,
			Args: graphql.FieldConfigArgument{
				"first": arg(graphql.Int), "after": arg(graphql.String),
				"channel": arg(graphql.String), "search": arg(graphql.String),
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if err := b.checkChannel(p.Args); err != nil {
					return nil, err
				}
				search := strings.ToLower(str(p.Args["search"]))
				ch := b.channelBySlug(str(p.Args["channel"]))
				var out []*product
				for _, pr := range b.products {
					if !pr.listedIn(ch) {
						continue
					}
					if search == "" || strings.Contains(strings.ToLower(pr.Name), search) || strings.Contains(pr.Slug, search) {
						out = append(out, pr)
					}
				}
				return page(b, out, p.Args)
			},
		},
	}

	mutation := graphql.Fields{
		"tokenCreate": &graphql.Field{
			Type: payloadType("CreateToken", graphql.Fields{"token": &graphql.Field{Type: graphql.String}}),
			Args: graphql.FieldConfigArgument{"email": arg(nonNullString), "password": arg(nonNullString)},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if str(p.Args["email"]) != b.opts.Email || str(p.Args["password"]) != b.opts.Password {
					return payload("token", nil, fieldError{Field: "email", Message: "Please, enter valid credentials", Code: "INVALID_CREDENTIALS"}), nil
				}
				token, err := b.issueToken(str(p.Args["email"]))
				if err != nil {
					return nil, err
				}
				return payload("token", token), nil
			},
		},
		"attributeCreate": &graphql.Field{
			Type:    payloadType("AttributeCreate", graphql.Fields{"attribute": &graphql.Field{Type: attributeType}}),
			Args:    graphql.FieldConfigArgument{"input": arg(graphql.NewNonNull(attributeCreateInput))},
			Resolve: b.resolveAttributeCreate,
		},
		"attributeDelete": &graphql.Field{
			Type: payloadType("AttributeDelete", graphql.Fields{"attribute": &graphql.Field{Type: attributeType}}),
			Args: graphql.FieldConfigArgument{"id": arg(nonNullID)},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				a := b.attributeByID(str(p.Args["id"]))
				if a == nil {
					return payload("attribute", nil, notFound("id", "attribute")), nil
				}
				b.removeAttribute(a)
				return payload("attribute", a), nil
			},
		},
		"attributeValueCreate": &graphql.Field{
			Type: payloadType("AttributeValueCreate", graphql.Fields{
				"attribute":      &graphql.Field{Type: attributeType},
				"attributeValue": &graphql.Field{Type: valueType},
			}),
			Args: graphql.FieldConfigArgument{
				"attribute": arg(nonNullID),
				"input":     arg(graphql.NewNonNull(attributeValueCreateInput)),
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				a := b.attributeByID(str(p.Args["attribute"]))
				if a == nil {
					return payload("attributeValue", nil, notFound("attribute", "attribute")), nil
				}
				name := str(obj(p.Args["input"])["name"])
				if b.valueByName(a, name) != nil {
					return payload("attributeValue", nil, fieldError{
						Field: "name", Code: "UNIQUE",
						Message: "Attribute value with this name already exists.",
					}), nil
				}
				return payload("attributeValue", b.addValue(a, name, "")), nil
			},
		},
		"attributeValueDelete": &graphql.Field{
			Type: payloadType("AttributeValueDelete", graphql.Fields{"attributeValue": &graphql.Field{Type: valueType}}),
			Args: graphql.FieldConfigArgument{"id": arg(nonNullID)},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				v := b.values[str(p.Args["id"])]
				if v == nil {
					return payload("attributeValue", nil, notFound("id", "attribute value")), nil
				}
				delete(b.values, v.ID)
				if a := b.attributeByID(v.ownerID); a != nil {
					a.valueIDs = without(a.valueIDs, func(id string) bool { return id == v.ID })
				}
				return payload("attributeValue", v), nil
			},
		},
		"productAttributeAssign": &graphql.Field{
			Type: payloadType("ProductAttributeAssign", graphql.Fields{"productType": &graphql.Field{Type: productTypeType}}),
			Args: graphql.FieldConfigArgument{
				"productTypeId": arg(nonNullID),
				"operations":    arg(graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(assignInput)))),
			},
			Resolve: b.resolveAttributeAssign,
		},
		"categoryCreate": &graphql.Field{
			Type: payloadType("CategoryCreate", graphql.Fields{"category": &graphql.Field{Type: categoryType}}),
			Args: graphql.FieldConfigArgument{
				"parent": arg(graphql.ID),
				"input":  arg(graphql.NewNonNull(categoryInput)),
			},
			Resolve: b.resolveCategoryCreate,
		},
		"productCreate": &graphql.Field{
			Type:    payloadType("ProductCreate", graphql.Fields{"product": &graphql.Field{Type: productObj}}),
			Args:    graphql.FieldConfigArgument{"input": arg(graphql.NewNonNull(productCreateInput))},
			Resolve: b.resolveProductCreate,
		},
		"productUpdate": &graphql.Field{
			Type: payloadType("ProductUpdate", graphql.Fields{"product": &graphql.Field{Type: productObj}}),
			Args: graphql.FieldConfigArgument{
				"id":    arg(nonNullID),
				"input": arg(graphql.NewNonNull(productInput)),
			},
			Resolve: b.resolveProductUpdate,
		},
		"productDelete": &graphql.Field{
			Type: payloadType("ProductDelete", graphql.Fields{"product": &graphql.Field{Type: productObj}}),
			Args: graphql.FieldConfigArgument{"id": arg(nonNullID)},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				pr := b.productByID(str(p.Args["id"]))
				if pr == nil {
					return payload("product", nil, notFound("id", "product")), nil
				}
				for _, id := range pr.variantIDs {
					delete(b.variants, id)
				}
				b.products = without(b.products, func(x *product) bool { return x == pr })
				return payload("product", pr), nil
			},
		},
		"productVariantCreate": &graphql.Field{
			Type:    payloadType("ProductVariantCreate", graphql.Fields{"productVariant": &graphql.Field{Type: variantType}}),
			Args:    graphql.FieldConfigArgument{"input": arg(graphql.NewNonNull(variantCreateInput))},
			Resolve: b.resolveVariantCreate,
		},
		"productVariantChannelListingUpdate": &graphql.Field{
			Type: payloadType("ProductVariantChannelListingUpdate", graphql.Fields{"variant": &graphql.Field{Type: variantType}}),
			Args: graphql.FieldConfigArgument{
				"id":    arg(nonNullID),
				"input": arg(graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(variantListingInput)))),
			},
			Resolve: b.resolveVariantListings,
		},
		"productChannelListingUpdate": &graphql.Field{
			Type: payloadType("ProductChannelListingUpdate", graphql.Fields{"product": &graphql.Field{Type: productObj}}),
			Args: graphql.FieldConfigArgument{
				"id":    arg(nonNullID),
				"input": arg(graphql.NewNonNull(productListingUpdate)),
			},
			Resolve: b.resolveProductListings,
		},
		"updateMetadata": &graphql.Field{
			Type: payloadType("UpdateMetadata", graphql.Fields{"item": &graphql.Field{Type: metadataOwner}}),
			Args: graphql.FieldConfigArgument{
				"id":    arg(nonNullID),
				"input": arg(graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(metadataInput)))),
			},
			Resolve: b.resolveUpdateMetadata,
		},
		"productMediaCreate": &graphql.Field{
			Type: payloadType("ProductMediaCreate", graphql.Fields{
				"product": &graphql.Field{Type: productObj},
				"media":   &graphql.Field{Type: mediaType},
			}),
			Args:    graphql.FieldConfigArgument{"input": arg(graphql.NewNonNull(mediaCreateInput))},
			Resolve: b.resolveMediaCreate,
		},
	}

	for _, f := range query {
		f.Resolve = b.guard(f.Resolve)
	}
	for name, f := range mutation {
		f.Resolve = b.counted(name, f.Resolve)
		if name != "tokenCreate" {
			f.Resolve = b.guard(f.Resolve)
		}
	}

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: query}),
		Mutation: graphql.NewObject(graphql.ObjectConfig{Name: "Mutation", Fields: mutation}),
	})
}

// guard rejects unauthenticated operations when the backend requires auth.
func (b *Backend) guard(next graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if b.opts.RequireAuth {
			if authed, _ := p.Context.Value(authKey{}).(bool); !authed {
				return nil, errPermission
			}
		}
		return next(p)
	}
}

func (b *Backend) counted(name string, next graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		b.calls[name]++
		return next(p)
	}
}

func (b *Backend) checkChannel(args map[string]any) error {
	if slug := str(args["channel"]); slug != "" && b.channelBySlug(slug) == nil {
		return fmt.Errorf("channel with slug %q does not exist", slug)
	}
	return nil
}

func notFound(field, kind string) fieldError {
	return fieldError{Field: field, Message: fmt.Sprintf("Couldn't resolve %s", kind), Code: "NOT_FOUND"}
}

func (b *Backend) selectedAttributes(pr *product) []selected {
	out := make([]selected, 0, len(pr.assigned))
	for _, as := range pr.assigned {
		a := b.attributeByID(as.attributeID)
		if a == nil {
			continue
		}
		s := selected{Attribute: a, Values: make([]*attrValue, 0, len(as.valueIDs))}
		for _, id := range as.valueIDs {
			if v := b.values[id]; v != nil {
				s.Values = append(s.Values, v)
			} else {
				s.Values = append(s.Values, &attrValue{ID: id})
			}
		}
		out = append(out, s)
	}
	return out
}
