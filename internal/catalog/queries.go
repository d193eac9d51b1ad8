package catalog

// GraphQL documents. Every value is passed as a variable; documents are never
// assembled with string formatting.

const attributeFields = `
fragment AttributeFields on Attribute {
  id
  name
  slug
  inputType
  choices(first: $first) {
    edges { node { id name slug } }
    pageInfo { hasNextPage endCursor }
  }
}`

const productFields = `
fragment ProductFields on Product {
  id
  name
  slug
  description
  category { id slug }
  productType { id name slug productAttributes { id slug name inputType } }
  attributes {
    attribute { id slug name inputType }
    values { id name slug plainText }
  }
  metadata { key value }
  media { id url alt }
  variants { id sku }
}`

const errorFields = `errors { field message code }`

const queryAttributeBySlug = `query AttributeBySlug($slug: String!, $first: Int!) {
  attribute(slug: $slug) { ...AttributeFields }
}` + attributeFields

const queryAttributeByID = `query AttributeByID($id: ID!, $first: Int!) {
  attribute(id: $id) { ...AttributeFields }
}` + attributeFields

const queryAttributeChoices = `query AttributeChoices($id: ID!, $first: Int!, $after: String) {
  attribute(id: $id) {
    choices(first: $first, after: $after) {
      edges { node { id name slug } }
      pageInfo { hasNextPage endCursor }
    }
  }
}`

const querySearchAttributes = `query SearchAttributes($search: String, $first: Int!) {
  attributes(first: $first, search: $search) {
    edges { node { ...AttributeFields } }
  }
}` + attributeFields

const mutationAttributeCreate = `mutation AttributeCreate($input: AttributeCreateInput!) {
  attributeCreate(input: $input) {
    attribute { id name slug inputType }
    ` + errorFields + `
  }
}`

const mutationAttributeDelete = `mutation AttributeDelete($id: ID!) {
  attributeDelete(id: $id) {
    ` + errorFields + `
  }
}`

const mutationAttributeValueCreate = `mutation AttributeValueCreate($attribute: ID!, $input: AttributeValueCreateInput!) {
  attributeValueCreate(attribute: $attribute, input: $input) {
    attributeValue { id name slug }
    ` + errorFields + `
  }
}`

const mutationAttributeValueDelete = `mutation AttributeValueDelete($id: ID!) {
  attributeValueDelete(id: $id) {
    ` + errorFields + `
  }
}`

const queryProductTypes = `query ProductTypes($first: Int!, $after: String) {
  productTypes(first: $first, after: $after) {
    edges { node { id name slug productAttributes { id slug name inputType } } }
    pageInfo { hasNextPage endCursor }
  }
}`

const mutationProductAttributeAssign = `mutation ProductAttributeAssign($productTypeId: ID!, $operations: [ProductAttributeAssignInput!]!) {
  productAttributeAssign(productTypeId: $productTypeId, operations: $operations) {
    productType { id }
    ` + errorFields + `
  }
}`

const queryCategoryBySlug = `query CategoryBySlug($slug: String!) {
  category(slug: $slug) { id name slug parent { id slug } }
}`

const queryCategories = `query Categories($first: Int!, $after: String) {
  categories(first: $first, after: $after) {
    edges { node { id name slug parent { id slug } } }
    pageInfo { hasNextPage endCursor }
  }
}`

const mutationCategoryCreate = `mutation CategoryCreate($parent: ID, $input: CategoryInput!) {
  categoryCreate(parent: $parent, input: $input) {
    category { id name slug parent { id slug } }
    ` + errorFields + `
  }
}`

const queryChannels = `query Channels {
  channels { id name slug currencyCode }
}`

const queryProductBySlug = `query ProductBySlug($slug: String!, $channel: String) {
  product(slug: $slug, channel: $channel) { ...ProductFields }
}` + productFields

const queryProducts = `query Products($first: Int!, $after: String, $channel: String, $search: String) {
  products(first: $first, after: $after, channel: $channel, search: $search) {
    edges { node { ...ProductFields } }
    pageInfo { hasNextPage endCursor }
  }
}` + productFields

const mutationProductCreate = `mutation ProductCreate($input: ProductCreateInput!) {
  productCreate(input: $input) {
    product { ...ProductFields }
    ` + errorFields + `
  }
}` + productFields

const mutationProductUpdate = `mutation ProductUpdate($id: ID!, $input: ProductInput!) {
  productUpdate(id: $id, input: $input) {
    product { ...ProductFields }
    ` + errorFields + `
  }
}` + productFields

const mutationProductDelete = `mutation ProductDelete($id: ID!) {
  productDelete(id: $id) {
    product { id }
    ` + errorFields + `
  }
}`

const mutationVariantCreate = `mutation ProductVariantCreate($input: ProductVariantCreateInput!) {
  productVariantCreate(input: $input) {
    productVariant { id sku }
    ` + errorFields + `
  }
}`

const mutationVariantChannelListingUpdate = `mutation VariantChannelListingUpdate($id: ID!, $input: [ProductVariantChannelListingAddInput!]!) {
  productVariantChannelListingUpdate(id: $id, input: $input) {
    variant { id }
    ` + errorFields + `
  }
}`

const mutationProductChannelListingUpdate = `mutation ProductChannelListingUpdate($id: ID!, $input: ProductChannelListingUpdateInput!) {
  productChannelListingUpdate(id: $id, input: $input) {
    product { id }
    ` + errorFields + `
  }
}`

const mutationUpdateMetadata = `mutation UpdateMetadata($id: ID!, $input: [MetadataInput!]!) {
  updateMetadata(id: $id, input: $input) {
    item { metadata { key value } }
    ` + errorFields + `
  }
}`

const mutationProductMediaCreate = `mutation ProductMediaCreate($product: ID!, $image: Upload!, $alt: String) {
  productMediaCreate(input: { product: $product, image: $image, alt: $alt }) {
    media { id url alt }
    ` + errorFields + `
  }
}`
