// Package catalogtest provides an in-memory catalog backend that speaks the
// same GraphQL dialect as the production API. It is served over HTTP so the
// real client, repository and routines can be exercised end to end.
//
// Deleting an attribute value does not cascade to products that still
// reference it; References reports such dangling assignments.
package catalogtest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
)

const (
	defaultPageLimit = 100
	maxFirst         = 100
	defaultTokenTTL  = time.Hour
)

// Options configures a Backend.
type Options struct {
	// Email and Password are the credentials tokenCreate accepts.
	Email    string
	Password string
	// RequireAuth rejects every operation except tokenCreate unless the
	// request carries a token issued by this backend.
	RequireAuth bool
	// TokenTTL is the lifetime of issued tokens. Zero means one hour.
	TokenTTL time.Duration
	// PageLimit caps the number of edges in any connection page regardless
	// of the requested first. Zero means 100.
	PageLimit int
}

// Upload is a file received through a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type attribute struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	InputType     string `json:"inputType"`
	ValueRequired bool   `json:"valueRequired"`
	valueIDs      []string
}

type attrValue struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	PlainText string `json:"plainText"`
	ownerID   string
}

type productType struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	assignIDs []string
}

func (pt *productType) has(attributeID string) bool {
	for _, id := range pt.assignIDs {
		if id == attributeID {
			return true
		}
	}
	return false
}

type category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	parentID string
}

type channel struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	CurrencyCode string `json:"currencyCode"`
}

type metaItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type media struct {
	ID  string `json:"id"`
	URL string `json:"url"`
	Alt string `json:"alt"`
}

type listing struct {
	published   bool
	visible     bool
	available   bool
	availableAt string
}

type price struct {
	amount float64
	cost   float64
}

type variant struct {
	ID        string `json:"id"`
	SKU       string `json:"sku"`
	productID string
	prices    map[string]price
}

type assignment struct {
	attributeID string
	valueIDs    []string
}

type product struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	Description *string     `json:"description"`
	Metadata    []metaItem  `json:"metadata"`
	Media       []*media    `json:"media"`
	categoryID  string
	typeID      string
	assigned    []assignment
	variantIDs  []string
	listings    map[string]listing
	everywhere  bool
}

// listedIn reports whether pr is visible to a products query scoped to ch.
func (pr *product) listedIn(ch *channel) bool {
	if ch == nil || pr.everywhere {
		return true
	}
	_, ok := pr.listings[ch.ID]
	return ok
}

// Backend is an in-memory catalog served as a GraphQL endpoint. Each request
// executes under a single lock.
type Backend struct {
	opts   Options
	schema graphql.Schema
	secret []byte

	mu           sync.Mutex
	attributes   []*attribute
	values       map[string]*attrValue
	productTypes []*productType
	categories   []*category
	channels     []*channel
	products     []*product
	variants     map[string]*variant
	calls        map[string]int
	requests     int
}

// New returns an empty backend. It panics if the schema cannot be built.
func New(opts Options) *Backend {
	if opts.PageLimit <= 0 {
		opts.PageLimit = defaultPageLimit
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	b := &Backend{
		opts:     opts,
		secret:   []byte(uuid.NewString()),
		values:   make(map[string]*attrValue),
		variants: make(map[string]*variant),
		calls:    make(map[string]int),
	}
	schema, err := b.buildSchema()
	if err != nil {
		panic(fmt.Sprintf("catalogtest: build schema: %v", err))
	}
	b.schema = schema
	return b
}

type authKey struct{}

type request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

type errorBody struct {
	Errors []map[string]string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Errors: []map[string]string{{"message": msg}}})
}

// ServeHTTP executes one GraphQL request, JSON or multipart.
func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "only POST is supported")
		return
	}
	authed, err := b.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	req, err := decodeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	b.requests++
	result := graphql.Do(graphql.Params{
		Schema:         b.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        context.WithValue(r.Context(), authKey{}, authed),
	})
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, result)
}

// authenticate reports whether the request carries a valid bearer token. An
// Authorization header that does not verify is an error.
func (b *Backend) authenticate(r *http.Request) (bool, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return false, nil
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false, errors.New("unsupported authorization scheme")
	}
	_, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return b.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return false, fmt.Errorf("invalid token: %w", err)
	}
	return true, nil
}

var pathRe = regexp.MustCompile(`^variables\.([A-Za-z_][A-Za-z0-9_]*)$`)

func decodeRequest(r *http.Request) (*request, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("content type: %w", err)
	}

	var req request
	if mediaType != "multipart/form-data" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}
		return &req, nil
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, fmt.Errorf("parse multipart: %w", err)
	}
	if err := json.Unmarshal([]byte(r.FormValue("operations")), &req); err != nil {
		return nil, fmt.Errorf("decode operations: %w", err)
	}
	var fileMap map[string][]string
	if err := json.Unmarshal([]byte(r.FormValue("map")), &fileMap); err != nil {
		return nil, fmt.Errorf("decode map: %w", err)
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}
	for part, paths := range fileMap {
		f, header, err := r.FormFile(part)
		if err != nil {
			return nil, fmt.Errorf("file part %q: %w", part, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read part %q: %w", part, err)
		}
		up := &Upload{Filename: header.Filename, ContentType: header.Header.Get("Content-Type"), Data: data}
		for _, p := range paths {
			m := pathRe.FindStringSubmatch(p)
			if m == nil {
				return nil, fmt.Errorf("unsupported map path %q", p)
			}
			req.Variables[m[1]] = up
		}
	}
	return &req, nil
}

func newID(kind string) string {
	return base64.StdEncoding.EncodeToString([]byte(kind + ":" + uuid.NewString()))
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func (b *Backend) issueToken(email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(b.opts.TokenTTL)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
}

// ---------------------------------------------------------------------------
// Lookups (callers hold mu)
// ---------------------------------------------------------------------------

func (b *Backend) attributeByID(id string) *attribute {
	for _, a := range b.attributes {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (b *Backend) attributeBySlug(slug string) *attribute {
	for _, a := range b.attributes {
		if a.Slug == slug {
			return a
		}
	}
	return nil
}

func (b *Backend) productTypeByID(id string) *productType {
	for _, pt := range b.productTypes {
		if pt.ID == id {
			return pt
		}
	}
	return nil
}

func (b *Backend) categoryByID(id string) *category {
	for _, c := range b.categories {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (b *Backend) categoryBySlug(slug string) *category {
	for _, c := range b.categories {
		if c.Slug == slug {
			return c
		}
	}
	return nil
}

func (b *Backend) channelByID(id string) *channel {
	for _, c := range b.channels {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (b *Backend) channelBySlug(slug string) *channel {
	for _, c := range b.channels {
		if c.Slug == slug {
			return c
		}
	}
	return nil
}

func (b *Backend) productByID(id string) *product {
	for _, p := range b.products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (b *Backend) productBySlug(slug string) *product {
	for _, p := range b.products {
		if p.Slug == slug {
			return p
		}
	}
	return nil
}

func (b *Backend) valueByName(a *attribute, name string) *attrValue {
	for _, id := range a.valueIDs {
		if v := b.values[id]; v != nil && v.Name == name {
			return v
		}
	}
	return nil
}

func (b *Backend) addValue(a *attribute, name, plainText string) *attrValue {
	base := slugify(name)
	if base == "" {
		base = "value"
	}
	slug := base
	for n := 2; b.valueSlugTaken(a, slug); n++ {
		slug = fmt.Sprintf("%s-%d", base, n)
	}
	v := &attrValue{ID: newID("AttributeValue"), Name: name, Slug: slug, PlainText: plainText, ownerID: a.ID}
	b.values[v.ID] = v
	a.valueIDs = append(a.valueIDs, v.ID)
	return v
}

func (b *Backend) valueSlugTaken(a *attribute, slug string) bool {
	for _, id := range a.valueIDs {
		if v := b.values[id]; v != nil && v.Slug == slug {
			return true
		}
	}
	return false
}

func (b *Backend) removeAttribute(a *attribute) {
	for _, id := range a.valueIDs {
		delete(b.values, id)
	}
	b.attributes = without(b.attributes, func(x *attribute) bool { return x == a })
	for _, pt := range b.productTypes {
		pt.assignIDs = without(pt.assignIDs, func(id string) bool { return id == a.ID })
	}
	for _, p := range b.products {
		p.assigned = without(p.assigned, func(as assignment) bool { return as.attributeID == a.ID })
	}
}

func without[T any](in []T, drop func(T) bool) []T {
	out := in[:0]
	for _, v := range in {
		if !drop(v) {
			out = append(out, v)
		}
	}
	return out
}
