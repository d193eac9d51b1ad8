package repair_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/jamesprial/catalog-admin/internal/catalog"
	"github.com/jamesprial/catalog-admin/internal/catalogtest"
	"github.com/jamesprial/catalog-admin/internal/repair"
	"github.com/jamesprial/catalog-admin/internal/safety"
)

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type fixture struct {
	backend *catalogtest.Backend
	repo    *catalog.GraphQLRepository
	attr    catalogtest.SeededAttribute
	typeID  string
	bad     string
	correct string
}

// newFixture seeds a property-type attribute whose "Franchise Outlet" value
// is the bad duplicate of "Franchise".
func newFixture(t *testing.T) *fixture {
	t.Helper()
	b, client := catalogtest.Start(t, catalogtest.Options{})
	b.SeedChannel("default-channel", "Default Channel", "INR")
	attr := b.SeedAttribute("property-type", "Property Type", "DROPDOWN", "Villa", "Franchise", "Franchise Outlet")
	return &fixture{
		backend: b,
		repo:    catalog.NewGraphQLRepository(client, zaptest.NewLogger(t)),
		attr:    attr,
		typeID:  b.SeedProductType("Property", attr.ID),
		bad:     attr.Values["Franchise Outlet"],
		correct: attr.Values["Franchise"],
	}
}

func (f *fixture) seed(prefix string, n int, valueID string) []string {
	slugs := make([]string, 0, n)
	for i := 0; i < n; i++ {
		slug := fmt.Sprintf("%s-%d", prefix, i)
		f.backend.SeedProduct(catalogtest.ProductSeed{
			Name:       slug,
			Slug:       slug,
			TypeID:     f.typeID,
			Attributes: map[string][]string{f.attr.ID: {valueID}},
		})
		slugs = append(slugs, slug)
	}
	return slugs
}

func (f *fixture) plan() repair.Plan {
	return repair.Plan{
		Name:      "property-type",
		Attribute: "property-type",
		Rules:     []repair.Rule{{Bad: []string{f.bad}, CorrectName: "Franchise"}},
	}
}

func (f *fixture) options(t *testing.T) repair.Options {
	return repair.Options{PageSize: 2, Logger: zaptest.NewLogger(t)}
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func Test_Run_RewritesAndDeletes(t *testing.T) {
	f := newFixture(t)
	bad := f.seed("franchise", 5, f.bad)
	f.seed("villa", 2, f.attr.Values["Villa"])

	report, err := repair.Run(context.Background(), f.repo, f.plan(), f.options(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Scanned != 7 || report.Pages != 4 || !report.Complete {
		t.Errorf("scan = %d products over %d pages (complete=%v), want 7 over 4 (complete)", report.Scanned, report.Pages, report.Complete)
	}
	if !slices.Equal(report.Updated, bad) {
		t.Errorf("Updated = %v, want %v", report.Updated, bad)
	}
	if !slices.Equal(report.Deleted, []string{f.bad}) {
		t.Errorf("Deleted = %v, want [%s]", report.Deleted, f.bad)
	}
	if f.backend.ValueExists(f.bad) {
		t.Error("bad value still exists")
	}
	if n := f.backend.References(f.bad); n != 0 {
		t.Errorf("References(bad) = %d, want 0", n)
	}
	for _, slug := range bad {
		if got := f.backend.ProductValueIDs(slug, "property-type"); !slices.Equal(got, []string{f.correct}) {
			t.Errorf("%s values = %v, want [%s]", slug, got, f.correct)
		}
	}
	if got := f.backend.ProductValueNames("villa-0", "property-type"); !slices.Equal(got, []string{"Villa"}) {
		t.Errorf("villa-0 values = %v, want untouched", got)
	}
}

func Test_Run_BoundedScan_Cases(t *testing.T) {
	tests := []struct {
		name         string
		products     int
		maxPages     int
		wantErr      error
		wantUpdated  int
		wantRefsLeft int
		wantDeleted  bool
	}{
		{name: "page bound below catalog size refuses deletion", products: 5, maxPages: 1, wantErr: repair.ErrIncompleteScan, wantUpdated: 2, wantRefsLeft: 3},
		{name: "two of three pages", products: 5, maxPages: 2, wantErr: repair.ErrIncompleteScan, wantUpdated: 4, wantRefsLeft: 1},
		{name: "page bound covering catalog", products: 5, maxPages: 3, wantUpdated: 5, wantDeleted: true},
		{name: "unbounded", products: 5, maxPages: 0, wantUpdated: 5, wantDeleted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seed("franchise", tt.products, f.bad)
			opts := f.options(t)
			opts.MaxPages = tt.maxPages

			report, err := repair.Run(context.Background(), f.repo, f.plan(), opts)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(report.Updated) != tt.wantUpdated {
				t.Errorf("updated %d, want %d", len(report.Updated), tt.wantUpdated)
			}
			if n := f.backend.References(f.bad); n != tt.wantRefsLeft {
				t.Errorf("References(bad) = %d, want %d", n, tt.wantRefsLeft)
			}
			if exists := f.backend.ValueExists(f.bad); exists == tt.wantDeleted {
				t.Errorf("ValueExists(bad) = %v, want %v", exists, !tt.wantDeleted)
			}
			if !tt.wantDeleted {
				if c := f.backend.Calls("attributeValueDelete"); c != 0 {
					t.Errorf("attributeValueDelete called %d times", c)
				}
				if !slices.Contains(report.Retained, f.bad) {
					t.Errorf("Retained = %v, want it to hold the bad value", report.Retained)
				}
			}
		})
	}
}

func Test_Run_BlockedProductKeepsValue(t *testing.T) {
	f := newFixture(t)
	f.seed("franchise", 3, f.bad)
	f.seed("blocked", 1, f.bad)
	opts := f.options(t)
	opts.Filter = safety.NewFilter(nil, []string{"blocked-*"})

	report, err := repair.Run(context.Background(), f.repo, f.plan(), opts)
	if !errors.Is(err, repair.ErrDanglingReferences) {
		t.Fatalf("err = %v, want ErrDanglingReferences", err)
	}
	if !slices.Equal(report.Blocked, []string{"blocked-0"}) {
		t.Errorf("Blocked = %v", report.Blocked)
	}
	if len(report.Updated) != 3 {
		t.Errorf("updated %d, want 3", len(report.Updated))
	}
	if !f.backend.ValueExists(f.bad) {
		t.Fatal("bad value deleted while still referenced")
	}
	if n := f.backend.References(f.bad); n != 1 {
		t.Errorf("References(bad) = %d, want 1", n)
	}
}

func Test_Run_BlockedAttributeKeepsValues(t *testing.T) {
	f := newFixture(t)
	f.seed("franchise", 3, f.bad)
	opts := f.options(t)
	opts.AttributeFilter = safety.NewFilter([]string{"amenities"}, nil)

	report, err := repair.Run(context.Background(), f.repo, f.plan(), opts)
	var blocked *safety.BlockedError
	if !errors.As(err, &blocked) || blocked.Slug != "property-type" {
		t.Fatalf("err = %v, want BlockedError for property-type", err)
	}
	if len(report.Updated) != 3 {
		t.Errorf("updated %d, want 3", len(report.Updated))
	}
	if !slices.Equal(report.Retained, []string{f.bad}) {
		t.Errorf("Retained = %v, want [%s]", report.Retained, f.bad)
	}
	if !f.backend.ValueExists(f.bad) {
		t.Error("bad value deleted despite attribute filter")
	}
}

func Test_Run_ProductWithoutChannelListing(t *testing.T) {
	f := newFixture(t)
	listed := f.seed("franchise", 1, f.bad)
	f.backend.SeedProduct(catalogtest.ProductSeed{
		Name:       "hidden-0",
		Slug:       "hidden-0",
		TypeID:     f.typeID,
		Attributes: map[string][]string{f.attr.ID: {f.bad}},
		Unlisted:   true,
	})

	report, err := repair.Run(context.Background(), f.repo, f.plan(), f.options(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := append(listed, "hidden-0"); !slices.Equal(report.Updated, want) {
		t.Errorf("Updated = %v, want %v", report.Updated, want)
	}
	if n := f.backend.References(f.bad); n != 0 {
		t.Errorf("References(bad) = %d, want 0", n)
	}
	if f.backend.ValueExists(f.bad) {
		t.Error("bad value still exists")
	}
	if got := f.backend.ProductValueIDs("hidden-0", "property-type"); !slices.Equal(got, []string{f.correct}) {
		t.Errorf("hidden-0 values = %v, want [%s]", got, f.correct)
	}
}

func Test_Run_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.seed("franchise", 3, f.bad)
	ctx := context.Background()

	if _, err := repair.Run(ctx, f.repo, f.plan(), f.options(t)); err != nil {
		t.Fatalf("first run: %v", err)
	}
	mutations := f.backend.MutationCount()
	values, _ := f.backend.AttributeValueNames("property-type")

	report, err := repair.Run(ctx, f.repo, f.plan(), f.options(t))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := f.backend.MutationCount(); got != mutations {
		t.Errorf("second run issued %d mutations", got-mutations)
	}
	if len(report.Matched) != 0 {
		t.Errorf("second run matched %d products", len(report.Matched))
	}
	if !slices.Equal(report.Absent, []string{f.bad}) {
		t.Errorf("Absent = %v, want [%s]", report.Absent, f.bad)
	}
	after, _ := f.backend.AttributeValueNames("property-type")
	if !slices.Equal(after, values) {
		t.Errorf("values changed: %v -> %v", values, after)
	}
}

func Test_Run_DryRun(t *testing.T) {
	f := newFixture(t)
	f.seed("franchise", 3, f.bad)
	opts := f.options(t)
	opts.DryRun = true

	report, err := repair.Run(context.Background(), f.repo, f.plan(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Matched) != 3 {
		t.Errorf("matched %d, want 3", len(report.Matched))
	}
	for _, m := range report.Matched {
		if !slices.Equal(m.Values, []string{f.correct}) {
			t.Errorf("%s planned values = %v", m.Slug, m.Values)
		}
	}
	if n := f.backend.MutationCount(); n != 0 {
		t.Errorf("dry run issued %d mutations", n)
	}
	if n := f.backend.References(f.bad); n != 3 {
		t.Errorf("References(bad) = %d, want 3", n)
	}
}

func Test_Run_PreserveOtherValues_Cases(t *testing.T) {
	tests := []struct {
		name      string
		overwrite bool
		want      []string
	}{
		{name: "keeps unrelated values by default", want: []string{"Pool", "Gym"}},
		{name: "overwrite keeps only the correct value", overwrite: true, want: []string{"Pool"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, client := catalogtest.Start(t, catalogtest.Options{})
			repo := catalog.NewGraphQLRepository(client, zaptest.NewLogger(t))
			attr := b.SeedAttribute("amenities", "Amenities", "MULTISELECT", "Pool", "Gym", "Swimming Pool")
			typeID := b.SeedProductType("Villa", attr.ID)
			b.SeedProduct(catalogtest.ProductSeed{
				Name: "Palm Royale", Slug: "palm-royale", TypeID: typeID,
				Attributes: map[string][]string{attr.ID: {attr.Values["Swimming Pool"], attr.Values["Gym"]}},
			})

			plan := repair.Plan{
				Attribute:       attr.ID,
				Rules:           []repair.Rule{{Bad: []string{attr.Values["Swimming Pool"]}, Correct: attr.Values["Pool"]}},
				OverwriteValues: tt.overwrite,
			}
			if _, err := repair.Run(context.Background(), repo, plan, repair.Options{}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := b.ProductValueNames("palm-royale", "amenities"); !slices.Equal(got, tt.want) {
				t.Errorf("values = %v, want %v", got, tt.want)
			}
			if b.ValueExists(attr.Values["Swimming Pool"]) {
				t.Error("bad value still exists")
			}
		})
	}
}

func Test_Run_SeveralRules(t *testing.T) {
	b, client := catalogtest.Start(t, catalogtest.Options{})
	repo := catalog.NewGraphQLRepository(client, zaptest.NewLogger(t))
	status := b.SeedAttribute("status", "Status", "DROPDOWN", "Ready to Move", "Under Construction", "ready", "under-construction")
	typeID := b.SeedProductType("Property", status.ID)
	for slug, value := range map[string]string{"palm-royale": "under-construction", "sea-breeze": "ready"} {
		b.SeedProduct(catalogtest.ProductSeed{Name: slug, Slug: slug, TypeID: typeID,
			Attributes: map[string][]string{status.ID: {status.Values[value]}}})
	}

	rules, err := repair.ParseReplacements(fmt.Sprintf("%s=name:Under Construction, %s=name:Ready to Move",
		status.Values["under-construction"], status.Values["ready"]))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	report, err := repair.Run(context.Background(), repo, repair.Plan{Attribute: "status", Rules: rules}, repair.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := b.ProductValueNames("palm-royale", "status"); !slices.Equal(got, []string{"Under Construction"}) {
		t.Errorf("palm-royale = %v", got)
	}
	if got := b.ProductValueNames("sea-breeze", "status"); !slices.Equal(got, []string{"Ready to Move"}) {
		t.Errorf("sea-breeze = %v", got)
	}
	if len(report.Deleted) != 2 {
		t.Errorf("Deleted = %v, want both bad values", report.Deleted)
	}
	names, _ := b.AttributeValueNames("status")
	if !slices.Equal(names, []string{"Ready to Move", "Under Construction"}) {
		t.Errorf("remaining values = %v", names)
	}
}

func Test_Run_InvalidPlan_Cases(t *testing.T) {
	tests := []struct {
		name    string
		plan    func(f *fixture) repair.Plan
		wantErr string
	}{
		{
			name:    "missing attribute",
			plan:    func(f *fixture) repair.Plan { return repair.Plan{Rules: f.plan().Rules} },
			wantErr: "attribute is required",
		},
		{
			name:    "unknown attribute",
			plan:    func(f *fixture) repair.Plan { return repair.Plan{Attribute: "colour", Rules: f.plan().Rules} },
			wantErr: `attribute "colour" not found`,
		},
		{
			name:    "no rules",
			plan:    func(f *fixture) repair.Plan { return repair.Plan{Attribute: "property-type"} },
			wantErr: "at least one rule",
		},
		{
			name: "unknown correct name",
			plan: func(f *fixture) repair.Plan {
				return repair.Plan{Attribute: "property-type", Rules: []repair.Rule{{Bad: []string{f.bad}, CorrectName: "Resort"}}}
			},
			wantErr: `value "Resort" not found`,
		},
		{
			name: "correct value of another attribute",
			plan: func(f *fixture) repair.Plan {
				other := f.backend.SeedAttribute("status", "Status", "DROPDOWN", "Ready")
				return repair.Plan{Attribute: "property-type", Rules: []repair.Rule{{Bad: []string{f.bad}, Correct: other.Values["Ready"]}}}
			},
			wantErr: "does not belong",
		},
		{
			name: "bad equals correct",
			plan: func(f *fixture) repair.Plan {
				return repair.Plan{Attribute: "property-type", Rules: []repair.Rule{{Bad: []string{f.correct}, Correct: f.correct}}}
			},
			wantErr: "both bad and correct",
		},
		{
			name: "conflicting rules",
			plan: func(f *fixture) repair.Plan {
				return repair.Plan{Attribute: "property-type", Rules: []repair.Rule{
					{Bad: []string{f.bad}, CorrectName: "Franchise"},
					{Bad: []string{f.bad}, CorrectName: "Villa"},
				}}
			},
			wantErr: "already maps to",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seed("franchise", 1, f.bad)

			_, err := repair.Run(context.Background(), f.repo, tt.plan(f), f.options(t))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want it to contain %q", err, tt.wantErr)
			}
			if n := f.backend.MutationCount(); n != 0 {
				t.Errorf("invalid plan issued %d mutations", n)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Classify / Rewrite / ParseReplacements
// ---------------------------------------------------------------------------

func product(attributeID string, valueIDs ...string) catalog.Product {
	values := make([]catalog.AttributeValue, 0, len(valueIDs))
	for _, id := range valueIDs {
		values = append(values, catalog.AttributeValue{ID: id})
	}
	return catalog.Product{Attributes: []catalog.SelectedAttribute{
		{Attribute: catalog.AttributeRef{ID: attributeID}, Values: values},
	}}
}

func Test_Classify_Cases(t *testing.T) {
	correctOf := map[string]string{"bad1": "good", "bad2": "good"}
	tests := []struct {
		name      string
		product   catalog.Product
		wantState repair.State
		wantBad   []string
	}{
		{name: "holds one bad value", product: product("A", "x", "bad1"), wantState: repair.StateBad, wantBad: []string{"bad1"}},
		{name: "holds two bad values", product: product("A", "bad2", "bad1"), wantState: repair.StateBad, wantBad: []string{"bad2", "bad1"}},
		{name: "holds the correct value", product: product("A", "good"), wantState: repair.StateCorrect},
		{name: "bad id on another attribute", product: product("B", "bad1"), wantState: repair.StateCorrect},
		{name: "no attributes", product: catalog.Product{}, wantState: repair.StateCorrect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, bad := repair.Classify(tt.product, "A", correctOf)
			if state != tt.wantState {
				t.Errorf("state = %q, want %q", state, tt.wantState)
			}
			if !slices.Equal(bad, tt.wantBad) {
				t.Errorf("bad = %v, want %v", bad, tt.wantBad)
			}
		})
	}
}

func Test_Rewrite_Cases(t *testing.T) {
	correctOf := map[string]string{"bad1": "good", "bad2": "good", "bad3": "other"}
	tests := []struct {
		name     string
		current  []string
		preserve bool
		want     []string
	}{
		{name: "replace in place", current: []string{"x", "bad1", "y"}, preserve: true, want: []string{"x", "good", "y"}},
		{name: "dedupe onto existing correct", current: []string{"good", "bad1"}, preserve: true, want: []string{"good"}},
		{name: "two bad to one correct", current: []string{"bad1", "bad2"}, preserve: true, want: []string{"good"}},
		{name: "overwrite drops unrelated", current: []string{"x", "bad1", "bad3"}, want: []string{"good", "other"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repair.Rewrite(tt.current, correctOf, tt.preserve); !slices.Equal(got, tt.want) {
				t.Errorf("Rewrite = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_ParseReplacements_Cases(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []repair.Rule
		wantErr bool
	}{
		{name: "single id", input: "B1=C1", want: []repair.Rule{{Bad: []string{"B1"}, Correct: "C1"}}},
		{name: "by name", input: "B1=name:Ready to Move", want: []repair.Rule{{Bad: []string{"B1"}, CorrectName: "Ready to Move"}}},
		{name: "shared target", input: "B1|B2=C1", want: []repair.Rule{{Bad: []string{"B1", "B2"}, Correct: "C1"}}},
		{name: "several pairs", input: " B1=C1 , B2=C2,", want: []repair.Rule{
			{Bad: []string{"B1"}, Correct: "C1"},
			{Bad: []string{"B2"}, Correct: "C2"},
		}},
		{name: "empty", input: "", wantErr: true},
		{name: "missing equals", input: "B1", wantErr: true},
		{name: "missing correct", input: "B1=", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repair.ParseReplacements(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d rules, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !slices.Equal(got[i].Bad, tt.want[i].Bad) || got[i].Correct != tt.want[i].Correct || got[i].CorrectName != tt.want[i].CorrectName {
					t.Errorf("rule %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
