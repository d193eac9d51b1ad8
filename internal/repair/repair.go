// Package repair rewrites products that reference known-bad attribute values
// and deletes those values once nothing points at them.
package repair

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jamesprial/catalog-admin/internal/catalog"
	"github.com/jamesprial/catalog-admin/internal/logging"
	"github.com/jamesprial/catalog-admin/internal/safety"
)

var (
	// ErrIncompleteScan is returned when the scan stopped before the last
	// page. Bad values are never deleted after an incomplete scan.
	ErrIncompleteScan = errors.New("scan incomplete")
	// ErrDanglingReferences is returned when a bad value is still referenced
	// after the rewrite pass. The value is kept.
	ErrDanglingReferences = errors.New("bad value still referenced")
)

// State is the classification of one product against a plan.
type State string

const (
	StateBad     State = "matches-bad-value"
	StateCorrect State = "matches-correct-value"
)

// Rule maps one or more bad value ids to the correct value. The correct value
// is given by id or, when Correct is empty, by name.
type Rule struct {
	Bad         []string `yaml:"bad" json:"bad"`
	Correct     string   `yaml:"correct,omitempty" json:"correct,omitempty"`
	CorrectName string   `yaml:"correct_name,omitempty" json:"correct_name,omitempty"`
}

// Plan describes one repair. Attribute is a slug or an id.
type Plan struct {
	Name      string `yaml:"name" json:"name"`
	Attribute string `yaml:"attribute" json:"attribute"`
	Rules     []Rule `yaml:"rules" json:"rules"`
	// OverwriteValues replaces the product's whole value list for the
	// attribute with the correct values. By default unrelated values are
	// kept.
	OverwriteValues bool `yaml:"overwrite_values,omitempty" json:"overwrite_values,omitempty"`
}

// Options tune a run.
type Options struct {
	PageSize int
	// MaxPages bounds the scan. Zero scans every page.
	MaxPages int
	DryRun   bool
	Filter   *safety.Filter
	// AttributeFilter must allow the attribute's slug before any of its
	// bad values are deleted.
	AttributeFilter *safety.Filter
	Audit           *safety.AuditLogger
	Logger          *zap.Logger
}

// Match is a product found holding bad values.
type Match struct {
	ProductID string   `json:"product_id"`
	Slug      string   `json:"slug"`
	Bad       []string `json:"bad"`
	Values    []string `json:"values"`
}

// Report summarises a run.
type Report struct {
	Plan      string   `json:"plan,omitempty"`
	Attribute string   `json:"attribute"`
	Pages     int      `json:"pages"`
	Scanned   int      `json:"scanned"`
	Complete  bool     `json:"complete"`
	DryRun    bool     `json:"dry_run"`
	Matched   []Match  `json:"matched"`
	Updated   []string `json:"updated"`
	Blocked   []string `json:"blocked,omitempty"`
	Deleted   []string `json:"deleted"`
	Retained  []string `json:"retained,omitempty"`
	Absent    []string `json:"absent,omitempty"`
}

// resolved is a plan bound to a concrete attribute.
type resolved struct {
	attr      *catalog.Attribute
	correctOf map[string]string // bad id -> correct id
	bad       []string
}

// Classify reports whether p holds any bad value of the attribute and
// returns those ids in assignment order.
func Classify(p catalog.Product, attributeID string, correctOf map[string]string) (State, []string) {
	sel, ok := p.AttributeByID(attributeID)
	if !ok {
		return StateCorrect, nil
	}
	var bad []string
	for _, id := range sel.ValueIDs() {
		if _, isBad := correctOf[id]; isBad {
			bad = append(bad, id)
		}
	}
	if len(bad) == 0 {
		return StateCorrect, nil
	}
	return StateBad, bad
}

// Rewrite returns the value ids a product should hold after repair. With
// preserve, unrelated values keep their position; otherwise only the correct
// values remain.
func Rewrite(current []string, correctOf map[string]string, preserve bool) []string {
	out := make([]string, 0, len(current))
	for _, id := range current {
		if c, isBad := correctOf[id]; isBad {
			id = c
		} else if !preserve {
			continue
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func resolve(ctx context.Context, repo catalog.AttributeRepository, plan Plan) (*resolved, error) {
	if plan.Attribute == "" {
		return nil, fmt.Errorf("attribute is required")
	}
	if len(plan.Rules) == 0 {
		return nil, fmt.Errorf("at least one rule is required")
	}
	attr, err := repo.AttributeBySlug(ctx, plan.Attribute)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		if attr, err = repo.AttributeByID(ctx, plan.Attribute); err != nil {
			return nil, err
		}
	}
	if attr == nil {
		return nil, fmt.Errorf("attribute %q not found", plan.Attribute)
	}

	r := &resolved{attr: attr, correctOf: map[string]string{}}
	for i, rule := range plan.Rules {
		correct := rule.Correct
		if correct == "" {
			v, ok := attr.ValueByName(rule.CorrectName)
			if !ok {
				return nil, fmt.Errorf("rule %d: value %q not found on attribute %q", i, rule.CorrectName, attr.Slug)
			}
			correct = v.ID
		} else if !attr.HasValue(correct) {
			return nil, fmt.Errorf("rule %d: value %s does not belong to attribute %q", i, correct, attr.Slug)
		}
		if len(rule.Bad) == 0 {
			return nil, fmt.Errorf("rule %d: no bad values", i)
		}
		for _, bad := range rule.Bad {
			if bad == correct {
				return nil, fmt.Errorf("rule %d: value %s is both bad and correct", i, bad)
			}
			if prev, dup := r.correctOf[bad]; dup && prev != correct {
				return nil, fmt.Errorf("rule %d: value %s already maps to %s", i, bad, prev)
			}
			if _, dup := r.correctOf[bad]; !dup {
				r.bad = append(r.bad, bad)
			}
			r.correctOf[bad] = correct
		}
	}
	return r, nil
}

// scan pages through products. maxPages of zero means every page. No channel
// is passed: a channel-scoped listing hides products without a listing in
// that channel, and those still reference values.
func scan(ctx context.Context, repo catalog.ProductRepository, opts Options, maxPages int, visit func(catalog.Product)) (pages int, complete bool, err error) {
	after := ""
	for {
		page, err := repo.ProductsPage(ctx, catalog.PageRequest{First: opts.PageSize, After: after})
		if err != nil {
			return pages, false, fmt.Errorf("scan page %d: %w", pages+1, err)
		}
		pages++
		for _, p := range page.Products {
			visit(p)
		}
		if !page.HasNextPage || page.EndCursor == "" {
			return pages, true, nil
		}
		if maxPages > 0 && pages >= maxPages {
			return pages, false, nil
		}
		after = page.EndCursor
	}
}

// Run applies plan: scan, rewrite every product holding a bad value, verify
// by rescanning, then delete the bad values that are no longer referenced.
// The report is returned even when err is non-nil.
func Run(ctx context.Context, repo catalog.Repository, plan Plan, opts Options) (*Report, error) {
	logger := logging.OrNop(opts.Logger)
	report := &Report{Plan: plan.Name, Attribute: plan.Attribute, DryRun: opts.DryRun, Matched: []Match{}, Updated: []string{}, Deleted: []string{}}

	r, err := resolve(ctx, repo, plan)
	if err != nil {
		return report, err
	}
	report.Attribute = r.attr.Slug
	ref := catalog.AttributeRef{ID: r.attr.ID, Slug: r.attr.Slug, InputType: r.attr.InputType}

	pages, complete, err := scan(ctx, repo, opts, opts.MaxPages, func(p catalog.Product) {
		report.Scanned++
		state, bad := Classify(p, r.attr.ID, r.correctOf)
		if state != StateBad {
			return
		}
		sel, _ := p.AttributeByID(r.attr.ID)
		report.Matched = append(report.Matched, Match{
			ProductID: p.ID,
			Slug:      p.Slug,
			Bad:       bad,
			Values:    Rewrite(sel.ValueIDs(), r.correctOf, !plan.OverwriteValues),
		})
	})
	report.Pages, report.Complete = pages, complete
	if err != nil {
		return report, err
	}
	logger.Info("repair scan finished",
		zap.String("attribute", r.attr.Slug),
		zap.Int("pages", pages),
		zap.Int("scanned", report.Scanned),
		zap.Int("matched", len(report.Matched)),
		zap.Bool("complete", complete),
	)

	if opts.DryRun {
		return report, nil
	}

	for _, m := range report.Matched {
		if err := opts.Filter.Check("product", m.Slug); err != nil {
			logger.Warn("product skipped", zap.String("slug", m.Slug), zap.Error(err))
			report.Blocked = append(report.Blocked, m.Slug)
			continue
		}
		start := time.Now()
		_, err := repo.UpdateProduct(ctx, m.ProductID, catalog.ProductUpdate{
			Attributes: []catalog.AttributeValueInput{catalog.SelectValues(ref, m.Values...)},
		})
		opts.Audit.Record("repair.productUpdate", m.Slug, map[string]any{"attribute": r.attr.Slug, "bad": m.Bad, "values": m.Values}, start, err)
		if err != nil {
			return report, fmt.Errorf("update %s: %w", m.Slug, err)
		}
		logger.Info("product repaired", zap.String("slug", m.Slug), zap.Strings("values", m.Values))
		report.Updated = append(report.Updated, m.Slug)
	}

	if !complete {
		report.Retained = append(report.Retained, r.bad...)
		return report, fmt.Errorf("%w: stopped after %d pages with more products remaining", ErrIncompleteScan, pages)
	}

	if err := opts.AttributeFilter.Check("attribute", r.attr.Slug); err != nil {
		report.Retained = append(report.Retained, r.bad...)
		return report, err
	}

	refs, err := references(ctx, repo, opts, r)
	if err != nil {
		return report, fmt.Errorf("verify: %w", err)
	}

	var errs []error
	for _, bad := range r.bad {
		if n := refs[bad]; n > 0 {
			report.Retained = append(report.Retained, bad)
			errs = append(errs, fmt.Errorf("%w: %s referenced by %d products", ErrDanglingReferences, bad, n))
			continue
		}
		if !r.attr.HasValue(bad) {
			report.Absent = append(report.Absent, bad)
			continue
		}
		start := time.Now()
		err := repo.DeleteAttributeValue(ctx, bad)
		opts.Audit.Record("repair.attributeValueDelete", bad, map[string]any{"attribute": r.attr.Slug}, start, err)
		if err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", bad, err))
			continue
		}
		logger.Info("bad value deleted", zap.String("attribute", r.attr.Slug), zap.String("value", bad))
		report.Deleted = append(report.Deleted, bad)
	}
	return report, errors.Join(errs...)
}

// references rescans every product and counts the products still holding
// each bad value.
func references(ctx context.Context, repo catalog.ProductRepository, opts Options, r *resolved) (map[string]int, error) {
	refs := make(map[string]int, len(r.bad))
	_, _, err := scan(ctx, repo, opts, 0, func(p catalog.Product) {
		_, bad := Classify(p, r.attr.ID, r.correctOf)
		for _, id := range bad {
			refs[id]++
		}
	})
	return refs, err
}

// ParseReplacements parses "BAD=CORRECT" pairs separated by commas. Several
// bad ids may share one correct value with "BAD1|BAD2=CORRECT". A correct
// value written as "name:Franchise" is resolved by name.
func ParseReplacements(s string) ([]Rule, error) {
	var rules []Rule
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		bad, correct, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(bad) == "" || strings.TrimSpace(correct) == "" {
			return nil, fmt.Errorf("invalid replacement %q: want BAD=CORRECT", pair)
		}
		rule := Rule{}
		for _, b := range strings.Split(bad, "|") {
			if b = strings.TrimSpace(b); b != "" {
				rule.Bad = append(rule.Bad, b)
			}
		}
		correct = strings.TrimSpace(correct)
		if name, byName := strings.CutPrefix(correct, "name:"); byName {
			rule.CorrectName = name
		} else {
			rule.Correct = correct
		}
		rules = append(rules, rule)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("no replacements given")
	}
	return rules, nil
}
