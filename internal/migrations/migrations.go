// Package migrations holds the named catalog migrations and the runner that
// applies them in order.
package migrations

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jamesprial/catalog-admin/internal/catalog"
	"github.com/jamesprial/catalog-admin/internal/logging"
	"github.com/jamesprial/catalog-admin/internal/media"
	"github.com/jamesprial/catalog-admin/internal/safety"
	"github.com/jamesprial/catalog-admin/internal/upsert"
)

// Env carries the dependencies every migration uses.
type Env struct {
	Repo     catalog.Repository
	Media    *media.Attacher
	Channel  string
	PageSize int
	Filter   *safety.Filter
	// AttributeFilter guards attribute and attribute value deletions.
	AttributeFilter *safety.Filter
	Audit           *safety.AuditLogger
	Logger          *zap.Logger
}

func (e *Env) logger() *zap.Logger { return logging.OrNop(e.Logger) }

// mutate runs a product mutation when the filter allows slug and audits it.
func (e *Env) mutate(op, slug string, params map[string]any, fn func() error) error {
	if err := e.Filter.Check("product", slug); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	e.Audit.Record(op, slug, params, start, err)
	return err
}

// record audits a mutation on a non-product target.
func (e *Env) record(op, target string, params map[string]any, start time.Time, err error) {
	e.Audit.Record(op, target, params, start, err)
}

// Result summarises one migration run.
type Result struct {
	Migration string   `json:"migration"`
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	Deleted   int      `json:"deleted"`
	Skipped   int      `json:"skipped"`
	Notes     []string `json:"notes,omitempty"`
	Data      any      `json:"data,omitempty"`
}

func (r *Result) note(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

func (r *Result) count(o upsert.Outcome) {
	if o.Created {
		r.Created++
	}
}

func (r *Result) tally(c upsert.Counts) {
	r.Created += c.Created
}

// Migration is one named catalog change.
type Migration struct {
	Name        string
	Description string
	ReadOnly    bool
	Run         func(ctx context.Context, env *Env, plan *Plan) (*Result, error)
}

// Registry returns every migration in the order they are meant to be applied.
func Registry() []Migration {
	return []Migration{
		{Name: "franchise-category", Description: "Create the Franchise Category attribute and tag franchise products", Run: runFranchiseCategory},
		{Name: "franchise-categories", Description: "Move franchise products into child categories of Franchises and drop the attribute", Run: runFranchiseCategories},
		{Name: "repair-values", Description: "Point products at the correct attribute values and delete the bad duplicates", Run: runRepairs},
		{Name: "amenities", Description: "Set up the multiselect Amenities attribute and assign default amenities", Run: runAmenities},
		{Name: "construction-data", Description: "Store the construction progress document in product metadata", Run: runConstruction},
		{Name: "franchises", Description: "Create or update franchise products with pricing and publication", Run: runFranchises},
		{Name: "product-images", Description: "Attach images to products without media", Run: runImages},
		{Name: "list-products", Description: "List every product", ReadOnly: true, Run: runListProducts},
		{Name: "inspect-attributes", Description: "Show attributes matching the inspect search with their values", ReadOnly: true, Run: runInspectAttributes},
	}
}

// Lookup returns the migration with the given name.
func Lookup(name string) (Migration, bool) {
	for _, m := range Registry() {
		if m.Name == name {
			return m, true
		}
	}
	return Migration{}, false
}

// Runner applies migrations against one environment and plan.
type Runner struct {
	Env  *Env
	Plan *Plan
}

// Run applies the named migrations in the given order and stops at the first
// error. Unknown names are rejected before anything runs. The results of the
// migrations that ran are returned with the error.
func (r *Runner) Run(ctx context.Context, names ...string) ([]*Result, error) {
	selected := make([]Migration, 0, len(names))
	for _, name := range names {
		m, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown migration %q", name)
		}
		selected = append(selected, m)
	}

	log := r.Env.logger()
	results := make([]*Result, 0, len(selected))
	for _, m := range selected {
		start := time.Now()
		log.Info("migration started", zap.String("migration", m.Name))
		res, err := m.Run(ctx, r.Env, r.Plan)
		if res != nil {
			res.Migration = m.Name
			results = append(results, res)
		}
		if err != nil {
			log.Error("migration failed", zap.String("migration", m.Name), zap.Error(err))
			return results, fmt.Errorf("%s: %w", m.Name, err)
		}
		log.Info("migration finished",
			zap.String("migration", m.Name),
			zap.Int("created", res.Created),
			zap.Int("updated", res.Updated),
			zap.Int("deleted", res.Deleted),
			zap.Int("skipped", res.Skipped),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return results, nil
}
