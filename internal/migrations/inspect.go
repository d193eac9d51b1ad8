package migrations

import (
	"context"
	"errors"
	"fmt"

	"github.com/jamesprial/catalog-admin/internal/media"
	"github.com/jamesprial/catalog-admin/internal/repair"
)

func runRepairs(ctx context.Context, env *Env, plan *Plan) (*Result, error) {
	res := &Result{}
	reports := make([]*repair.Report, 0, len(plan.Repairs))
	res.Data = reports
	for _, rp := range plan.Repairs {
		report, err := repair.Run(ctx, env.Repo, rp, repair.Options{
			PageSize:        env.PageSize,
			Filter:          env.Filter,
			AttributeFilter: env.AttributeFilter,
			Audit:           env.Audit,
			Logger:          env.Logger,
		})
		if report != nil {
			reports = append(reports, report)
			res.Data = reports
			res.Updated += len(report.Updated)
			res.Deleted += len(report.Deleted)
			res.Skipped += len(report.Blocked)
		}
		if err != nil {
			name := rp.Name
			if name == "" {
				name = rp.Attribute
			}
			return res, fmt.Errorf("repair %s: %w", name, err)
		}
	}
	return res, nil
}

func runImages(ctx context.Context, env *Env, plan *Plan) (*Result, error) {
	res := &Result{}
	if env.Media == nil {
		return res, errors.New("media attacher not configured")
	}
	report, err := env.Media.Attach(ctx, plan.Images)
	if report != nil {
		res.Data = report
		res.Created = report.Count(media.StatusAttached)
		res.Skipped = report.Count(media.StatusSkipped) + report.Count(media.StatusNotFound) + report.Count(media.StatusBlocked)
		for _, r := range report.Results {
			if r.Status == media.StatusFailed || r.Status == media.StatusNotFound {
				res.note("%s: %s %s", r.Slug, r.Status, r.Reason)
			}
		}
	}
	return res, err
}

// ProductSummary is one line of the product listing.
type ProductSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Category string `json:"category,omitempty"`
}

func runListProducts(ctx context.Context, env *Env, _ *Plan) (*Result, error) {
	res := &Result{}
	products, err := env.Repo.AllProducts(ctx, env.PageSize, env.Channel)
	if err != nil {
		return res, err
	}
	out := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		s := ProductSummary{ID: p.ID, Name: p.Name, Slug: p.Slug}
		if p.Category != nil {
			s.Category = p.Category.Slug
		}
		out = append(out, s)
	}
	res.Data = out
	return res, nil
}

func runInspectAttributes(ctx context.Context, env *Env, plan *Plan) (*Result, error) {
	res := &Result{}
	search := plan.Inspect.AttributeSearch
	found, err := env.Repo.SearchAttributes(ctx, search, 50)
	if err != nil {
		return res, err
	}
	for i := range found {
		full, err := env.Repo.AttributeByID(ctx, found[i].ID)
		if err != nil {
			return res, err
		}
		if full != nil {
			found[i] = *full
		}
	}
	if len(found) == 0 {
		res.note("no attributes match %q", search)
	}
	res.Data = found
	return res, nil
}
