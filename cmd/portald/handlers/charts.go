package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apierr "github.com/strongaya/fdm-portal/pkg/api/errors"
	"github.com/strongaya/fdm-portal/pkg/descriptives"
	"github.com/strongaya/fdm-portal/pkg/descriptives/aggregate"
	"github.com/strongaya/fdm-portal/pkg/history"
	"github.com/strongaya/fdm-portal/pkg/schema"
)

// DonutChartHandler serves GET /api/charts/donut/?domain=...&by=...
//
// Optional repeated query parameters "organisation", "prefix" and
// "category" narrow the chart to the selected organisations, variable
// name prefixes and schema categories.
func DonutChartHandler(store history.Store, sch schema.Schema, subject string) echo.HandlerFunc {
	return func(c echo.Context) error {
		domain, err := aggregate.ParseDomain(c.QueryParam("domain"))
		if err != nil {
			return apierr.BadRequest(err.Error(), err)
		}
		by, err := aggregate.ParseGroupBy(c.QueryParam("by"))
		if err != nil {
			return apierr.BadRequest(err.Error(), err)
		}

		snapshot, err := selectedSnapshot(c, store, sch)
		if err != nil {
			return err
		}

		donut, err := aggregate.DonutChart(snapshot, domain, by, subject)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, donut)
	}
}

// VariableBarsHandler serves GET /api/charts/variables/?domain=...
//
// Only the completeness and plausibility domains have this chart.
func VariableBarsHandler(store history.Store, sch schema.Schema) echo.HandlerFunc {
	return func(c echo.Context) error {
		domain, err := aggregate.ParseDomain(c.QueryParam("domain"))
		if err != nil {
			return apierr.BadRequest(err.Error(), err)
		}
		if domain == aggregate.Availability {
			return apierr.BadRequest(
				"no per-variable chart for domain availability (should be one of -- completeness|plausibility)",
				nil,
			)
		}

		snapshot, err := selectedSnapshot(c, store, sch)
		if err != nil {
			return err
		}

		bars, err := aggregate.VariableBars(snapshot, domain)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, bars)
	}
}

// selectedSnapshot reads the latest snapshot and applies the
// "organisation", "prefix" and "category" query filters.
func selectedSnapshot(c echo.Context, store history.Store, sch schema.Schema) (descriptives.Snapshot, error) {
	ctx := c.Request().Context()

	_, latest, _, err := store.Latest(ctx)
	if err != nil {
		return nil, apierr.ServiceUnavailable("please retry later", err)
	}

	q := c.QueryParams()
	latest = aggregate.SelectOrganisations(latest, q["organisation"])
	latest = aggregate.FilterByPrefix(latest, q["prefix"])
	latest = aggregate.FilterByCategory(latest, q["category"], sch, aggregate.MaxCategoryDepth)
	return latest, nil
}
