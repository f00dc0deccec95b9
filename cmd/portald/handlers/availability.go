package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apierr "github.com/strongaya/fdm-portal/pkg/api/errors"
	"github.com/strongaya/fdm-portal/pkg/descriptives/aggregate"
	"github.com/strongaya/fdm-portal/pkg/history"
	"github.com/strongaya/fdm-portal/pkg/schema"
)

// AvailabilityHandler serves GET /api/availability/: the FAIR data
// availability table crossing the schema with the latest snapshot.
func AvailabilityHandler(store history.Store, sch schema.Schema, subject string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		_, latest, _, err := store.Latest(ctx)
		if err != nil {
			return apierr.ServiceUnavailable("please retry later", err)
		}
		latest = aggregate.SelectOrganisations(latest, c.QueryParams()["organisation"])

		return c.JSON(http.StatusOK, aggregate.AvailabilityTable(sch, latest, subject))
	}
}

// SchemaHandler serves GET /api/schema/: the loaded schema, as is.
func SchemaHandler(sch schema.Schema) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, sch)
	}
}
