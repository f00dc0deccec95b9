package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apierr "github.com/strongaya/fdm-portal/pkg/api/errors"
	"github.com/strongaya/fdm-portal/pkg/history"
	"github.com/strongaya/fdm-portal/pkg/utils/slices"
)

// Organisation is one entry of GET /api/organisations/.
type Organisation struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

// OrganisationsHandler lists the organisations of the latest snapshot,
// for the dashboard's filter checkboxes.
func OrganisationsHandler(store history.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		_, latest, _, err := store.Latest(ctx)
		if err != nil {
			return apierr.ServiceUnavailable("please retry later", err)
		}

		return c.JSON(http.StatusOK, slices.Map(
			latest.OrganisationNames(),
			func(name string) Organisation {
				return Organisation{Name: name, Country: latest[name].Country}
			},
		))
	}
}
