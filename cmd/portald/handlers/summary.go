package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apierr "github.com/strongaya/fdm-portal/pkg/api/errors"
	"github.com/strongaya/fdm-portal/pkg/descriptives/aggregate"
	"github.com/strongaya/fdm-portal/pkg/history"
)

// Summary is the response of GET /api/summary/.
type Summary struct {
	aggregate.Summary

	// FetchedAt is when the latest snapshot was fetched (RFC3339).
	// Empty until the first fetch completes.
	FetchedAt string `json:"fetchedAt,omitempty"`

	// Timestamps lists all fetches in the history, oldest first.
	Timestamps []string `json:"timestamps"`
}

// SummaryHandler serves the dashboard's headline numbers.
func SummaryHandler(store history.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		at, latest, _, err := store.Latest(ctx)
		if err != nil {
			return apierr.ServiceUnavailable("please retry later", err)
		}
		h, err := store.Slice(ctx)
		if err != nil {
			return apierr.ServiceUnavailable("please retry later", err)
		}

		return c.JSON(http.StatusOK, Summary{
			Summary:    aggregate.Summarise(latest),
			FetchedAt:  at,
			Timestamps: h.Timestamps(),
		})
	}
}
