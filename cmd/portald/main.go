package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/strongaya/fdm-portal/cmd/portald/handlers"
	"github.com/strongaya/fdm-portal/pkg/configs/dashboard"
	"github.com/strongaya/fdm-portal/pkg/history"
	"github.com/strongaya/fdm-portal/pkg/history/postgres"
	"github.com/strongaya/fdm-portal/pkg/schema"
	"github.com/strongaya/fdm-portal/pkg/utils/echoutil"
	"github.com/strongaya/fdm-portal/pkg/utils/filewatch"
	"github.com/strongaya/fdm-portal/pkg/utils/try"
	"github.com/strongaya/fdm-portal/pkg/vantage6"
	"github.com/strongaya/fdm-portal/pkg/vantage6/mock"
)

func main() {
	logger := log.Default()
	logger.SetPrefix("[portald] ")

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM,
	)
	defer cancel()

	configPath := flag.String(
		"config", os.Getenv("PORTAL_CONFIG"), "path to config file",
	)
	loglevel := flag.String(
		"loglevel", "", "log level. debug|info|warn|error|off (wins over config)",
	)
	flag.Parse()

	conf := try.To(dashboard.Load(*configPath)).OrFatal(logger)
	if *loglevel != "" {
		conf.LogLevel = *loglevel
	}
	if err := conf.Verify(); err != nil {
		logger.Fatalf("configuration is not runnable: %s", err)
	}

	sch := try.To(schema.Load(conf.SchemaPath)).OrFatal(logger)

	{
		// the schema file is shared across the network. When it is
		// updated, quit gracefully and let the orchestrator restart us
		// with the new schema.
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, conf.SchemaPath)
		if err != nil {
			logger.Fatalf("can not watch schema file: %s", err)
		}
		defer cancel()
		ctx = wctx
	}

	store := try.To(newStore(ctx, conf)).OrFatal(logger)
	defer store.Close()

	retriever := try.To(newRetriever(conf, logger)).OrFatal(logger)

	e := echo.New()
	e.Pre(middleware.AddTrailingSlash())

	echoutil.SetLevel(e, conf.LogLevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)

	{
		e.GET("/api/summary/", handlers.SummaryHandler(store))
		e.GET("/api/organisations/", handlers.OrganisationsHandler(store))
		e.GET("/api/charts/donut/", handlers.DonutChartHandler(store, sch, conf.Subject))
		e.GET("/api/charts/variables/", handlers.VariableBarsHandler(store, sch))
		e.GET("/api/availability/", handlers.AvailabilityHandler(store, sch, conf.Subject))
		e.GET("/api/schema/", handlers.SchemaHandler(sch))

		e.GET("/health/", func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
		})
	}

	if conf.AssetsDir != "" {
		e.Static("/", conf.AssetsDir)
	}

	logger.Println("registred routes:")
	for _, r := range e.Routes() {
		logger.Println(r.Method, r.Path)
	}

	go func() {
		err := StartFetchLoop(ctx, logger, retriever, sch, store, conf)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("fetch loop stopped: %s", err)
		}
	}()

	go func() {
		<-ctx.Done()
		graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := e.Shutdown(graceful); err != nil {
			logger.Printf("error on shutdown: %s", err)
		}
	}()

	if err := e.Start(fmt.Sprintf(":%d", conf.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		e.Logger.Fatal(err)
	}
}

// newStore selects the history store: postgres when configured,
// in-process memory otherwise.
func newStore(ctx context.Context, conf dashboard.Config) (history.Store, error) {
	if conf.HistoryDBURI == "" {
		return history.InMemory(), nil
	}
	return postgres.New(ctx, conf.HistoryDBURI)
}

// newRetriever selects the data source, most explicit first:
// a network configuration file, then Docker secrets, then mock data.
func newRetriever(conf dashboard.Config, logger *log.Logger) (vantage6.Retriever, error) {
	if conf.NetworkConfigPath != "" {
		c, err := vantage6.LoadConfig(conf.NetworkConfigPath)
		if err != nil {
			return nil, err
		}
		return vantage6.NewClient(c)
	}

	c, err := vantage6.FromSecrets(conf.SecretsDir)
	if err == nil {
		return vantage6.NewClient(c)
	}
	if !errors.Is(err, vantage6.ErrNoSecrets) {
		return nil, err
	}

	if conf.MockDataDir == "" {
		return nil, fmt.Errorf(
			"no data source: provide secrets at %s, a networkConfigPath or a mockDataDir",
			conf.SecretsDir,
		)
	}
	logger.Printf("no vantage6 secrets found, serving mock data from %s", conf.MockDataDir)
	return mock.New(conf.MockDataDir), nil
}
