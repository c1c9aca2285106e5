/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/tomoncle/demoapi"
	"github.com/tomoncle/demoapi/api"
	"github.com/tomoncle/demoapi/config"
	"github.com/tomoncle/demoapi/database"
	"github.com/tomoncle/demoapi/models"
	"github.com/tomoncle/demoapi/repository"
	"github.com/tomoncle/demoapi/utils"
)

// Module wires config, database, store and services. The HTTP server is
// only built when something asks for it.
func Module(opts *RootOptions) fx.Option {
	logger := utils.NewLogger("APP")
	return fx.Options(
		fx.WithLogger(func() fxevent.Logger { return &fxLogger{logger: logger, verbose: opts.Verbose} }),
		fx.Supply(opts),
		fx.Provide(
			loadConfig,
			newDatabase,
			newStore,
			demoapi.NewService[models.Security, *models.Security],
			demoapi.NewService[models.ValueOverTime, *models.ValueOverTime],
			newHandler,
			newHTTPServer,
		),
	)
}

func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.autoCreate {
		cfg.Database.AutoCreate = true
	}
	cfg.ConfigureLogging()
	return cfg, nil
}

// newDatabase connects while the graph is built; table metadata needs a
// live *bun.DB before any service can be constructed.
func newDatabase(lc fx.Lifecycle, cfg *config.Config) (database.AbstractDatabaseManager, error) {
	factory := database.NewDatabaseFactory()
	manager, err := factory.CreateFromConfig(&cfg.Database)
	if err != nil {
		return nil, err
	}
	timeout := 2 * cfg.Database.ConnectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := factory.InitializeDatabase(ctx, &cfg.Database); err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return factory.Close() },
	})
	return manager, nil
}

func newStore(manager database.AbstractDatabaseManager, cfg *config.Config) (*repository.Store, error) {
	db := manager.GetDB()
	registry, err := models.NewRegistry(db)
	if err != nil {
		return nil, err
	}
	return repository.NewStore(db, registry, repository.WithSchema(cfg.Database.Schema)), nil
}

func newHandler(securities demoapi.Service[models.Security], values demoapi.Service[models.ValueOverTime],
	store *repository.Store, cfg *config.Config) *api.Handler {
	return api.NewHandler(securities, values, store, api.WithErrorDetail(cfg.Database.IncludeErrorDetail))
}

func newHTTPServer(lc fx.Lifecycle, h *api.Handler, cfg *config.Config) *http.Server {
	logger := utils.NewLogger("HTTP")
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Infof("Listening on %s", ln.Addr())
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.WithError(err).Error("HTTP server stopped")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server")
			return srv.Shutdown(ctx)
		},
	})
	return srv
}

// fxLogger reports fx events through logrus; successful steps only show up
// with --verbose.
type fxLogger struct {
	logger  *logrus.Logger
	verbose bool
}

func (l *fxLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.Provided:
		l.report(e.Err, "Provided", logrus.Fields{"constructor": e.ConstructorName})
	case *fxevent.Invoked:
		l.report(e.Err, "Invoked", logrus.Fields{"function": e.FunctionName})
	case *fxevent.OnStartExecuted:
		l.report(e.Err, "OnStart hook executed", logrus.Fields{"caller": e.CallerName, "runtime": e.Runtime})
	case *fxevent.OnStopExecuted:
		l.report(e.Err, "OnStop hook executed", logrus.Fields{"caller": e.CallerName, "runtime": e.Runtime})
	case *fxevent.Started:
		l.report(e.Err, "Application started", nil)
	case *fxevent.Stopped:
		l.report(e.Err, "Application stopped", nil)
	}
}

func (l *fxLogger) report(err error, msg string, fields logrus.Fields) {
	entry := l.logger.WithFields(fields)
	if err != nil {
		entry.WithError(err).Error(msg)
		return
	}
	if l.verbose {
		entry.Info(msg)
	}
}
