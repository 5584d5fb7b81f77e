// -----------------------------------------------------------------------
// App - component wiring and the single run sequence
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/rosterpull/internal/common"
	"github.com/ternarybob/rosterpull/internal/portal"
	"github.com/ternarybob/rosterpull/internal/services/auth"
	"github.com/ternarybob/rosterpull/internal/services/export"
	"github.com/ternarybob/rosterpull/internal/services/roster"
)

// App holds all application components and dependencies. The portal client
// (and with it the session cookie jar) is created here and disposed with the
// process; nothing about the session is package-global.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Client        *portal.Client
	AuthService   *auth.Service
	RosterService *roster.Service
	ExportWriter  *export.Writer
}

// New wires the application components from configuration.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	timeout, err := config.RequestTimeout()
	if err != nil {
		return nil, err
	}

	client, err := portal.New(
		portal.WithTimeout(timeout),
		portal.WithUserAgent(config.HTTP.UserAgent),
		portal.WithRateLimit(config.HTTP.RateLimit),
		portal.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create portal client: %w", err)
	}

	return &App{
		Config:        config,
		Logger:        logger,
		Client:        client,
		AuthService:   auth.NewService(client, config.Portal, logger),
		RosterService: roster.NewService(client, config.Portal, logger),
		ExportWriter:  export.NewWriter(config.Output.Path, logger),
	}, nil
}

// Run performs one unit of work: ensure a valid session, fetch both roster
// resources sequentially, and write the merged output. The first failure
// aborts the run; nothing is retried and no partial output is written.
func (a *App) Run(ctx context.Context) error {
	if err := a.AuthService.EnsureSession(ctx); err != nil {
		return err
	}

	users, err := a.RosterService.FetchUsers(ctx)
	if err != nil {
		return err
	}

	current, err := a.RosterService.FetchCurrentUser(ctx)
	if err != nil {
		return err
	}

	return a.ExportWriter.Write(users, current)
}
