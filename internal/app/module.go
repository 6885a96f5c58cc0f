package app

import (
	"github.com/shandysiswandi/portal/internal/account"
	"github.com/shandysiswandi/portal/internal/analytics"
	"github.com/shandysiswandi/portal/internal/auth"
)

func (a *App) initModules() {
	authUC, err := auth.New(auth.Dependency{
		DBConn:       a.dbConn,
		CacheConn:    a.cacheConn,
		Goroutine:    a.goroutine,
		Router:       a.router,
		Messaging:    a.messaging,
		Backend:      a.authBackend,
		Config:       a.config,
		Instrument:   a.ins,
		UID:          a.uid,
		UUID:         a.uuid,
		HMAC:         a.hmac,
		Clock:        a.clock,
		Totp:         a.totp,
		Validator:    a.validator,
		JWT:          a.jwt,
		CaptureLimit: a.captureLimit,
		T1Pay:        a.t1pay,
	})
	if err != nil {
		fatal("failed to init module auth", "error", err)
	}
	a.auth = authUC

	if a.config.GetBool("modules.account.enabled") {
		if err := account.New(account.Dependency{
			CacheConn:  a.cacheConn,
			Router:     a.router,
			Backend:    a.accountBackend,
			Storage:    a.storage,
			Sessions:   authUC,
			Config:     a.config,
			Instrument: a.ins,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			fatal("failed to init module account", "error", err)
		}
	}

	if a.config.GetBool("modules.analytics.enabled") {
		if err := analytics.New(analytics.Dependency{
			Router:     a.router,
			Messaging:  a.messaging,
			Goroutine:  a.goroutine,
			JWT:        a.jwt,
			Clock:      a.clock,
			Validator:  a.validator,
			Instrument: a.ins,
		}); err != nil {
			fatal("failed to init module analytics", "error", err)
		}
	}
}
