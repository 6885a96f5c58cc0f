package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	authusecase "github.com/shandysiswandi/portal/internal/auth/usecase"
	"github.com/shandysiswandi/portal/internal/pkg/clock"
	"github.com/shandysiswandi/portal/internal/pkg/config"
	"github.com/shandysiswandi/portal/internal/pkg/goroutine"
	"github.com/shandysiswandi/portal/internal/pkg/hash"
	"github.com/shandysiswandi/portal/internal/pkg/httpclient"
	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"github.com/shandysiswandi/portal/internal/pkg/jwt"
	"github.com/shandysiswandi/portal/internal/pkg/messaging"
	"github.com/shandysiswandi/portal/internal/pkg/otp"
	"github.com/shandysiswandi/portal/internal/pkg/router"
	"github.com/shandysiswandi/portal/internal/pkg/storage"
	"github.com/shandysiswandi/portal/internal/pkg/uid"
	"github.com/shandysiswandi/portal/internal/pkg/validator"
	"github.com/ulule/limiter/v3"
	"golang.org/x/oauth2"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Scheduler
	hmac      hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	totp      otp.OTP
	jwt       jwt.JWT
	t1pay     *oauth2.Config

	// resources
	dbConn         *pgxpool.Pool
	cacheConn      *redis.Client
	captureLimit   *limiter.Limiter
	messaging      messaging.Messaging
	storage        storage.Storage
	authBackend    *httpclient.Client
	accountBackend *httpclient.Client

	// server
	router     *router.Router
	httpServer *http.Server

	// modules
	auth *authusecase.Usecase

	// closed in reverse order of registration
	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

const pingTimeout = 5 * time.Second

func (a *App) onClose(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// fatal logs and exits; it is only called while booting.
func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initT1Pay()
	app.initDatabase()
	app.initCache()
	app.initRateLimit()
	app.initStorage()
	app.initMessaging()
	app.initBackend()
	app.initHTTPServer()
	app.initModules()

	return app
}
