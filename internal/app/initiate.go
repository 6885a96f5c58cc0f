package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
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
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		fatal("failed to init config", "error", err)
	}

	if tz := cfg.GetString("app.tz"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			fatal("failed to load app.tz", "tz", tz, "error", err)
		}
		time.Local = loc
	}

	a.config = cfg
	a.onClose("config", func(context.Context) error { return cfg.Close() })
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
		LogLevel:         a.config.GetString("instrument.log_level"),
	})
	if err != nil {
		fatal("failed to init instrumentation", "error", err)
	}
	a.ins = ins
	a.onClose("instrument", ins.Shutdown)
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))

	v, err := validator.NewV10Validator()
	if err != nil {
		fatal("failed to init validator", "error", err)
	}
	a.validator = v

	snow, err := uid.NewSnowflakeNode(a.config.GetInt64("app.node_id"))
	if err != nil {
		fatal("failed to init snowflake node", "error", err)
	}
	a.uid = snow

	a.totp = otp.NewTOTP(
		a.config.GetString("modules.auth.otp.issuer"),
		a.config.GetUint("modules.auth.otp.period_seconds"),
		a.config.GetInt("modules.auth.otp.length"),
	)
}

func (a *App) initJWT() {
	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       a.config.GetHour("jwt.ttl_hours"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		fatal("failed to init jwt signer", "error", err)
	}
	a.jwt = signer
}

// initT1Pay leaves a.t1pay nil when no client id is configured.
func (a *App) initT1Pay() {
	clientID := strings.TrimSpace(a.config.GetString("modules.auth.t1pay.client_id"))
	if clientID == "" {
		slog.Info("t1pay login disabled")
		return
	}

	base := strings.TrimRight(a.config.GetString("modules.auth.t1pay.base_url"), "/")
	a.t1pay = &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: a.config.GetString("modules.auth.t1pay.client_secret"),
		RedirectURL:  strings.TrimRight(a.config.GetString("app.portal_origin"), "/") + "/cuenta/login/t1pay-callback",
		Scopes:       a.config.GetArray("modules.auth.t1pay.scopes"),
		Endpoint: oauth2.Endpoint{
			AuthURL:  base + "/auth",
			TokenURL: base + "/token",
		},
	}
}

func (a *App) initDatabase() {
	pc, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		fatal("failed to parse database url", "error", err)
	}

	pc.MaxConns = a.config.GetInt32("database.pool.max_conns")
	pc.MinConns = a.config.GetInt32("database.pool.min_conns")
	pc.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	pc.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	pc.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")
	pc.ConnConfig.RuntimeParams["application_name"] = a.config.GetString("instrument.service_name")

	pool, err := pgxpool.NewWithConfig(a.ctx, pc)
	if err != nil {
		fatal("failed to create DB connection pool", "error", err)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		fatal("failed to ping DB", "error", err)
	}

	a.dbConn = pool
	a.onClose("database", func(context.Context) error {
		pool.Close()
		return nil
	})
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		fatal("failed to parse redis url", "error", err)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		fatal("failed to ping redis", "error", err)
	}

	a.cacheConn = rdb
	a.onClose("redis", func(context.Context) error { return rdb.Close() })
}

func (a *App) initRateLimit() {
	format := a.config.GetString("modules.auth.capture_rate_limit")
	if format == "" {
		return
	}

	rate, err := limiter.NewRateFromFormatted(format)
	if err != nil {
		fatal("failed to parse capture rate limit", "error", err, "rate", format)
	}

	store, err := sredis.NewStoreWithOptions(a.cacheConn, limiter.StoreOptions{
		Prefix: "portal:ratelimit:capture",
	})
	if err != nil {
		fatal("failed to init rate limit store", "error", err)
	}

	a.captureLimit = limiter.New(store, rate, limiter.WithTrustForwardHeader(true))
}

// initStorage opens the invoice bucket. A GCS key file is read here so the
// driver only ever sees the JSON.
func (a *App) initStorage() {
	str := func(key string) string { return strings.TrimSpace(a.config.GetString(key)) }

	gcsCreds := a.config.GetBinary("storage.gcs.credentials_json")
	if path := str("storage.gcs.credentials_file"); path != "" && len(gcsCreds) == 0 {
		// #nosec G304 -- operator supplied path
		b, err := os.ReadFile(path)
		if err != nil {
			fatal("failed to read gcs credentials", "path", path, "error", err)
		}
		gcsCreds = b
	}

	bucket := str("modules.account.invoice.bucket")
	if bucket == "" {
		bucket = "portal-invoices"
	}

	stg, err := storage.New(a.ctx, str("storage.driver"), storage.Options{
		Bucket: bucket,
		S3: storage.S3Config{
			Region:       str("storage.s3.region"),
			Endpoint:     str("storage.s3.endpoint"),
			AccessKey:    str("storage.s3.access_key"),
			SecretKey:    str("storage.s3.secret_key"),
			SessionToken: str("storage.s3.session_token"),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		GCS: storage.GCSConfig{
			CredentialsJSON: gcsCreds,
			Endpoint:        str("storage.gcs.endpoint"),
			WithoutAuth:     a.config.GetBool("storage.gcs.without_auth"),
			AccessID:        str("storage.gcs.signer_access_id"),
			PrivateKey:      a.config.GetBinary("storage.gcs.signer_private_key"),
		},
		MinIO: storage.MinIOConfig{
			Endpoint:     str("storage.minio.endpoint"),
			Region:       str("storage.minio.region"),
			AccessKey:    str("storage.minio.access_key"),
			SecretKey:    str("storage.minio.secret_key"),
			SessionToken: str("storage.minio.session_token"),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
	})
	if err != nil {
		fatal("failed to init storage", "bucket", bucket, "error", err)
	}

	a.storage = stg
	a.onClose("storage", func(context.Context) error { return stg.Close() })
}

// initMessaging builds the publisher for messaging.driver. Only the settings
// of the selected driver are read by the constructor.
func (a *App) initMessaging() {
	nsqConf := nsq.NewConfig()
	nsqConf.DialTimeout = a.config.GetSecond("messaging.nsq.dial_timeout_seconds")
	nsqConf.WriteTimeout = a.config.GetSecond("messaging.nsq.write_timeout_seconds")

	var pubsubOpts []option.ClientOption
	if ep := strings.TrimSpace(a.config.GetString("messaging.pubsub.endpoint")); ep != "" {
		// emulator
		pubsubOpts = append(pubsubOpts, option.WithEndpoint(ep), option.WithoutAuthentication())
	}

	driver := a.config.GetString("messaging.driver")
	client, err := messaging.New(a.ctx, driver, messaging.Options{
		NSQ: messaging.NSQConfig{
			Addr:   a.config.GetString("messaging.nsq.addr"),
			Config: nsqConf,
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.PingInterval(a.config.GetSecond("messaging.nats.ping_interval_seconds")),
				nats.MaxPingsOutstanding(a.config.GetInt("messaging.nats.max_pings_outstanding")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer: &kafka.Dialer{
				ClientID: a.config.GetString("messaging.kafka.client_id"),
				Timeout:  a.config.GetSecond("messaging.kafka.dial_timeout_seconds"),
			},
			BatchTimeout: time.Duration(a.config.GetInt("messaging.kafka.batch_timeout_ms")) * time.Millisecond,
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     a.config.GetString("messaging.pubsub.project_id"),
			ClientOptions: pubsubOpts,
		},
	})
	if err != nil {
		fatal("failed to init messaging", "error", err, "driver", driver)
	}

	a.messaging = client
	a.onClose("messaging", func(context.Context) error { return client.Close() })
}

// initBackend builds one client per module so their spans and timeouts are
// told apart.
func (a *App) initBackend() {
	base := a.config.GetString("modules.auth.store.http.base_url")
	timeout := a.config.GetSecond("modules.auth.store.timeout_seconds")
	retries := uint64(a.config.GetUint("modules.auth.store.http.max_retries"))

	a.authBackend = httpclient.New(httpclient.Config{
		BaseURL:    base,
		Timeout:    timeout,
		MaxRetries: retries,
		Scope:      "auth.outbound.backend",
	}, nil, a.ins)

	a.accountBackend = httpclient.New(httpclient.Config{
		BaseURL:    base,
		Timeout:    timeout,
		MaxRetries: retries,
		Scope:      "account.outbound.backend",
	}, nil, a.ins)
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:      a.config,
		UUID:        a.uuid,
		JWT:         a.jwt,
		Instrument:  a.ins,
		ServiceName: a.config.GetString("instrument.service_name"),
	})

	handler := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Correlation-ID"},
		ExposedHeaders:   []string{"X-Correlation-ID", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           handler,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}
