// Composition root. Owns infrastructure (DB, Redis, HTTP clients) and wires the
// relay. This is the only place that knows about every module.
package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Abraxas-365/mailrelay/pkg/activity"
	"github.com/Abraxas-365/mailrelay/pkg/activity/activityinfra"
	"github.com/Abraxas-365/mailrelay/pkg/config"
	"github.com/Abraxas-365/mailrelay/pkg/iam/identity"
	"github.com/Abraxas-365/mailrelay/pkg/iam/identity/identityhttp"
	"github.com/Abraxas-365/mailrelay/pkg/iam/identity/identityredis"
	"github.com/Abraxas-365/mailrelay/pkg/logx"
	"github.com/Abraxas-365/mailrelay/pkg/migrations"
	"github.com/Abraxas-365/mailrelay/pkg/notifx"
	"github.com/Abraxas-365/mailrelay/pkg/notifx/notifxconsole"
	"github.com/Abraxas-365/mailrelay/pkg/notifx/notifxresend"
	"github.com/Abraxas-365/mailrelay/pkg/notifx/notifxses"
	"github.com/Abraxas-365/mailrelay/pkg/profile/profileinfra"
	"github.com/Abraxas-365/mailrelay/pkg/relay"
	"github.com/Abraxas-365/mailrelay/pkg/relay/relayapi"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and the composed relay.
type Container struct {
	Config *config.Config

	// Infrastructure
	DB    *sqlx.DB
	Redis *redis.Client

	// Relay
	Resolver      identity.Resolver
	Mailer        notifx.EmailSender
	RelayService  *relay.Service
	RelayHandlers *relayapi.Handlers
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logx.Info("Initializing application container...")

	c := &Container{Config: cfg}

	if err := c.initInfrastructure(ctx); err != nil {
		c.Cleanup()
		return nil, err
	}
	if err := c.initModules(ctx); err != nil {
		c.Cleanup()
		return nil, err
	}

	logx.Info("Application container initialized")
	return c, nil
}

// ---------------------------------------------------------------------------
// Infrastructure
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure(ctx context.Context) error {
	db, err := openDatabase(c.Config.Database)
	if err != nil {
		return err
	}
	c.DB = db
	logx.Info("  Database connected")

	if !c.Config.Redis.Enabled {
		logx.Info("  Redis disabled")
		return nil
	}
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if err := c.Redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis at %s: %w", c.Config.Redis.Address(), err)
	}
	logx.Info("  Redis connected")
	return nil
}

func openDatabase(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// ---------------------------------------------------------------------------
// Modules
// ---------------------------------------------------------------------------

func (c *Container) initModules(ctx context.Context) error {
	resolver, err := c.newResolver()
	if err != nil {
		return err
	}
	c.Resolver = resolver

	mailer, err := c.newMailer(ctx)
	if err != nil {
		return err
	}
	c.Mailer = mailer

	c.RelayService = relay.NewService(
		c.Mailer,
		profileinfra.NewPostgresProfileRepository(c.DB),
		activity.NewRecorder(activityinfra.NewPostgresActivityRepository(c.DB)),
		c.Config.Relay,
	)
	c.RelayHandlers = relayapi.NewHandlers(c.RelayService, c.Resolver)
	return nil
}

func (c *Container) newResolver() (identity.Resolver, error) {
	cfg := c.Config.Identity

	var resolver identity.Resolver
	switch cfg.Mode {
	case config.IdentityModeRemote:
		if cfg.BackendURL == "" {
			return nil, fmt.Errorf("BACKEND_URL is required for identity mode %q", cfg.Mode)
		}
		resolver = identityhttp.NewResolver(cfg.BackendURL, cfg.AnonKey, &http.Client{Timeout: cfg.Timeout})
	case config.IdentityModeJWT:
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required for identity mode %q", cfg.Mode)
		}
		resolver = identity.NewJWTResolver(cfg.JWTSecret, cfg.JWTIssuer)
	default:
		return nil, fmt.Errorf("unknown IDENTITY_MODE %q (use %q or %q)", cfg.Mode, config.IdentityModeRemote, config.IdentityModeJWT)
	}
	logx.Infof("  Identity resolver: %s", cfg.Mode)

	if c.Redis != nil && cfg.CacheTTL > 0 {
		resolver = identityredis.NewCache(c.Redis, resolver, cfg.CacheTTL)
		logx.Infof("  Identity cache enabled (ttl: %s)", cfg.CacheTTL)
	}
	return resolver, nil
}

// newMailer returns nil when the selected provider has no credentials. The
// relay then answers "not configured" per request instead of failing startup.
func (c *Container) newMailer(ctx context.Context) (notifx.EmailSender, error) {
	cfg := c.Config.Notifx

	switch cfg.Provider {
	case config.ProviderResend:
		if cfg.ResendAPIKey == "" {
			logx.Warn("  RESEND_API_KEY is not set; email sending is disabled")
			return nil, nil
		}
		logx.Infof("  Mail provider: resend (%s)", cfg.ResendURL)
		return notifxresend.NewProvider(cfg.ResendAPIKey, cfg.ResendURL, &http.Client{Timeout: cfg.Timeout}), nil

	case config.ProviderSES:
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		logx.Infof("  Mail provider: ses (region: %s)", cfg.AWSRegion)
		return notifxses.NewSESProvider(ses.NewFromConfig(awsCfg)), nil

	case config.ProviderConsole:
		logx.Warn("  Mail provider: console (emails are logged, not sent)")
		return notifxconsole.NewConsoleProvider(), nil

	default:
		return nil, fmt.Errorf("unknown MAIL_PROVIDER %q", cfg.Provider)
	}
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (c *Container) Cleanup() {
	logx.Info("Cleaning up resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		}
	}
}

func migrate(ctx context.Context, cfg *config.Config, action string) error {
	db, err := openDatabase(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	switch action {
	case "up":
		return migrations.Up(ctx, db.DB)
	case "status":
		return migrations.Status(ctx, db.DB)
	default:
		return fmt.Errorf("unknown migrate action %q (use up or status)", action)
	}
}
