package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jinzhu/copier"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"
	"github.com/tendant/chi-demo/app"
	dbutils "github.com/tendant/db-utils/db"
	"github.com/tendant/simple-authz/pkg/config"
	"github.com/tendant/simple-authz/pkg/jwks"
	"github.com/tendant/simple-authz/pkg/oauth2client"
	"github.com/tendant/simple-authz/pkg/oidc"
	"github.com/tendant/simple-authz/pkg/oidc/api"
	"github.com/tendant/simple-authz/pkg/ratelimit"
	"github.com/tendant/simple-authz/pkg/refreshtoken"
	"github.com/tendant/simple-authz/pkg/tokengenerator"
	"github.com/tendant/simple-authz/pkg/wellknown"
)

type ServerConfig struct {
	Env              string        `env:"APP_ENV" env-default:"development"`
	LogLevel         string        `env:"LOG_LEVEL" env-default:"info"`
	RefreshTokenRepo string        `env:"AUTHZ_REFRESH_TOKEN_REPOSITORY" env-default:"postgres"`
	PurgeInterval    time.Duration `env:"AUTHZ_PURGE_INTERVAL" env-default:"1h"`
	CookieSecure     bool          `env:"COOKIE_SECURE" env-default:"false"`
	TrustProxy       bool          `env:"TRUST_PROXY_HEADERS" env-default:"false"`
}

type Config struct {
	AppConfig       app.AppConfig
	ServerConfig    ServerConfig
	DatabaseConfig  config.DatabaseConfig
	RedisConfig     config.RedisConfig
	ClientConfig    config.OAuth2ClientConfig
	OIDCConfig      config.OIDCConfig
	JWKSConfig      config.JWKSConfig
	SessionConfig   config.SessionConfig
	RateLimitConfig config.RateLimitConfig
}

func main() {
	loadEnvFile()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed reading configuration", "err", err)
		os.Exit(1)
	}
	env, err := config.ParseEnvironment(cfg.ServerConfig.Env)
	if err != nil {
		slog.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}
	setupLogger(env, cfg.ServerConfig.LogLevel)

	err = config.Validate(
		cfg.DatabaseConfig.Validate,
		cfg.RedisConfig.Validate,
		cfg.RateLimitConfig.Validate,
		func() config.ValidationErrors { return cfg.ClientConfig.Validate(env) },
		func() config.ValidationErrors { return cfg.OIDCConfig.Validate(env) },
		func() config.ValidationErrors { return cfg.SessionConfig.Validate(env) },
	)
	if err != nil {
		slog.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	signingKey, err := jwks.LoadSigningKey(cfg.JWKSConfig, env)
	if err != nil {
		slog.Error("Failed loading signing key", "err", err)
		os.Exit(1)
	}

	var client oauth2client.StaticClient
	if err := copier.Copy(&client, &cfg.ClientConfig); err != nil {
		slog.Error("Failed copying client configuration", "err", err)
		os.Exit(1)
	}
	clientService, err := oauth2client.NewClientService(client, env)
	if err != nil {
		slog.Error("Failed creating client service", "err", err)
		os.Exit(1)
	}
	slog.Info("Configured OAuth2 client", "client", client.String())

	codeStore := newCodeStore(ctx, cfg)
	refreshRepo := newRefreshTokenRepository(ctx, cfg)

	refreshTokens := refreshtoken.NewService(refreshRepo,
		refreshtoken.WithExpiry(cfg.OIDCConfig.RefreshTokenExpiration))

	tokenIssuer := tokengenerator.NewRSATokenIssuer(signingKey, cfg.OIDCConfig.Issuer, client.ClientID,
		tokengenerator.WithAccessTokenExpiry(cfg.OIDCConfig.AccessTokenExpiration),
		tokengenerator.WithIDTokenExpiry(cfg.OIDCConfig.IDTokenExpiration),
	)

	oidcConfig := oidc.DefaultConfig()
	oidcConfig.LoginURL = cfg.OIDCConfig.LoginURL
	if err := oidcConfig.Validate(); err != nil {
		slog.Error("Invalid OIDC configuration", "err", err)
		os.Exit(1)
	}

	oidcService := oidc.NewOIDCService(
		codeStore,
		oauth2client.NewStaticAuthenticator(client),
		clientService,
		refreshTokens,
		tokenIssuer,
		oidc.WithConfig(oidcConfig),
	)

	sessions := api.NewJWTSession(cfg.SessionConfig.JWTSecret, cfg.SessionConfig.CookieName, cfg.ServerConfig.CookieSecure)
	handle := api.NewHandle(oidcService, sessions, cfg.OIDCConfig.Issuer)

	routerOpts := api.RouterOptions{
		Discovery: wellknown.NewHandler(wellknown.Config{
			Issuer:                 cfg.OIDCConfig.Issuer,
			Scopes:                 cfg.OIDCConfig.Scopes,
			PostLogoutRedirectURIs: client.PostLogoutRedirectURLs(),
		}),
		JWKS:              jwks.NewHandler(signingKey),
		TrustProxyHeaders: cfg.ServerConfig.TrustProxy,
	}
	if cfg.RateLimitConfig.Enabled {
		limiter := ratelimit.NewRateLimiter(cfg.RateLimitConfig.Rate, cfg.RateLimitConfig.Burst, cfg.RateLimitConfig.IdleExpiry)
		routerOpts.RateLimit = ratelimit.NewMiddleware(limiter).Handler
		slog.Info("Rate limiting configured", "rate", cfg.RateLimitConfig.Rate, "burst", cfg.RateLimitConfig.Burst)
	}

	go purgeExpiredTokens(ctx, refreshTokens, cfg.ServerConfig.PurgeInterval)

	server := app.DefaultApp()
	app.RegisterHealthzRoutes(server.R)
	server.R.Mount("/", handle.Routes(routerOpts))

	slog.Info("Authorization server starting", "issuer", cfg.OIDCConfig.Issuer, "env", env, "kid", signingKey.KeyID())
	server.Run()
}

func loadEnvFile() {
	envFile := config.GetEnvOrDefault("ENV_FILE", ".env")
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		return
	}
	if err := godotenv.Load(envFile); err != nil {
		slog.Error("Failed to load .env file", "err", err, "path", envFile)
		return
	}
	slog.Info("Configuration loaded from .env file", "path", envFile)
}

func setupLogger(env config.Environment, level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	var handler slog.Handler
	if env.IsDevelopment() {
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      lvl,
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     lvl,
			AddSource: true,
		})
	}
	slog.SetDefault(slog.New(handler))
}

func newCodeStore(ctx context.Context, cfg Config) oidc.AuthorizationCodeStore {
	ttl := oidc.WithCodeTTL(cfg.OIDCConfig.CodeExpiration)
	if !cfg.RedisConfig.IsConfigured() {
		slog.Warn("AUTHZ_REDIS_ADDR not set, authorization codes are kept in process memory and are only valid on this instance")
		return oidc.NewInMemoryCodeStore(ttl)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisConfig.Addr,
		Username:     cfg.RedisConfig.Username,
		Password:     cfg.RedisConfig.Password,
		DB:           cfg.RedisConfig.DB,
		DialTimeout:  cfg.RedisConfig.DialTimeout,
		ReadTimeout:  cfg.RedisConfig.ReadTimeout,
		WriteTimeout: cfg.RedisConfig.WriteTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Failed connecting to redis", "addr", cfg.RedisConfig.Addr, "err", err)
		os.Exit(-1)
	}
	slog.Info("Using redis authorization code store", "addr", cfg.RedisConfig.Addr, "prefix", cfg.RedisConfig.KeyPrefix)
	return oidc.NewRedisCodeStore(client, cfg.RedisConfig.KeyPrefix, ttl)
}

func newRefreshTokenRepository(ctx context.Context, cfg Config) refreshtoken.Repository {
	if cfg.ServerConfig.RefreshTokenRepo == "memory" {
		slog.Warn("Refresh tokens are kept in process memory and are lost on restart")
		return refreshtoken.NewInMemoryRepository()
	}

	dbConfig := cfg.DatabaseConfig.ToDbConfig()
	pool, err := dbutils.NewDbPool(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed creating dbpool", "db", dbConfig.Database, "host", dbConfig.Host, "port", dbConfig.Port, "user", dbConfig.User)
		os.Exit(-1)
	}
	return refreshtoken.NewPostgresRepository(pool)
}

func purgeExpiredTokens(ctx context.Context, service *refreshtoken.Service, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := service.PurgeExpired(ctx); err != nil {
				slog.Error("Failed purging expired refresh tokens", "err", err)
			}
		}
	}
}
