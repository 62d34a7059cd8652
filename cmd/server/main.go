package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/smartpresent/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	secret = configVar[string]{
		envKey:       "SERVER_SECRET",
		flagKey:      "secret",
		defaultValue: "",
		usage:        "Secret used to sign presenter tokens",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 80,
		usage:        "Server port",
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	store = configVar[string]{
		envKey:       "SERVER_STORE",
		flagKey:      "store",
		defaultValue: app.StoreRedis,
		usage:        "Presentation store: redis or sqlite",
	}
	sqlitePath = configVar[string]{
		envKey:       "SERVER_SQLITE_PATH",
		flagKey:      "sqlite-path",
		defaultValue: "smartpresent.db",
		usage:        "SQLite database file, used with --store=sqlite",
	}
	boundary = configVar[string]{
		envKey:       "SERVER_BOUNDARY",
		flagKey:      "boundary",
		defaultValue: "clamp",
		usage:        "What next/prev do past the deck ends: clamp or wrap",
	}
	expiry = configVar[string]{
		envKey:       "SERVER_EXPIRY",
		flagKey:      "expiry",
		defaultValue: "hold",
		usage:        "What happens when a slide's time runs out: hold or advance",
	}
	syncInterval = configVar[time.Duration]{
		envKey:       "SERVER_SYNC_INTERVAL",
		flagKey:      "sync-interval",
		defaultValue: time.Second,
		usage:        "How often audience views re-read the current slide",
	}
	micRestartDelay = configVar[time.Duration]{
		envKey:       "SERVER_MIC_RESTART_DELAY",
		flagKey:      "mic-restart-delay",
		defaultValue: 500 * time.Millisecond,
		usage:        "Delay before the microphone loop restarts after an error",
	}
	dataTTL = configVar[time.Duration]{
		envKey:       "SERVER_DATA_TTL",
		flagKey:      "data-ttl",
		defaultValue: 14 * 24 * time.Hour,
		usage:        "How long idle presentations are kept in redis, 0 keeps them forever",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
		usage:        "Redis host",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
		usage:        "Redis password",
	}
)

func bindString(v configVar[string]) {
	pflag.String(v.flagKey, v.defaultValue, v.usage)
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func bindInt(v configVar[int]) {
	pflag.Int(v.flagKey, v.defaultValue, v.usage)
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func bindDuration(v configVar[time.Duration]) {
	pflag.Duration(v.flagKey, v.defaultValue, v.usage)
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func loadAppConfig() *app.AppConfig {
	for _, v := range []configVar[string]{secret, host, logLevel, store, sqlitePath, boundary, expiry, redisHost, redisPassword} {
		bindString(v)
	}
	for _, v := range []configVar[int]{port, redisPort} {
		bindInt(v)
	}
	for _, v := range []configVar[time.Duration]{syncInterval, micRestartDelay, dataTTL} {
		bindDuration(v)
	}
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	return &app.AppConfig{
		Secret:          viper.GetString(secret.flagKey),
		Host:            viper.GetString(host.flagKey),
		Port:            viper.GetInt(port.flagKey),
		LogLevel:        viper.GetString(logLevel.flagKey),
		Store:           viper.GetString(store.flagKey),
		SQLitePath:      viper.GetString(sqlitePath.flagKey),
		Boundary:        viper.GetString(boundary.flagKey),
		Expiry:          viper.GetString(expiry.flagKey),
		SyncInterval:    viper.GetDuration(syncInterval.flagKey),
		MicRestartDelay: viper.GetDuration(micRestartDelay.flagKey),
		DataTTL:         viper.GetDuration(dataTTL.flagKey),
		RedisPort:       viper.GetInt(redisPort.flagKey),
		RedisHost:       viper.GetString(redisHost.flagKey),
		RedisPassword:   viper.GetString(redisPassword.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatal(err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
