package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is read once at startup and passed down explicitly.
type Config struct {
	GraphQLURL    string
	LookupURL     string
	AuthURL       string
	Token         string
	BoardID       int64
	PollInterval  time.Duration
	QueryTimeout  time.Duration
	LookupTimeout time.Duration
	LogLevel      string

	Store StoreConfig
	Redis RedisConfig
	Kafka KafkaConfig
}

type StoreConfig struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
}

// RedisConfig is disabled when Addr is empty.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// KafkaConfig is disabled when Brokers is empty.
type KafkaConfig struct {
	Brokers    string
	Topic      string
	Partitions int
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

func (k KafkaConfig) Enabled() bool { return strings.TrimSpace(k.Brokers) != "" }

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	v := viper.New()
	v.AutomaticEnv()
	return load(v)
}

// LoadStore reads only the store keys. Maintenance binaries use it since
// they need neither the token nor the board.
func LoadStore() (StoreConfig, error) {
	_ = godotenv.Load()
	v := viper.New()
	v.AutomaticEnv()
	return loadStore(v)
}

func loadStore(v *viper.Viper) (StoreConfig, error) {
	setDefaults(v)
	store := readStore(v)
	if err := validateStore(store); err != nil {
		return StoreConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return store, nil
}

func readStore(v *viper.Viper) StoreConfig {
	return StoreConfig{
		Driver:      strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		SQLitePath:  v.GetString("SQLITE_PATH"),
		PostgresDSN: v.GetString("POSTGRES_DSN"),
	}
}

func validateStore(store StoreConfig) error {
	switch store.Driver {
	case DriverSQLite:
		return nil
	case DriverPostgres:
		if store.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORE_DRIVER=postgres")
		}
		return nil
	default:
		return fmt.Errorf("STORE_DRIVER must be %s or %s, got %q", DriverSQLite, DriverPostgres, store.Driver)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GRAPHQL_URL", "https://tms.ozon.ru/graphql-decorator.lpp/gql")
	v.SetDefault("ATI_API_URL", "https://api.ati.su/v1.0/dictionaries/locations/parse")
	v.SetDefault("AUTH_URL", "https://tms.ozon.ru/")
	v.SetDefault("POLL_INTERVAL", "60s")
	v.SetDefault("QUERY_TIMEOUT", "30s")
	v.SetDefault("LOOKUP_TIMEOUT", "15s")
	v.SetDefault("STORE_DRIVER", DriverSQLite)
	v.SetDefault("SQLITE_PATH", "data/bidder.db")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CITY_CACHE_TTL", "240h")
	v.SetDefault("BIDS_KAFKA_TOPIC", "bids.payloads")
	v.SetDefault("BIDS_KAFKA_PARTITIONS", 1)
	v.SetDefault("LOG_LEVEL", "info")
}

func load(v *viper.Viper) (Config, error) {
	setDefaults(v)

	cfg := Config{
		GraphQLURL: strings.TrimSpace(v.GetString("GRAPHQL_URL")),
		LookupURL:  strings.TrimSpace(v.GetString("ATI_API_URL")),
		AuthURL:    strings.TrimSpace(v.GetString("AUTH_URL")),
		Token:      strings.TrimSpace(v.GetString("AUTHORIZATION_TOKEN")),
		LogLevel:   v.GetString("LOG_LEVEL"),
		Store:      readStore(v),
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(v.GetString("REDIS_ADDR")),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		Kafka: KafkaConfig{
			Brokers: v.GetString("KAFKA_BROKERS"),
			Topic:   v.GetString("BIDS_KAFKA_TOPIC"),
		},
	}

	var errs []error
	if cfg.Token == "" {
		errs = append(errs, errors.New("AUTHORIZATION_TOKEN is required"))
	}

	rawBoard := strings.TrimSpace(v.GetString("BOARD_ID"))
	if rawBoard == "" {
		errs = append(errs, errors.New("BOARD_ID is required"))
	} else if id, err := strconv.ParseInt(rawBoard, 10, 64); err != nil {
		errs = append(errs, fmt.Errorf("BOARD_ID must be an integer, got %q", rawBoard))
	} else {
		cfg.BoardID = id
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"POLL_INTERVAL", &cfg.PollInterval},
		{"QUERY_TIMEOUT", &cfg.QueryTimeout},
		{"LOOKUP_TIMEOUT", &cfg.LookupTimeout},
		{"CITY_CACHE_TTL", &cfg.Redis.TTL},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(v.GetString(d.key))
		if err != nil || parsed <= 0 {
			errs = append(errs, fmt.Errorf("%s must be a positive duration, got %q", d.key, v.GetString(d.key)))
			continue
		}
		*d.dst = parsed
	}

	if db, err := strconv.Atoi(strings.TrimSpace(v.GetString("REDIS_DB"))); err != nil {
		errs = append(errs, fmt.Errorf("REDIS_DB must be an integer, got %q", v.GetString("REDIS_DB")))
	} else {
		cfg.Redis.DB = db
	}

	if partitions, err := strconv.Atoi(strings.TrimSpace(v.GetString("BIDS_KAFKA_PARTITIONS"))); err != nil || partitions < 1 {
		errs = append(errs, fmt.Errorf("BIDS_KAFKA_PARTITIONS must be a positive integer, got %q", v.GetString("BIDS_KAFKA_PARTITIONS")))
	} else {
		cfg.Kafka.Partitions = partitions
	}

	if err := validateStore(cfg.Store); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
