package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/hetulpatel/lotbidder/internal/ati"
	"github.com/hetulpatel/lotbidder/internal/bids"
	"github.com/hetulpatel/lotbidder/internal/cache"
	"github.com/hetulpatel/lotbidder/internal/config"
	kafkautil "github.com/hetulpatel/lotbidder/internal/kafka"
	"github.com/hetulpatel/lotbidder/internal/ledger"
	"github.com/hetulpatel/lotbidder/internal/logging"
	"github.com/hetulpatel/lotbidder/internal/ozon"
	"github.com/hetulpatel/lotbidder/internal/processor"
	"github.com/hetulpatel/lotbidder/internal/resolver"
	"github.com/hetulpatel/lotbidder/internal/session"
	"github.com/hetulpatel/lotbidder/internal/sink"
	"github.com/hetulpatel/lotbidder/internal/storage"
	"github.com/hetulpatel/lotbidder/internal/storage/postgres"
	"github.com/hetulpatel/lotbidder/internal/storage/sqlite"
)

// App holds the wired pipeline and everything that must be closed with it.
type App struct {
	Processor *processor.Processor
	Blobs     storage.BlobStore
	Sink      *sink.BlobSink

	closers []io.Closer
}

// Options tweaks wiring for the different binaries.
type Options struct {
	// Publish enables kafka publication when brokers are configured.
	Publish bool
	// Prompt supplies the operator terminal for session login. Defaults to
	// stdin/stderr.
	Prompt *session.PromptAcquirer
}

// OpenStore opens the blob store selected by cfg.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (storage.BlobStore, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverSQLite, "":
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// New wires the processor from cfg. Redis and kafka are optional and are
// skipped with a warning when unavailable.
func New(ctx context.Context, cfg config.Config, log logging.Logger, opts Options) (*App, error) {
	blobs, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a := &App{Blobs: blobs, closers: []io.Closer{blobs}}

	var cityCache cache.CityCache
	if cfg.Redis.Enabled() {
		c, err := cache.NewRedisCityCache(cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			log.Warnf("[app] city cache disabled: %v", err)
		} else {
			cityCache = c
			a.closers = append(a.closers, c)
		}
	}

	var publisher processor.Publisher
	if opts.Publish && cfg.Kafka.Enabled() {
		if writer := setupWriter(ctx, cfg.Kafka, log); writer != nil {
			publisher = sink.NewKafkaPublisher(writer)
			a.closers = append(a.closers, writer)
		}
	}

	prompt := opts.Prompt
	if prompt == nil {
		prompt = session.NewPromptAcquirer(cfg.AuthURL, os.Stdin, os.Stderr)
	}
	cookies := session.NewStore(blobs, prompt, log)

	source := ozon.NewClient(ozon.Config{
		BaseURL: cfg.GraphQLURL,
		Timeout: cfg.QueryTimeout,
		Logger:  log,
	}, cookies)
	locator := ati.NewClient(ati.Config{
		BaseURL: cfg.LookupURL,
		Token:   cfg.Token,
		Timeout: cfg.LookupTimeout,
		Logger:  log,
	})

	a.Sink = sink.NewBlobSink(blobs, log)
	a.Processor = processor.New(processor.Deps{
		Source:    source,
		Resolver:  resolver.New(locator, cityCache, log),
		Builder:   bids.NewBuilder(cfg.BoardID),
		Ledger:    ledger.New(blobs, log),
		Sink:      a.Sink,
		Publisher: publisher,
		Logger:    log,
	})
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func setupWriter(ctx context.Context, cfg config.KafkaConfig, log logging.Logger) *kafkago.Writer {
	brokers := kafkautil.ParseBrokers(cfg.Brokers)
	topic := cfg.Topic
	if topic == "" {
		topic = kafkautil.DefaultBidsTopic
	}
	waitCtx, cancel := context.WithTimeout(ctx, 45*time.Second)
	defer cancel()
	if err := kafkautil.WaitForBroker(waitCtx, brokers); err != nil {
		log.Warnf("[app] kafka unavailable, publication disabled: %v", err)
		return nil
	}
	ensureCtx, cancelEnsure := context.WithTimeout(ctx, 30*time.Second)
	spec := kafkautil.TopicSpec{Name: topic, Partitions: cfg.Partitions}
	if err := kafkautil.EnsureTopic(ensureCtx, brokers, spec); err != nil {
		log.Warnf("[app] ensure topic warning: %v", err)
	}
	cancelEnsure()
	return kafkautil.NewWriter(brokers, topic)
}
