// Worker consumes analytics events from Kafka and runs them through property
// discovery, elements storage, and each team's plugin pipeline.
// Set KAFKA_BROKERS, EVENTS_KAFKA_TOPIC, KAFKA_GROUP_ID, and DATABASE_URL.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"analytics-pipeline/ingestcore/internal/config"
	elemcache "analytics-pipeline/ingestcore/internal/elements/cache"
	elemrepo "analytics-pipeline/ingestcore/internal/elements/repository"
	"analytics-pipeline/ingestcore/internal/hub"
	"analytics-pipeline/ingestcore/internal/ingest"
	plugindomain "analytics-pipeline/ingestcore/internal/plugin/domain"
	"analytics-pipeline/ingestcore/internal/plugin/registry"
	pluginrepo "analytics-pipeline/ingestcore/internal/plugin/repository"
	"analytics-pipeline/ingestcore/internal/propertysink"
	"analytics-pipeline/ingestcore/internal/telemetry"
	"analytics-pipeline/ingestcore/internal/telemetry/otel"
)

// logRunner stands in for the external plugin execution engine: it records
// the dispatch and succeeds. Swap for a real runner when one is wired in.
type logRunner struct{}

func (logRunner) Run(ctx context.Context, cfg *plugindomain.PluginConfig, event *ingest.Event) error {
	log.Printf("worker: dispatch config %d (plugin %d) for event %q team %d", cfg.ID, cfg.PluginID, event.Event, event.TeamID)
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "ingestcore-worker", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	emitter := otel.NewEventEmitter(providers.LoggerProvider)

	h, err := hub.New(ctx, cfg)
	if err != nil {
		log.Fatalf("hub: %v", err)
	}
	defer h.Close()

	plugins := pluginrepo.NewPostgresRepository(h.DB)
	elements := elemrepo.NewPostgresRepository(h.DB)

	var fast elemcache.FastStore
	if h.Redis != nil {
		fast = elemcache.NewRedisStore(h.Redis, cfg.CacheTTL())
	}
	cache := elemcache.New(fast, elements)

	reg := registry.New(plugins)
	if err := reg.Load(ctx); err != nil {
		log.Fatalf("registry load: %v", err)
	}

	sink, err := propertysink.NewKafkaSink(brokers, cfg.PropertyDefsTopic)
	if err != nil {
		log.Fatalf("property sink: %v", err)
	}
	defer func() {
		if sink != nil {
			_ = sink.Close()
		}
	}()

	var sinkIface propertysink.Sink
	if sink != nil {
		sinkIface = sink
	}
	pipeline := ingest.NewPipeline(sinkIface, cache, reg, logRunner{}, emitter, cfg.PerCallTimeout())

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("worker: shutting down...")
		cancel()
	}()

	log.Printf("worker: consuming from %s (group %s) with %d consumers", cfg.EventsTopic, cfg.KafkaGroupID, cfg.WorkerConcurrency)

	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerConcurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			consume(ctx, id, cfg, brokers, pipeline)
		}(i)
	}
	wg.Wait()

	// Give in-flight async telemetry time to drain before the providers stop.
	time.Sleep(telemetry.ShutdownDrainDuration)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("worker: telemetry shutdown: %v", err)
	}
	log.Println("worker: stopped")
}

// consume runs one consumer-group member until ctx is cancelled. Decode
// failures skip the message; processing failures are logged and the message
// is not retried here (the group offset advances).
func consume(ctx context.Context, id int, cfg *config.Config, brokers []string, pipeline *ingest.Pipeline) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.EventsTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("worker[%d]: kafka read error: %v", id, err)
			continue
		}

		ev, err := ingest.DecodeEvent(msg.Value)
		if err != nil {
			log.Printf("worker[%d]: skipping message at offset %d: %v", id, msg.Offset, err)
			continue
		}
		if err := pipeline.Process(ctx, ev); err != nil {
			log.Printf("worker[%d]: process event %q team %d: %v", id, ev.Event, ev.TeamID, err)
		}
	}
}
