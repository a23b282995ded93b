package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"

	"github.com/pitabwire/frame"
	"github.com/pitabwire/frame/config"
	"github.com/pitabwire/frame/workerpool"

	vxconfig "github.com/voicetyped/voxlate/config"
	"github.com/voicetyped/voxlate/internal/connectutil"
	"github.com/voicetyped/voxlate/internal/pipeline"
	"github.com/voicetyped/voxlate/internal/runtime"
	"github.com/voicetyped/voxlate/internal/translate/handler"
	"github.com/voicetyped/voxlate/pkg/events"

	// Register speech and translation backends via init().
	_ "github.com/voicetyped/voxlate/internal/speech/backends/deepgram"
	_ "github.com/voicetyped/voxlate/internal/speech/backends/elevenlabs"
	_ "github.com/voicetyped/voxlate/internal/speech/backends/google"
	_ "github.com/voicetyped/voxlate/internal/speech/backends/libre"
	_ "github.com/voicetyped/voxlate/internal/speech/backends/openai"
	_ "github.com/voicetyped/voxlate/internal/speech/backends/piper"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadWithOIDC[vxconfig.ServerConfig](ctx)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	eventRef := cfg.GetEventsQueueName()
	eventURL := cfg.GetEventsQueueURL()

	ctx, srv := frame.NewService(
		frame.WithConfig(&cfg),
		frame.WithName("voxlate"),
		frame.WithRegisterPublisher(eventRef, eventURL),
		frame.WithWorkerPoolOptions(
			workerpool.WithPoolCount(cfg.WorkerPoolCount),
			workerpool.WithSinglePoolCapacity(cfg.WorkerPoolCapacity),
		),
	)
	defer srv.Stop(ctx)

	pool, err := srv.WorkManager().GetPool()
	if err != nil {
		log.Fatalf("getting worker pool: %v", err)
	}

	pub := events.NewPublisher(srv.QueueManager(), "voxlate", eventRef)
	tally := events.NewTally()

	stack, err := runtime.Build(cfg.BackendSettings, cfg.RetrySettings, cfg.LanguageCatalogFile, cfg.LiveEnabled)
	if err != nil {
		log.Fatalf("building backends: %v", err)
	}
	defer stack.Close()

	store, err := runtime.OpenAudioStore(ctx, cfg.StorageSettings)
	if err != nil {
		log.Fatalf("opening audio store: %v", err)
	}
	defer store.Close()

	// --- Request mode ---
	svc := handler.NewService(stack.Catalog, stack.Translator,
		handler.WithSpeech(stack.Synth, store),
		handler.WithPublisher(pub),
		handler.WithDefaults(cfg.DefaultSourceLang, cfg.DefaultTargetLang),
	)

	mux := http.NewServeMux()
	mux.Handle(handler.NewTranslateServiceHandler(svc))

	rest := handler.NewREST(svc,
		handler.WithAudioStore(store),
		handler.WithRateLimit(cfg.RateLimitPerMinute),
		handler.WithHealth(func(h *handler.HealthResponse) {
			if stack.Breaker != nil {
				h.Breaker = string(stack.Breaker.State())
			}
			h.Dropped = pub.Dropped()
			counts := tally.Counts()
			h.Events = make(map[string]int64, len(counts))
			for t, n := range counts {
				h.Events[string(t)] = n
			}
		}),
	)
	rest.RegisterRoutes(mux)

	// --- Continuous mode ---
	if cfg.LiveEnabled {
		observer := pipeline.WithObserver(pipeline.EventObserver(pub, cfg.OrchestratorConfig()))
		err = pool.Submit(ctx, func() {
			if err := runtime.RunLive(ctx, cfg.PipelineSettings, stack, observer); err != nil {
				slog.ErrorContext(ctx, "live loop exited", slog.String("error", err.Error()))
			}
		})
		if err != nil {
			log.Fatalf("starting live loop: %v", err)
		}
	}

	srv.Init(ctx,
		frame.WithRegisterSubscriber(eventRef+".tally", eventURL, tally),
		frame.WithHTTPHandler(connectutil.H2CHandler(mux)),
	)

	if err := srv.Run(ctx, ""); err != nil {
		log.Fatalf("service exited: %v", err)
	}
}
