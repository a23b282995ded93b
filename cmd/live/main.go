package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pitabwire/frame/config"

	vxconfig "github.com/voicetyped/voxlate/config"
	"github.com/voicetyped/voxlate/internal/pipeline"
	"github.com/voicetyped/voxlate/internal/runtime"
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
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadWithOIDC[vxconfig.LiveConfig](ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	stack, err := runtime.Build(cfg.BackendSettings, cfg.RetrySettings, cfg.LanguageCatalogFile, true)
	if err != nil {
		return fmt.Errorf("building backends: %w", err)
	}
	defer stack.Close()

	pub := events.NewPublisher(nil, "voxlate-live", "")
	feed := pub.Subscribe("console", 16)
	go printUtterances(feed)
	defer pub.Unsubscribe("console")

	tally := events.NewTally()
	tallyFeed := pub.Subscribe("tally", 16)
	drained := make(chan struct{})
	go func() {
		tally.Drain(context.WithoutCancel(ctx), tallyFeed)
		close(drained)
	}()

	fmt.Printf("Listening in %s, speaking %s. Press Ctrl+C to stop.\n",
		stack.Catalog.Name(cfg.SourceLanguage), stack.Catalog.Name(cfg.TargetLanguage))

	observer := pipeline.WithObserver(pipeline.EventObserver(pub, cfg.OrchestratorConfig()))
	err = runtime.RunLive(ctx, cfg.PipelineSettings, stack, observer)

	pub.Unsubscribe("tally")
	<-drained
	counts := tally.Counts()
	slog.InfoContext(ctx, "live loop stopped",
		slog.Int64("completed", counts[events.UtteranceCompleted]),
		slog.Int64("dropped", counts[events.UtteranceDropped]))

	if err != nil {
		return fmt.Errorf("live loop: %w", err)
	}
	return nil
}

func printUtterances(feed <-chan events.Envelope) {
	for env := range feed {
		if env.Type != events.UtteranceCompleted {
			continue
		}
		var data events.UtteranceData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			continue
		}
		fmt.Printf("You said: %s\nTranslated: %s\n", data.Transcript, data.Translation)
	}
}
