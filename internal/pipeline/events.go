package pipeline

import (
	"context"
	"log/slog"

	"github.com/voicetyped/voxlate/pkg/events"
)

// EventObserver returns an observer that publishes every utterance report as
// an utterance.completed or utterance.dropped event.
func EventObserver(pub *events.Publisher, cfg Config) func(context.Context, UtteranceReport) {
	return func(ctx context.Context, rep UtteranceReport) {
		eventType := events.UtteranceDropped
		if rep.Outcome == OutcomeCompleted {
			eventType = events.UtteranceCompleted
		}
		if err := pub.Emit(ctx, eventType, rep.ID, utteranceData(rep, cfg)); err != nil {
			slog.WarnContext(ctx, "pipeline: emit utterance event",
				slog.String("utterance_id", rep.ID),
				slog.String("error", err.Error()))
		}
	}
}

func utteranceData(rep UtteranceReport, cfg Config) events.UtteranceData {
	states := make([]string, len(rep.States))
	for i, s := range rep.States {
		states[i] = string(s)
	}
	data := events.UtteranceData{
		Outcome:        string(rep.Outcome),
		States:         states,
		SourceLanguage: cfg.SourceLanguage,
		TargetLanguage: cfg.TargetLanguage,
		Transcript:     rep.Transcript,
		Translation:    rep.Translation,
		DurationMs:     rep.Duration.Milliseconds(),
	}
	if rep.Err != nil {
		data.Error = rep.Err.Error()
	}
	return data
}
