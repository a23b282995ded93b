package pipeline

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/voicetyped/voxlate/pkg/events"
)

func TestEventObserver(t *testing.T) {
	pub := events.NewPublisher(nil, "voxlate-live", "")
	ch := pub.Subscribe("test", 4)
	defer pub.Unsubscribe("test")

	cfg := Config{SourceLanguage: "en", TargetLanguage: "es"}
	observe := EventObserver(pub, cfg)

	tests := []struct {
		name     string
		report   UtteranceReport
		wantType events.EventType
		wantErr  string
	}{
		{
			name: "completed",
			report: UtteranceReport{
				ID: "u1", Outcome: OutcomeCompleted,
				States:     []State{StateListening, StateTranscribing, StateTranslating, StateSynthesizing, StatePlaying},
				Transcript: "hello", Translation: "hola", Duration: 1500 * time.Millisecond,
			},
			wantType: events.UtteranceCompleted,
		},
		{
			name: "dropped",
			report: UtteranceReport{
				ID: "u2", Outcome: OutcomeTranslationFailed,
				States: []State{StateListening, StateTranscribing, StateTranslating, StateIdle},
				Err:    errors.New("retries exhausted"),
			},
			wantType: events.UtteranceDropped,
			wantErr:  "retries exhausted",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			observe(t.Context(), tc.report)

			select {
			case env := <-ch:
				if env.Type != tc.wantType || env.SessionID != tc.report.ID {
					t.Fatalf("envelope = %s/%s, want %s/%s", env.Type, env.SessionID, tc.wantType, tc.report.ID)
				}
				var data events.UtteranceData
				if err := json.Unmarshal(env.Data, &data); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if data.Outcome != string(tc.report.Outcome) || data.Error != tc.wantErr {
					t.Errorf("data = %+v", data)
				}
				if len(data.States) != len(tc.report.States) {
					t.Errorf("states = %v", data.States)
				}
				if data.SourceLanguage != "en" || data.TargetLanguage != "es" {
					t.Errorf("languages = %s/%s", data.SourceLanguage, data.TargetLanguage)
				}
			case <-time.After(time.Second):
				t.Fatal("no event")
			}
		})
	}
}
