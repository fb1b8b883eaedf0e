package stdio_test

import (
	"context"
	"strings"
	"testing"

	"github.com/agentpulse/agentpulse/internal/adapter/stdio"
	"github.com/agentpulse/agentpulse/internal/domain/dashboard"
	"github.com/agentpulse/agentpulse/internal/service"
)

type nopPublisher struct{}

func (nopPublisher) Publish(_ context.Context) (string, error) { return "http://localhost:3000", nil }
func (nopPublisher) Release(_ context.Context) error           { return nil }

func runEvents(t *testing.T, input string) *service.StateService {
	t.Helper()
	states := service.NewStateService()
	lifecycle := service.NewLifecycleService(states, nopPublisher{})
	reader := stdio.NewReader(strings.NewReader(input), lifecycle)
	if err := reader.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	return states
}

func TestRunDispatchesEvents(t *testing.T) {
	input := `{"type":"session_start"}
{"type":"agent_start"}
{"type":"turn_start"}
{"type":"tool_call","tool_name":"search"}
{"type":"tool_result","result_summary":"3 hits"}
`
	states := runEvents(t, input)

	snap := states.Snapshot()
	if snap.Status != dashboard.StatusThinking {
		t.Errorf("expected thinking after tool result, got %s", snap.Status)
	}
	if snap.TurnCount != 1 {
		t.Errorf("expected 1 turn, got %d", snap.TurnCount)
	}
	if snap.SessionStartedAt == nil {
		t.Error("expected session started")
	}
	entries := snap.ActivityLog.Entries()
	if entries[0].Text != "3 hits" {
		t.Errorf("expected tool result on top, got %q", entries[0].Text)
	}
}

func TestRunSkipsMalformedAndBlankLines(t *testing.T) {
	input := `{"type":"session_start"}

not json at all
{"type":"turn_start"
{"type":"turn_start"}
`
	states := runEvents(t, input)

	if got := states.Snapshot().TurnCount; got != 1 {
		t.Errorf("expected exactly 1 turn after skipping bad lines, got %d", got)
	}
}

func TestRunSkipsOversizedLine(t *testing.T) {
	big := strings.Repeat("x", 2<<20)
	input := `{"type":"session_start"}` + "\n" +
		`{"type":"message_end","message":{"role":"assistant","content":[{"type":"text","text":"` + big + `"}]}}` + "\n" +
		`{"type":"turn_start"}` + "\n"
	states := runEvents(t, input)

	snap := states.Snapshot()
	if snap.TurnCount != 1 {
		t.Errorf("expected events after the oversized line to apply, got turn count %d", snap.TurnCount)
	}
	if snap.ChatTranscript.Len() != 0 {
		t.Errorf("expected oversized message dropped, got %d transcript messages", snap.ChatTranscript.Len())
	}
}

func TestRunMessageEndPayload(t *testing.T) {
	input := `{"type":"session_start"}
{"type":"message_end","message":{"role":"assistant","content":[{"type":"text","text":"done with the refactor"}]}}
`
	states := runEvents(t, input)

	msgs := states.Snapshot().ChatTranscript.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 chat message, got %d", len(msgs))
	}
	if msgs[0].Role != dashboard.RoleAgent || msgs[0].Text != "done with the refactor" {
		t.Errorf("unexpected message %s %q", msgs[0].Role, msgs[0].Text)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	states := service.NewStateService()
	lifecycle := service.NewLifecycleService(states, nopPublisher{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := stdio.NewReader(strings.NewReader("{\"type\":\"session_start\"}\n"), lifecycle)
	if err := reader.Run(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
