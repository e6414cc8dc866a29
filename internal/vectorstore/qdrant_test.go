package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/qdrant/go-client/qdrant"

	"amlchat/internal/llm"
)

func TestGRPCAddress(t *testing.T) {
	tests := []struct {
		name     string
		urlStr   string
		wantErr  bool
		wantHost string
		wantPort int
	}{
		{
			name:     "valid URL",
			urlStr:   "http://localhost:6333",
			wantHost: "localhost",
			wantPort: 6334, // gRPC port is HTTP port + 1
		},
		{
			name:     "URL with custom port",
			urlStr:   "http://qdrant.internal:9000",
			wantHost: "qdrant.internal",
			wantPort: 9001,
		},
		{
			name:    "invalid URL",
			urlStr:  "://invalid",
			wantErr: true,
		},
		{
			name:     "URL without port",
			urlStr:   "http://localhost",
			wantHost: "localhost",
			wantPort: 6334, // Default
		},
		{
			name:     "URL without hostname",
			urlStr:   "http://:6333",
			wantHost: "localhost", // Defaults to localhost
			wantPort: 6334,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := grpcAddress(tt.urlStr)
			if tt.wantErr {
				if err == nil {
					t.Error("grpcAddress() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("grpcAddress() error = %v", err)
			}
			if host != tt.wantHost {
				t.Errorf("host = %v, want %v", host, tt.wantHost)
			}
			if port != tt.wantPort {
				t.Errorf("port = %v, want %v", port, tt.wantPort)
			}
		})
	}
}

func TestNewQdrantHistory_InvalidURL(t *testing.T) {
	_, err := NewQdrantHistory("://invalid", "")
	if err == nil {
		t.Error("NewQdrantHistory() with invalid URL should return error")
	}
}

func TestTurnPayloadRoundTrip(t *testing.T) {
	turn := llm.ChatMessage{Role: llm.RoleAssistant, Content: "I am fine, thanks."}

	payload := turnPayload("conv-1", 7, turn)
	if got := payload[fieldConversationID].GetStringValue(); got != "conv-1" {
		t.Errorf("conversation_id = %q", got)
	}

	stored, err := turnFromPayload(payload)
	if err != nil {
		t.Fatalf("turnFromPayload() error = %v", err)
	}
	if stored.seq != 7 {
		t.Errorf("seq = %d, want 7", stored.seq)
	}
	if stored.message != turn {
		t.Errorf("message = %+v, want %+v", stored.message, turn)
	}
}

func TestTurnFromPayload_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]*qdrant.Value
	}{
		{
			name:    "missing seq",
			payload: qdrant.NewValueMap(map[string]any{fieldRole: "user", fieldContent: "hi"}),
		},
		{
			name:    "seq not an integer",
			payload: qdrant.NewValueMap(map[string]any{fieldSeq: "one", fieldRole: "user"}),
		},
		{
			name:    "missing role",
			payload: qdrant.NewValueMap(map[string]any{fieldSeq: 1, fieldContent: "hi"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := turnFromPayload(tt.payload); err == nil {
				t.Error("turnFromPayload() expected error, got nil")
			}
		})
	}
}

func TestConvertPayloadToMap(t *testing.T) {
	result := convertPayloadToMap(nil)
	if result == nil {
		t.Error("convertPayloadToMap() should return empty map, not nil")
	}
	if len(result) != 0 {
		t.Errorf("convertPayloadToMap() with nil should return empty map, got %d items", len(result))
	}

	payload := qdrant.NewValueMap(map[string]any{
		"flag":  true,
		"count": 3,
		"ratio": 0.5,
		"tags":  []any{"a", "b"},
		"inner": map[string]any{"k": "v"},
	})
	payload["skipped"] = nil

	got := convertPayloadToMap(payload)
	if got["flag"] != true || got["count"] != int64(3) || got["ratio"] != 0.5 {
		t.Errorf("scalars = %+v", got)
	}
	if tags, ok := got["tags"].([]any); !ok || len(tags) != 2 || tags[0] != "a" {
		t.Errorf("tags = %#v", got["tags"])
	}
	if inner, ok := got["inner"].(map[string]any); !ok || inner["k"] != "v" {
		t.Errorf("inner = %#v", got["inner"])
	}
	if _, ok := got["skipped"]; ok {
		t.Error("nil values should be skipped")
	}
}

// pagedScroller serves points in fixed-size pages keyed by the index of the
// first point, mimicking Qdrant's next-page offsets.
type pagedScroller struct {
	points  []*qdrant.RetrievedPoint
	offsets []*qdrant.PointId
	err     error
}

func (p *pagedScroller) ScrollAndOffset(ctx context.Context, req *qdrant.ScrollPoints) ([]*qdrant.RetrievedPoint, *qdrant.PointId, error) {
	p.offsets = append(p.offsets, req.GetOffset())
	if p.err != nil {
		return nil, nil, p.err
	}

	start := int(req.GetOffset().GetNum())
	end := min(start+int(req.GetLimit()), len(p.points))
	var next *qdrant.PointId
	if end < len(p.points) {
		next = qdrant.NewIDNum(uint64(end))
	}
	return p.points[start:end], next, nil
}

func storedPoints(conversationID string, seqs []int64) []*qdrant.RetrievedPoint {
	points := make([]*qdrant.RetrievedPoint, 0, len(seqs))
	for _, seq := range seqs {
		points = append(points, &qdrant.RetrievedPoint{
			Payload: turnPayload(conversationID, seq, llm.ChatMessage{
				Role:    llm.RoleUser,
				Content: fmt.Sprintf("turn %d", seq),
			}),
		})
	}
	return points
}

func TestScrollTurns_ReadsEveryPage(t *testing.T) {
	const total = 2500
	seqs := make([]int64, total)
	for i := range seqs {
		seqs[i] = int64(i)
	}
	rand.New(rand.NewSource(1)).Shuffle(total, func(i, j int) { seqs[i], seqs[j] = seqs[j], seqs[i] })

	scroller := &pagedScroller{points: storedPoints("conv-1", seqs)}
	turns, err := scrollTurns(context.Background(), scroller, "chat_turns", "conv-1", 1000)
	if err != nil {
		t.Fatalf("scrollTurns() error = %v", err)
	}

	if len(turns) != total {
		t.Fatalf("scrollTurns() returned %d turns, want %d", len(turns), total)
	}
	for i, turn := range turns {
		if turn.seq != int64(i) {
			t.Fatalf("turns[%d].seq = %d, want %d", i, turn.seq, i)
		}
	}
	if len(scroller.offsets) != 3 {
		t.Fatalf("scroll requests = %d, want 3", len(scroller.offsets))
	}
	if scroller.offsets[0] != nil {
		t.Errorf("first request offset = %v, want nil", scroller.offsets[0])
	}
	if got := scroller.offsets[2].GetNum(); got != 2000 {
		t.Errorf("third request offset = %d, want 2000", got)
	}
}

func TestScrollTurns_Errors(t *testing.T) {
	tests := []struct {
		name     string
		scroller *pagedScroller
	}{
		{
			name:     "scroll failure",
			scroller: &pagedScroller{err: errors.New("unavailable")},
		},
		{
			name:     "duplicate seq",
			scroller: &pagedScroller{points: storedPoints("conv-1", []int64{0, 1, 1, 2})},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := scrollTurns(context.Background(), tt.scroller, "chat_turns", "conv-1", 2); err == nil {
				t.Error("scrollTurns() should return error")
			}
		})
	}
}
