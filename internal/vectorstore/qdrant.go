package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"amlchat/internal/contextutil"
	"amlchat/internal/llm"
)

const (
	// DefaultCollection is the collection used when none is configured.
	DefaultCollection = "chat_turns"

	// Turns carry no embedding. Every point stores the same unit vector so the
	// collection satisfies Qdrant's schema.
	vectorSize = 1

	// scrollPageSize is the number of turns fetched per Scroll request.
	scrollPageSize = 1000
)

// Payload keys of a stored turn.
const (
	fieldConversationID = "conversation_id"
	fieldSeq            = "seq"
	fieldRole           = "role"
	fieldContent        = "content"
)

// QdrantHistory stores conversation turns as Qdrant points.
// It implements service.HistoryStore.
//
// Appends compute the next seq from a read of the conversation, so callers
// must serialize appends to one conversation.
type QdrantHistory struct {
	client     *qdrant.Client
	collection string
	pageSize   uint32
}

// turnScroller is the paging subset of *qdrant.Client used to read turns.
type turnScroller interface {
	ScrollAndOffset(ctx context.Context, request *qdrant.ScrollPoints) ([]*qdrant.RetrievedPoint, *qdrant.PointId, error)
}

// NewQdrantHistory creates a new Qdrant-backed history store.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) will be derived from the HTTP port.
func NewQdrantHistory(urlStr, collection string) (*QdrantHistory, error) {
	host, port, err := grpcAddress(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	if collection == "" {
		collection = DefaultCollection
	}

	return &QdrantHistory{
		client:     client,
		collection: collection,
		pageSize:   scrollPageSize,
	}, nil
}

// grpcAddress derives the gRPC host and port from a Qdrant HTTP URL.
func grpcAddress(urlStr string) (string, int, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334 // Default gRPC port
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			// gRPC port is typically HTTP port + 1
			port = httpPort + 1
		}
	}

	return host, port, nil
}

// Close closes the underlying gRPC connection.
func (s *QdrantHistory) Close() error {
	return s.client.Close()
}

// Ping checks that Qdrant is reachable.
func (s *QdrantHistory) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	return nil
}

// EnsureCollection ensures the history collection exists.
// If the collection exists, validates that the vector size matches.
func (s *QdrantHistory) EnsureCollection(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", s.collection)
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     vectorSize,
				Distance: qdrant.Distance_Dot,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		logger.InfoContext(ctx, "collection created", "collection", s.collection)
		return nil
	}

	// Collection exists, validate vector size
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}

	config := info.Config
	if config == nil || config.Params == nil {
		return fmt.Errorf("collection config is invalid")
	}
	params := config.Params.GetVectorsConfig().GetParams()
	if params == nil {
		return fmt.Errorf("collection vector params are invalid")
	}
	if params.Size != vectorSize {
		return fmt.Errorf("collection %s is not a history collection: vector size %d", s.collection, params.Size)
	}

	logger.DebugContext(ctx, "collection validated", "collection", s.collection)
	return nil
}

// GetChatMessages returns the turns of conversationID in order.
func (s *QdrantHistory) GetChatMessages(ctx context.Context, conversationID string) ([]llm.ChatMessage, error) {
	turns, err := s.listTurns(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.ChatMessage, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, turn.message)
	}
	return messages, nil
}

// AppendTurns appends turns after the last stored turn of conversationID.
func (s *QdrantHistory) AppendTurns(ctx context.Context, conversationID string, turns []llm.ChatMessage) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(turns) == 0 {
		return nil
	}

	existing, err := s.listTurns(ctx, conversationID)
	if err != nil {
		return err
	}
	next := int64(0)
	if n := len(existing); n > 0 {
		next = existing[n-1].seq + 1
	}

	points := make([]*qdrant.PointStruct, 0, len(turns))
	for i, turn := range turns {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(uuid.New().String()),
			Vectors: qdrant.NewVectors(1),
			Payload: turnPayload(conversationID, next+int64(i), turn),
		})
	}

	wait := true
	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert turns", "collection", s.collection, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert turns: %w", err)
	}

	logger.DebugContext(ctx, "appended turns", "collection", s.collection, "conversation_id", conversationID, "count", len(points))
	return nil
}

type storedTurn struct {
	seq     int64
	message llm.ChatMessage
}

func (s *QdrantHistory) listTurns(ctx context.Context, conversationID string) ([]storedTurn, error) {
	return scrollTurns(ctx, s.client, s.collection, conversationID, s.pageSize)
}

// scrollTurns reads every turn of conversationID, following next-page offsets
// until the scroll is exhausted, and returns them ordered by seq.
func scrollTurns(ctx context.Context, scroller turnScroller, collection, conversationID string, pageSize uint32) ([]storedTurn, error) {
	var points []*qdrant.RetrievedPoint
	var offset *qdrant.PointId
	for {
		limit := pageSize
		page, next, err := scroller.ScrollAndOffset(ctx, &qdrant.ScrollPoints{
			CollectionName: collection,
			Filter: &qdrant.Filter{
				Must: []*qdrant.Condition{qdrant.NewMatch(fieldConversationID, conversationID)},
			},
			Offset:      offset,
			Limit:       &limit,
			WithPayload: qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll turns: %w", err)
		}
		points = append(points, page...)
		if next == nil {
			break
		}
		offset = next
	}

	turns := make([]storedTurn, 0, len(points))
	for _, point := range points {
		turn, err := turnFromPayload(point.GetPayload())
		if err != nil {
			return nil, fmt.Errorf("point %s: %w", point.GetId().GetUuid(), err)
		}
		turns = append(turns, turn)
	}

	// Scroll orders by point id, not by insertion
	slices.SortFunc(turns, func(a, b storedTurn) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		default:
			return 0
		}
	})
	for i := 1; i < len(turns); i++ {
		if turns[i].seq == turns[i-1].seq {
			return nil, fmt.Errorf("conversation %s has duplicate turn seq %d", conversationID, turns[i].seq)
		}
	}
	return turns, nil
}

func turnPayload(conversationID string, seq int64, turn llm.ChatMessage) map[string]*qdrant.Value {
	return qdrant.NewValueMap(map[string]any{
		fieldConversationID: conversationID,
		fieldSeq:            seq,
		fieldRole:           string(turn.Role),
		fieldContent:        turn.Content,
	})
}

func turnFromPayload(payload map[string]*qdrant.Value) (storedTurn, error) {
	meta := convertPayloadToMap(payload)

	seq, ok := meta[fieldSeq].(int64)
	if !ok {
		return storedTurn{}, fmt.Errorf("payload field %s missing or not an integer", fieldSeq)
	}
	role, ok := meta[fieldRole].(string)
	if !ok {
		return storedTurn{}, fmt.Errorf("payload field %s missing", fieldRole)
	}
	content, _ := meta[fieldContent].(string)

	return storedTurn{
		seq:     seq,
		message: llm.ChatMessage{Role: llm.Role(role), Content: content},
	}, nil
}

// convertPayloadToMap converts Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

// convertValue converts a Qdrant Value to Go any type.
func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}
