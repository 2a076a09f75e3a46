package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"idol-platform/internal/client"
	"idol-platform/internal/util"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Auth event actions.
const (
	ActionRegister         = "register"
	ActionLoginSuccess     = "login_success"
	ActionLoginFailure     = "login_failure"
	ActionTwoFactorSuccess = "twofactor_success"
	ActionTwoFactorFailure = "twofactor_failure"
	ActionSuspendedReject  = "suspended_reject"
	ActionLockout          = "lockout"
)

// Event is one auth-relevant occurrence, published to Kafka and sunk into
// ClickHouse and Elasticsearch.
type Event struct {
	EventID    uuid.UUID `json:"event_id"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	Action     string    `json:"action"`
	Reason     string    `json:"reason,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Recorder fans auth events out to the configured sinks. Recording is
// fire-and-forget: a full buffer drops the event with a warning rather than
// stalling a login.
type Recorder struct {
	producer   *client.KafkaProducer
	clickhouse *client.ClickHouseClient
	es         *client.ESClient
	logger     *zap.Logger

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

const (
	bufferSize    = 1024
	flushInterval = 5 * time.Second
	flushBatch    = 100
)

func NewRecorder(
	producer *client.KafkaProducer,
	clickhouseClient *client.ClickHouseClient,
	esClient *client.ESClient,
	logger *zap.Logger,
) *Recorder {
	r := &Recorder{
		producer:   producer,
		clickhouse: clickhouseClient,
		es:         esClient,
		logger:     logger,
		events:     make(chan Event, bufferSize),
		done:       make(chan struct{}),
	}

	r.wg.Add(1)
	go r.run()

	return r
}

// Record enqueues the event for the async sinks and publishes it to Kafka.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	select {
	case r.events <- event:
	default:
		r.logger.Warn("audit buffer full, dropping event",
			zap.String("action", event.Action))
	}

	if r.producer != nil {
		payload, err := json.Marshal(event)
		if err != nil {
			r.logger.Error("failed to encode audit event", zap.Error(err))
			return
		}
		if err := r.producer.Publish(ctx, []byte(event.UserID), payload); err != nil {
			r.logger.Error("failed to publish audit event", zap.Error(err))
		}
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, flushBatch)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		r.flush(batch)
		batch = batch[:0]
	}

	for {
		select {
		case event := <-r.events:
			batch = append(batch, event)
			if len(batch) >= flushBatch {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-r.done:
			// Drain what is already queued before exiting.
			for {
				select {
				case event := <-r.events:
					batch = append(batch, event)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (r *Recorder) flush(batch []Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if r.clickhouse != nil {
		if err := r.insertClickHouse(ctx, batch); err != nil {
			r.logger.Error("failed to flush audit events to ClickHouse",
				zap.Error(err),
				zap.Int("count", len(batch)))
		}
	}

	if r.es != nil {
		r.indexElasticsearch(ctx, batch)
	}
}

func (r *Recorder) insertClickHouse(ctx context.Context, batch []Event) error {
	chBatch, err := r.clickhouse.Conn().PrepareBatch(ctx, `
        INSERT INTO auth_events (event_id, user_id, username, action, reason, remote_addr, occurred_at)`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, event := range batch {
		if err := chBatch.Append(
			event.EventID.String(),
			event.UserID,
			event.Username,
			event.Action,
			event.Reason,
			event.RemoteAddr,
			event.OccurredAt,
		); err != nil {
			return fmt.Errorf("failed to append event: %w", err)
		}
	}

	return chBatch.Send()
}

func (r *Recorder) indexElasticsearch(ctx context.Context, batch []Event) {
	for _, event := range batch {
		payload, err := json.Marshal(event)
		if err != nil {
			r.logger.Error("failed to encode event for indexing", zap.Error(err))
			continue
		}

		req := esapi.IndexRequest{
			Index:      r.es.EventIndex(),
			DocumentID: event.EventID.String(),
			Body:       bytes.NewReader(payload),
		}

		res, err := req.Do(ctx, r.es.Client)
		if err != nil {
			r.logger.Error("failed to index audit event", zap.Error(err))
			continue
		}
		if res.IsError() {
			r.logger.Error("elasticsearch rejected audit event",
				zap.String("status", res.Status()))
		}
		res.Body.Close()
	}
}

// Search queries indexed events by user and/or action, newest first.
func (r *Recorder) Search(ctx context.Context, userID, action string, limit int) ([]Event, error) {
	if r.es == nil {
		return nil, fmt.Errorf("event search unavailable: no elasticsearch client")
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	var filters []map[string]interface{}
	if userID != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"user_id.keyword": userID},
		})
	}
	if action != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"action.keyword": action},
		})
	}

	query := map[string]interface{}{
		"size": limit,
		"sort": []map[string]interface{}{
			{"occurred_at": map[string]interface{}{"order": "desc"}},
		},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"filter": filters},
		},
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search query: %w", err)
	}

	res, err := r.es.Client.Search(
		r.es.Client.Search.WithContext(ctx),
		r.es.Client.Search.WithIndex(r.es.EventIndex()),
		r.es.Client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("event search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("event search failed: %s", res.Status())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source Event `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	events := make([]Event, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		events = append(events, hit.Source)
	}
	return events, nil
}

// Close stops the background flusher and drains pending events.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
		util.Info("Audit recorder closed")
	})
}
