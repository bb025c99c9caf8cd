// MongoHandler is an slog.Handler that stores records in a MongoDB
// collection without blocking the caller:
//
//   - Records at or above the configured level are enqueued on a buffered
//     channel. If the channel is full the record is dropped.
//   - One background goroutine drains the channel with InsertMany in
//     batches of up to 50 documents.
//   - Close flushes what is queued and disconnects.
//
// vendo attaches it at WARN so failed purchases and compensation errors
// land in an alert collection.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoQueueSize = 4096
	mongoBatchSize = 50
	mongoDrainTick = 2 * time.Second
)

// LogDocument is the shape written to MongoDB.
type LogDocument struct {
	Time      time.Time `bson:"time"`
	Level     string    `bson:"level"`
	Msg       string    `bson:"msg"`
	RequestID string    `bson:"request_id,omitempty"`
	Attrs     bson.M    `bson:"attrs,omitempty"`
}

// documentSink is the part of *mongo.Collection the drain loop needs.
type documentSink interface {
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

type mongoCore struct {
	sink       documentSink
	disconnect func(context.Context) error
	queue      chan LogDocument
	done       chan struct{}
	finished   chan struct{}
	closeOnce  sync.Once
}

// MongoHandler is a slog.Handler that writes to MongoDB asynchronously.
type MongoHandler struct {
	core   *mongoCore
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewMongoHandler connects to uri and writes records at or above level into
// db.collection. The caller must eventually call Close.
func NewMongoHandler(uri, db, collection string, level slog.Leveler) (*MongoHandler, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(uri).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo_handler: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo_handler: ping: %w", err)
	}

	col := client.Database(db).Collection(collection)

	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "time", Value: -1}},
	})

	return newMongoHandler(col, client.Disconnect, level), nil
}

func newMongoHandler(sink documentSink, disconnect func(context.Context) error, level slog.Leveler) *MongoHandler {
	core := &mongoCore{
		sink:       sink,
		disconnect: disconnect,
		queue:      make(chan LogDocument, mongoQueueSize),
		done:       make(chan struct{}),
		finished:   make(chan struct{}),
	}
	go core.drainLoop()
	return &MongoHandler{core: core, level: level}
}

// ─── slog.Handler interface ───────────────────────────────────────────────────

func (h *MongoHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *MongoHandler) Handle(_ context.Context, r slog.Record) error {
	doc := LogDocument{
		Time:  r.Time.UTC(),
		Level: r.Level.String(),
		Msg:   r.Message,
		Attrs: bson.M{},
	}

	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}

	add := func(a slog.Attr) bool {
		if a.Key == "request_id" {
			doc.RequestID = a.Value.String()
			return true
		}
		v := a.Value.Resolve()
		if err, ok := v.Any().(error); ok {
			doc.Attrs[prefix+a.Key] = err.Error()
		} else {
			doc.Attrs[prefix+a.Key] = v.String()
		}
		return true
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(add)

	select {
	case h.core.queue <- doc:
	default:
	}
	return nil
}

func (h *MongoHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	newAttrs = append(newAttrs, h.attrs...)
	newAttrs = append(newAttrs, attrs...)
	return &MongoHandler{core: h.core, level: h.level, attrs: newAttrs, groups: h.groups}
}

func (h *MongoHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, 0, len(h.groups)+1)
	newGroups = append(newGroups, h.groups...)
	newGroups = append(newGroups, name)
	return &MongoHandler{core: h.core, level: h.level, attrs: h.attrs, groups: newGroups}
}

// ─── Internals ────────────────────────────────────────────────────────────────

func (c *mongoCore) drainLoop() {
	defer close(c.finished)

	ticker := time.NewTicker(mongoDrainTick)
	defer ticker.Stop()

	batch := make([]interface{}, 0, mongoBatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = c.sink.InsertMany(ctx, batch)
		batch = batch[:0]
	}

	for {
		select {
		case doc := <-c.queue:
			batch = append(batch, doc)
			if len(batch) >= mongoBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-c.done:
			for len(c.queue) > 0 {
				batch = append(batch, <-c.queue)
				if len(batch) >= mongoBatchSize {
					flush()
				}
			}
			flush()
			return
		}
	}
}

// Close flushes pending records and disconnects. Safe to call more than once.
func (h *MongoHandler) Close() {
	h.core.closeOnce.Do(func() {
		close(h.core.done)
		<-h.core.finished

		if h.core.disconnect != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = h.core.disconnect(ctx)
		}
	})
}

// ─── Multi-handler fan-out ─────────────────────────────────────────────────────

// MultiHandler fans out to multiple slog.Handlers.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler returns a handler that sends each record to all hs.
func NewMultiHandler(hs ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: hs}
}

func (m *MultiHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			_ = h.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: hs}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: hs}
}
