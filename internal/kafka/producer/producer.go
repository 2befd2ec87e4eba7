// Package producer writes delivery audit records to Kafka.
package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/example/salon-notify/internal/models"
)

const (
	defaultMetadataRefreshInterval = 30 * time.Second
	defaultClientID                = "salon-notify"
)

// ErrNotReady is returned by Ready until the brokers have answered a
// metadata refresh or a publish.
var ErrNotReady = errors.New("kafka producer: brokers not reachable")

// Record is one audit record. Value is encoded as JSON and Key, usually the
// dispatch id, selects the partition.
type Record struct {
	Topic     string
	Key       string
	Kind      models.MessageKind
	EventType string
	Value     any
}

func (r Record) headers() []sarama.RecordHeader {
	out := []sarama.RecordHeader{{Key: []byte("content-type"), Value: []byte("application/json")}}
	if r.Kind != "" {
		out = append(out, sarama.RecordHeader{Key: []byte("message-kind"), Value: []byte(r.Kind)})
	}
	if r.EventType != "" {
		out = append(out, sarama.RecordHeader{Key: []byte("event-type"), Value: []byte(r.EventType)})
	}
	return out
}

// Option customises the producer during construction.
type Option func(*options)

type options struct {
	clientID        string
	version         sarama.KafkaVersion
	refreshInterval time.Duration
}

// WithClientID sets the client id reported to the brokers.
func WithClientID(id string) Option {
	return func(o *options) {
		if id != "" {
			o.clientID = id
		}
	}
}

// WithVersion sets the protocol version spoken to the brokers.
func WithVersion(v sarama.KafkaVersion) Option {
	return func(o *options) { o.version = v }
}

// WithMetadataRefreshInterval sets how often broker reachability is checked.
func WithMetadataRefreshInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.refreshInterval = interval
		}
	}
}

// Producer publishes Records with a Sarama sync producer. A background
// metadata refresh keeps Ready current between publishes.
type Producer struct {
	logger zerolog.Logger
	client sarama.Client
	sync   sarama.SyncProducer
	ready  atomic.Bool

	stop      context.CancelFunc
	stopped   chan struct{}
	closeOnce sync.Once
}

// New connects to brokers and starts the metadata watcher. An unreachable
// cluster is not an error here; it only keeps Ready failing.
func New(brokers []string, logger zerolog.Logger, opts ...Option) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka producer: at least one broker is required")
	}

	o := options{
		clientID:        defaultClientID,
		version:         sarama.V2_5_0_0,
		refreshInterval: defaultMetadataRefreshInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	client, err := sarama.NewClient(brokers, newConfig(o))
	if err != nil {
		return nil, fmt.Errorf("kafka producer: create client: %w", err)
	}
	syncProd, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("kafka producer: create sync producer: %w", err)
	}

	p := newProducer(client, syncProd, logger)
	p.observe(client.RefreshMetadata(), "initial metadata refresh")
	p.watch(o.refreshInterval)
	return p, nil
}

func newProducer(client sarama.Client, syncProd sarama.SyncProducer, logger zerolog.Logger) *Producer {
	return &Producer{logger: logger, client: client, sync: syncProd}
}

func newConfig(o options) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = o.clientID
	cfg.Version = o.version
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Retry.Backoff = 200 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	cfg.Metadata.Full = false
	cfg.Metadata.RefreshFrequency = o.refreshInterval
	return cfg
}

// Publish encodes rec and waits for the brokers to acknowledge it. ctx is
// only checked before sending; an acknowledged write cannot be taken back.
func (p *Producer) Publish(ctx context.Context, rec Record) error {
	if rec.Topic == "" {
		return errors.New("kafka producer: topic is required")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	payload, err := json.Marshal(rec.Value)
	if err != nil {
		return fmt.Errorf("kafka producer: encode %s record: %w", rec.Topic, err)
	}

	msg := &sarama.ProducerMessage{
		Topic:   rec.Topic,
		Value:   sarama.ByteEncoder(payload),
		Headers: rec.headers(),
	}
	if rec.Key != "" {
		msg.Key = sarama.StringEncoder(rec.Key)
	}

	partition, offset, err := p.sync.SendMessage(msg)
	p.observe(err, "publish")
	if err != nil {
		return fmt.Errorf("kafka producer: send to %s: %w", rec.Topic, err)
	}
	p.logger.Debug().
		Str("topic", rec.Topic).
		Str("key", rec.Key).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("kafka record acknowledged")
	return nil
}

// Ready reports whether the last broker interaction succeeded.
func (p *Producer) Ready(context.Context) error {
	if !p.ready.Load() {
		return ErrNotReady
	}
	return nil
}

// Close stops the watcher and releases the producer and client. It is safe
// to call more than once.
func (p *Producer) Close() error {
	var errs []error
	p.closeOnce.Do(func() {
		if p.stop != nil {
			p.stop()
			<-p.stopped
		}
		if err := p.sync.Close(); err != nil {
			errs = append(errs, err)
		}
		if p.client != nil {
			if err := p.client.Close(); err != nil && !errors.Is(err, sarama.ErrClosedClient) {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

func (p *Producer) observe(err error, op string) {
	if err != nil {
		if p.ready.Swap(false) {
			p.logger.Warn().Err(err).Str("op", op).Msg("kafka brokers became unreachable")
		}
		return
	}
	if !p.ready.Swap(true) {
		p.logger.Info().Str("op", op).Msg("kafka brokers reachable")
	}
}

func (p *Producer) watch(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	p.stop = cancel
	p.stopped = make(chan struct{})

	go func() {
		defer close(p.stopped)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.observe(p.client.RefreshMetadata(), "metadata refresh")
			}
		}
	}()
}
