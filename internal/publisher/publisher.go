// Package publisher forwards retrieved price bars to downstream consumers.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"TickerSentinel/internal/model"
)

// Publisher sends bars for a symbol.
type Publisher interface {
	PublishBars(ctx context.Context, symbol string, granularity model.Granularity, bars []model.OHLCV) error
	Close() error
}

// BarMessage is the JSON value of a published bar.
type BarMessage struct {
	Symbol      string            `json:"symbol"`
	Granularity model.Granularity `json:"granularity"`
	Date        string            `json:"date"`
	Open        decimal.Decimal   `json:"open"`
	High        decimal.Decimal   `json:"high"`
	Low         decimal.Decimal   `json:"low"`
	Close       decimal.Decimal   `json:"close"`
	Volume      decimal.Decimal   `json:"volume"`
	PublishedAt int64             `json:"published_at"`
}

// NewBarMessages converts bars into messages for symbol.
func NewBarMessages(symbol string, granularity model.Granularity, bars []model.OHLCV, now time.Time) []BarMessage {
	msgs := make([]BarMessage, len(bars))
	for i, b := range bars {
		msgs[i] = BarMessage{
			Symbol:      symbol,
			Granularity: granularity,
			Date:        b.Time.Format("2006-01-02"),
			Open:        b.Open,
			High:        b.High,
			Low:         b.Low,
			Close:       b.Close,
			Volume:      b.Volume,
			PublishedAt: now.Unix(),
		}
	}
	return msgs
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one message per bar, keyed by symbol.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher creates a publisher for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	log.Info().Strs("brokers", brokers).Str("topic", topic).Msg("kafka publisher configured")
	return &KafkaPublisher{writer: writer, topic: topic}
}

func (p *KafkaPublisher) PublishBars(ctx context.Context, symbol string, granularity model.Granularity, bars []model.OHLCV) error {
	if len(bars) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(bars))
	for _, m := range NewBarMessages(symbol, granularity, bars, time.Now()) {
		value, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal bar %s %s: %w", symbol, m.Date, err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(symbol), Value: value})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d bars for %s to %s: %w", len(msgs), symbol, p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	log.Info().Msg("closing kafka publisher")
	return p.writer.Close()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (n *NoopPublisher) PublishBars(_ context.Context, _ string, _ model.Granularity, _ []model.OHLCV) error {
	return nil
}
func (n *NoopPublisher) Close() error { return nil }
