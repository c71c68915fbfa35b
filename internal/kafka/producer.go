package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"contact_service/internal/metrics"

	"github.com/IBM/sarama"
)

var ErrNotStarted = errors.New("kafka producer not started")

// Producer — синхронный идемпотентный продюсер для одного топика.
// Start/Stop — явный lifecycle: публикация до Start или после Stop
// сразу возвращает ErrNotStarted, а не висит.
type Producer struct {
	brokers []string
	topic   string
	logger  *log.Logger

	mu       sync.Mutex
	producer sarama.SyncProducer
}

func NewProducer(brokers []string, topic string, logger *log.Logger) *Producer {
	if logger == nil {
		logger = log.Default()
	}
	return &Producer{
		brokers: brokers,
		topic:   topic,
		logger:  logger,
	}
}

func (p *Producer) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.producer != nil {
		return nil
	}

	cfg := sarama.NewConfig()

	// SyncProducer обязательно:
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true

	// acks=all + идемпотентность: внутренний ретрай отправки
	// не порождает дублей в логе брокера.
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1

	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 500 * time.Millisecond

	prod, err := sarama.NewSyncProducer(p.brokers, cfg)
	if err != nil {
		return fmt.Errorf("create sarama sync producer: %w", err)
	}

	p.producer = prod
	p.logger.Printf("kafka producer started topic=%s", p.topic)
	return nil
}

// Stop закрывает соединение. Повторный Stop безопасен.
func (p *Producer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.producer == nil {
		return nil
	}

	err := p.producer.Close()
	p.producer = nil
	p.logger.Printf("kafka producer stopped topic=%s", p.topic)
	return err
}

func (p *Producer) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.producer != nil
}

func (p *Producer) Topic() string { return p.topic }

// SendContactMessage публикует заявку, ключ = id сообщения —
// партиционирование и дедупликация ниже по течению идут по нему.
func (p *Producer) SendContactMessage(msg *ContactMessage) error {
	if msg == nil {
		return fmt.Errorf("message is nil")
	}
	if msg.ID == "" {
		return fmt.Errorf("message id is empty")
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal contact message: %w", err)
	}

	if err := p.send(sarama.StringEncoder(msg.ID), b); err != nil {
		metrics.IncKafkaError("producer", "send")
		return fmt.Errorf("send contact message: %w", err)
	}

	metrics.IncKafkaSent()
	return nil
}

// SendDeadLetter пишет запись в DLQ-топик продюсера.
func (p *Producer) SendDeadLetter(entry *DeadLetterEntry) error {
	if entry == nil {
		return fmt.Errorf("dead letter entry is nil")
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal dead letter entry: %w", err)
	}

	if err := p.send(nil, b); err != nil {
		metrics.IncKafkaError("producer", "dlq")
		return fmt.Errorf("send dead letter: %w", err)
	}

	return nil
}

func (p *Producer) send(key sarama.Encoder, value []byte) error {
	p.mu.Lock()
	prod := p.producer
	p.mu.Unlock()

	if prod == nil {
		return ErrNotStarted
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       key,
		Value:     sarama.ByteEncoder(value),
		Timestamp: time.Now(),
	}

	_, _, err := prod.SendMessage(msg)
	return err
}
