package kafka

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"contact_service/internal/metrics"

	"github.com/IBM/sarama"
)

// MessageProcessor доводит сообщение до терминального состояния:
// nil — сохранено и доставлено либо ушло в DLQ, offset можно двигать.
// Ошибка — обработка прервана (shutdown), сообщение будет перечитано.
type MessageProcessor interface {
	ProcessContactMessage(ctx context.Context, message []byte) error
}

const consumeBackoff = 5 * time.Second

type Consumer struct {
	group   sarama.ConsumerGroup
	topic   string
	handler sarama.ConsumerGroupHandler
	logger  *log.Logger

	mu      sync.Mutex
	running bool
}

func NewConsumer(
	brokers []string,
	groupID string,
	topic string,
	processor MessageProcessor,
	logger *log.Logger,
) (*Consumer, error) {
	if logger == nil {
		logger = log.Default()
	}

	cfg := sarama.NewConfig()

	cfg.Consumer.Return.Errors = true
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	// Важно: коммит только руками после терминальной обработки
	cfg.Consumer.Offsets.AutoCommit.Enable = false

	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{
		sarama.NewBalanceStrategyRange(),
	}
	cfg.Consumer.Group.Session.Timeout = 30 * time.Second
	cfg.Consumer.Group.Heartbeat.Interval = 3 * time.Second

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	h := &contactGroupHandler{
		processor: processor,
		logger:    logger,
	}

	return &Consumer{
		group:   group,
		topic:   topic,
		handler: h,
		logger:  logger,
	}, nil
}

// Start крутит цикл до отмены ctx. Второй Start на том же инстансе — ошибка.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	// Ошибки группы в отдельный поток логов
	go func() {
		for err := range c.group.Errors() {
			c.logger.Printf("consumer group error: %v", err)
			metrics.IncKafkaError("consumer", "group")
		}
	}()

	c.logger.Printf("consumer loop started topic=%s", c.topic)

	for {
		err := c.group.Consume(ctx, []string{c.topic}, c.handler)
		if ctx.Err() != nil {
			c.logger.Println("consumer loop stopped")
			return nil
		}
		if err != nil {
			c.logger.Printf("consume loop error: %v; retry in %s", err, consumeBackoff)
			metrics.IncKafkaError("consumer", "consume")

			select {
			case <-ctx.Done():
				c.logger.Println("consumer loop stopped")
				return nil
			case <-time.After(consumeBackoff):
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type contactGroupHandler struct {
	processor MessageProcessor
	logger    *log.Logger
}

func (h *contactGroupHandler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (h *contactGroupHandler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim обрабатывает записи в порядке прихода в пределах партиции.
// Offset двигается только после того, как пайплайн довёл сообщение до
// терминального исхода; ошибка процессора (отмена при shutdown) оставляет
// запись незакоммиченной — она будет перечитана, потеря исключена.
func (h *contactGroupHandler) ConsumeClaim(
	session sarama.ConsumerGroupSession,
	claim sarama.ConsumerGroupClaim,
) error {
	for kafkaMsg := range claim.Messages() {
		lag := claim.HighWaterMarkOffset() - kafkaMsg.Offset - 1
		metrics.SetKafkaConsumerLag(kafkaMsg.Topic, kafkaMsg.Partition, lag)

		if err := h.processor.ProcessContactMessage(session.Context(), kafkaMsg.Value); err != nil {
			h.logger.Printf(
				"process interrupted topic=%s partition=%d offset=%d err=%v",
				kafkaMsg.Topic, kafkaMsg.Partition, kafkaMsg.Offset, err,
			)
			return err
		}

		metrics.IncKafkaProcessed()

		// Только после терминальной обработки:
		session.MarkMessage(kafkaMsg, "")
		session.Commit()
	}
	return nil
}
