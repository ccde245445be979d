package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	"CivicLink/internal/modules/assistant/infrastructure/mq"

	"github.com/IBM/sarama"
)

type PublisherConfig struct {
	Brokers  []string
	ClientID string
}

// auditPublisher 审计事件同步生产者
// 幂等 + WaitForAll，保证审计流水不重不丢（发送失败由调用方决定是否忽略）
type auditPublisher struct {
	producer sarama.SyncProducer
}

func NewSaramaPublisher(cfg PublisherConfig) (mq.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers is empty")
	}

	sc := sarama.NewConfig()
	sc.Version = sarama.V2_8_0_0
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Idempotent = true
	sc.Producer.Retry.Max = 5
	sc.Producer.Retry.Backoff = 100 * time.Millisecond
	sc.Net.MaxOpenRequests = 1
	sc.Producer.Partitioner = sarama.NewHashPartitioner
	sc.ClientID = strings.TrimSpace(cfg.ClientID)
	if sc.ClientID == "" {
		sc.ClientID = "civiclink-audit"
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, err
	}
	return &auditPublisher{producer: producer}, nil
}

func (a *auditPublisher) Publish(ctx context.Context, msg mq.Message) (mq.PublishResult, error) {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return mq.PublishResult{}, ctx.Err()
		default:
		}
	}
	if strings.TrimSpace(msg.Topic) == "" {
		return mq.PublishResult{}, errors.New("kafka topic is empty")
	}

	pm := &sarama.ProducerMessage{
		Topic: msg.Topic,
		Key:   sarama.ByteEncoder(msg.Key),
		Value: sarama.ByteEncoder(msg.Value),
	}
	for k, v := range msg.Headers {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		pm.Headers = append(pm.Headers, sarama.RecordHeader{
			Key:   []byte(key),
			Value: []byte(v),
		})
	}

	partition, offset, err := a.producer.SendMessage(pm)
	if err != nil {
		return mq.PublishResult{}, err
	}
	return mq.PublishResult{Partition: partition, Offset: offset}, nil
}

func (a *auditPublisher) Close() error {
	if a == nil || a.producer == nil {
		return nil
	}
	return a.producer.Close()
}
