package mq

import "context"

// Message 审计事件消息
type Message struct {
	Topic   string
	Key     string
	Value   []byte
	Headers map[string]string
}

type PublishResult struct {
	Partition int32
	Offset    int64
}

// Publisher 消息发布接口（Kafka 实现见 kafka 子包）
type Publisher interface {
	Publish(ctx context.Context, msg Message) (PublishResult, error)
	Close() error
}
