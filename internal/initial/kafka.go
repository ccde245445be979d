package initial

import (
	"fmt"

	"CivicLink/internal/config"
	"CivicLink/internal/modules/assistant/infrastructure/mq"
	"CivicLink/internal/modules/assistant/infrastructure/mq/kafka"
	"CivicLink/pkg/zlog"
)

var KafkaPublisher mq.Publisher

func init() {
	conf := config.GetConfig()

	// 未配置 Kafka 时跳过，审计事件只落库不广播
	if len(conf.KafkaConfig.Brokers) == 0 {
		zlog.Info("Kafka 未配置，跳过初始化（审计事件不广播）")
		return
	}

	publisher, err := kafka.NewSaramaPublisher(kafka.PublisherConfig{
		Brokers:  conf.KafkaConfig.Brokers,
		ClientID: conf.KafkaConfig.ClientID,
	})
	if err != nil {
		zlog.Error(fmt.Sprintf("Kafka 连接失败: %v", err))
		return
	}

	KafkaPublisher = publisher
	zlog.Info("Kafka 连接成功")
}
