package messenger

import (
	"encoding/json"
	"fmt"

	"github.com/artfolio/marketplace-chain-sync/internal/config"
	"github.com/artfolio/marketplace-chain-sync/internal/event"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"go.uber.org/zap"
)

type Item string

var (
	SettlementRecorded Item = "settlement.recorded"
)

func (i Item) queue() string {
	return fmt.Sprintf("%s.%s", config.Get().Index, i)
}

// MessageService pushes recorded settlements to downstream consumers.
// Delivery is best effort and at least once; a failed publish is logged
// and dropped, never retried at the cost of the reconciliation loop.
type MessageService interface {
	SendMessage(item Item, body []byte) error
	TriggerSettlementNotification(msg interface{})
}

type Messenger struct {
	client *sqs.SQS
}

func NewMessenger() MessageService {
	cfg := config.Get().Aws
	if cfg.Region == "" {
		zap.L().Info("Messenger: AWS configuration missing, notifications disabled")
		return Messenger{}
	}

	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
	})
	if err != nil {
		zap.L().With(zap.Error(err)).Warn("Messenger: Failed to create AWS session, notifications disabled")
		return Messenger{}
	}

	return Messenger{client: sqs.New(sess)}
}

func (m Messenger) SendMessage(item Item, body []byte) error {
	if m.client == nil {
		return nil
	}

	queueUrl, err := m.client.GetQueueUrl(&sqs.GetQueueUrlInput{QueueName: aws.String(item.queue())})
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("queue", item.queue())).Error("[Queue] Failed to resolve queue")
		return err
	}

	_, err = m.client.SendMessage(&sqs.SendMessageInput{
		QueueUrl:    queueUrl.QueueUrl,
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("queue", item.queue())).Error("[Queue] Failed to publish message")
		return err
	}

	zap.L().With(zap.String("queue", item.queue())).Debug("[Queue] Published message")

	return nil
}

// TriggerSettlementNotification is wired as a TransactionRecordedEvent
// listener.
func (m Messenger) TriggerSettlementNotification(msg interface{}) {
	recorded, ok := msg.(event.TransactionRecorded)
	if !ok {
		return
	}

	body, err := json.Marshal(recorded.Transaction)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to encode settlement notification")
		return
	}

	_ = m.SendMessage(SettlementRecorded, body)
}
