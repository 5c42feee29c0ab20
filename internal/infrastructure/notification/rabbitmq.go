package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpChannel は使用する amqp.Channel のメソッドのみ
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type amqpConnection interface {
	Channel() (amqpChannel, error)
	IsClosed() bool
	Close() error
}

type dialer func(url string) (amqpConnection, error)

type realConnection struct{ *amqp.Connection }

func (c realConnection) Channel() (amqpChannel, error) { return c.Connection.Channel() }

func dialAMQP(url string) (amqpConnection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return realConnection{conn}, nil
}

// RabbitMQNotifier は返金依頼を永続キューへJSONで発行する
type RabbitMQNotifier struct {
	url   string
	queue string
	dial  dialer

	mu   sync.Mutex
	conn amqpConnection
}

// NewRabbitMQNotifier は接続を確立してキューを宣言する
func NewRabbitMQNotifier(url, queue string) (*RabbitMQNotifier, error) {
	return newRabbitMQNotifier(url, queue, dialAMQP)
}

func newRabbitMQNotifier(url, queue string, dial dialer) (*RabbitMQNotifier, error) {
	n := &RabbitMQNotifier{url: url, queue: queue, dial: dial}
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, err := n.connectLocked(); err != nil {
		return nil, err
	}
	return n, nil
}

// connectLocked は切断されていれば再接続する。mu を保持して呼ぶこと
func (n *RabbitMQNotifier) connectLocked() (amqpConnection, error) {
	if n.conn != nil && !n.conn.IsClosed() {
		return n.conn, nil
	}
	conn, err := n.dial(n.url)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ接続に失敗: %w", err)
	}
	n.conn = conn
	return conn, nil
}

// NotifyRefund は返金依頼を発行する。チャネルは発行ごとに開閉する
func (n *RabbitMQNotifier) NotifyRefund(ctx context.Context, notice RefundNotice) error {
	body, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("返金通知のシリアライズに失敗: %w", err)
	}

	n.mu.Lock()
	conn, err := n.connectLocked()
	n.mu.Unlock()
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("チャネル作成に失敗: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(n.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("キュー宣言に失敗: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    notice.TransactionID,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", n.queue, false, false, pub); err != nil {
		return fmt.Errorf("返金通知の発行に失敗: %w", err)
	}
	return nil
}

// Close は接続を閉じる
func (n *RabbitMQNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn == nil || n.conn.IsClosed() {
		return nil
	}
	return n.conn.Close()
}

var _ Notifier = (*RabbitMQNotifier)(nil)
