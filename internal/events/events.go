// Package events announces finished imports on a RabbitMQ topic exchange so
// downstream systems (CRM sync, mailers) can react without polling reports.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/JonMunkholm/contactimport/internal/core"
)

const (
	DefaultExchange = "contactimport.events"

	// RoutingKeyImportFinished is used for every completed import run.
	RoutingKeyImportFinished = "import.finished"
)

// ImportFinished is the message body published after an import completes.
type ImportFinished struct {
	ImportID   string          `json:"import_id"`
	FileName   string          `json:"file_name"`
	Mode       core.ImportMode `json:"mode"`
	TotalRows  int             `json:"total_rows"`
	Created    int             `json:"created"`
	Updated    int             `json:"updated"`
	Errors     int             `json:"errors"`
	FinishedAt time.Time       `json:"finished_at"`
}

// NewImportFinished builds the event for report.
func NewImportFinished(report *core.ImportReport, at time.Time) ImportFinished {
	return ImportFinished{
		ImportID:   report.ID,
		FileName:   report.FileName,
		Mode:       report.Mode,
		TotalRows:  report.TotalRows,
		Created:    report.Created,
		Updated:    report.Updated,
		Errors:     len(report.Messages),
		FinishedAt: at.UTC(),
	}
}

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQ publishes import events to a durable topic exchange.
type RabbitMQ struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	now      func() time.Time
}

// Dial connects to url, opens a channel and declares the exchange.
// An empty exchange uses DefaultExchange.
func Dial(url, exchange string) (*RabbitMQ, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &RabbitMQ{conn: conn, ch: ch, exchange: exchange, now: time.Now}, nil
}

// PublishImportFinished publishes a persistent ImportFinished message.
func (r *RabbitMQ) PublishImportFinished(ctx context.Context, report *core.ImportReport) error {
	body, err := json.Marshal(NewImportFinished(report, r.now()))
	if err != nil {
		return fmt.Errorf("encode import event: %w", err)
	}

	err = r.ch.PublishWithContext(ctx,
		r.exchange,
		RoutingKeyImportFinished,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    report.ID,
			Timestamp:    r.now(),
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish import %s: %w", report.ID, err)
	}
	return nil
}

// Healthy reports whether the broker connection is still open.
func (r *RabbitMQ) Healthy() bool {
	return r.conn == nil || !r.conn.IsClosed()
}

// Close closes the channel and the connection.
func (r *RabbitMQ) Close() error {
	chErr := r.ch.Close()
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			return err
		}
	}
	return chErr
}
