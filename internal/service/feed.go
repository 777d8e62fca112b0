package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/model"
)

// ReportFeed consumes collar reports from the message transports and
// hands them to the pipeline. A bad report is logged and dropped; the
// consumers never stop on input errors.
type ReportFeed struct {
	nc      *nats.Conn
	subject string

	mqttClient mqtt.Client
	mqttTopic  string

	pipeline *Pipeline
	logger   *zap.Logger
	sub      *nats.Subscription
}

// NewReportFeed wires the transports. nc and mqttClient may each be
// nil to disable that source.
func NewReportFeed(nc *nats.Conn, subject string, mqttClient mqtt.Client, mqttTopic string, pipeline *Pipeline, logger *zap.Logger) *ReportFeed {
	return &ReportFeed{
		nc:         nc,
		subject:    subject,
		mqttClient: mqttClient,
		mqttTopic:  mqttTopic,
		pipeline:   pipeline,
		logger:     logger.Named("feed"),
	}
}

// Start subscribes to the configured sources.
func (f *ReportFeed) Start(ctx context.Context) error {
	if f.nc != nil {
		sub, err := f.nc.Subscribe(f.subject, func(msg *nats.Msg) {
			f.handle(ctx, msg.Data, "")
		})
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", f.subject, err)
		}
		f.sub = sub
		f.logger.Info("subscribed to uplink subject", zap.String("subject", f.subject))
	}

	if f.mqttClient != nil {
		token := f.mqttClient.Subscribe(f.mqttTopic, 1, func(_ mqtt.Client, msg mqtt.Message) {
			f.handle(ctx, msg.Payload(), collarFromTopic(msg.Topic()))
		})
		if token.Wait() && token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", f.mqttTopic, token.Error())
		}
		f.logger.Info("subscribed to mqtt topic", zap.String("topic", f.mqttTopic))
	}

	return nil
}

func (f *ReportFeed) handle(ctx context.Context, payload []byte, topicCollar string) {
	var report model.LocationReport
	if err := json.Unmarshal(payload, &report); err != nil {
		f.logger.Warn("undecodable report", zap.Error(err))
		return
	}
	if report.CollarID == "" {
		report.CollarID = topicCollar
	}

	if err := f.pipeline.Process(ctx, &report); err != nil {
		switch {
		case errors.Is(err, ErrStaleReport):
			// Already logged and counted by the pipeline.
		case errors.Is(err, ErrInvalidReport):
			f.logger.Warn("report rejected",
				zap.String("collar_id", report.CollarID), zap.Error(err))
		default:
			f.logger.Error("report processing failed",
				zap.String("collar_id", report.CollarID), zap.Error(err))
		}
	}
}

// Stop unsubscribes from the sources, leaving in-flight handlers to
// finish.
func (f *ReportFeed) Stop() {
	if f.sub != nil {
		if err := f.sub.Unsubscribe(); err != nil {
			f.logger.Warn("unsubscribe failed", zap.Error(err))
		}
	}
	if f.mqttClient != nil {
		f.mqttClient.Unsubscribe(f.mqttTopic).Wait()
	}
	f.logger.Info("feed stopped")
}

// collarFromTopic extracts the collar segment from topics shaped like
// htk/collar/<id>/report.
func collarFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) >= 3 && parts[1] == "collar" {
		return parts[2]
	}
	return ""
}
