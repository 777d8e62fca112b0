package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/config"
	"github.com/BarkanovEugen/HorseTracker-sub001/internal/handler"
	"github.com/BarkanovEugen/HorseTracker-sub001/internal/logging"
	"github.com/BarkanovEugen/HorseTracker-sub001/internal/server"
	"github.com/BarkanovEugen/HorseTracker-sub001/internal/service"
	"github.com/BarkanovEugen/HorseTracker-sub001/internal/store"

	_ "github.com/BarkanovEugen/HorseTracker-sub001/docs"
)

// @title HorseTracker API
// @version 1.0
// @description Real-time geofence monitoring and alert escalation for GPS-collared horses

// @contact.name Issues
// @contact.url https://github.com/BarkanovEugen/HorseTracker-sub001/issues

// @host localhost:3000
// @BasePath /api/v1

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting trackerd")

	// Database
	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}
	defer st.Close()

	if err := st.AutoMigrate(); err != nil {
		logger.Fatal("database migrate failed", zap.Error(err))
	}
	logger.Info("database ready")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
		DB:   0,
	})

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Fatal("redis connect failed", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("redis ready")

	shadow := store.NewShadow(redisClient)

	// NATS
	natsConn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		logger.Fatal("nats connect failed", zap.Error(err))
	}
	defer natsConn.Close()
	logger.Info("nats ready", zap.String("url", cfg.NATSURL))

	// MQTT is optional; some collar fleets uplink over it directly.
	var mqttClient mqtt.Client
	if cfg.MQTTBrokerURL != "" {
		opts := mqtt.NewClientOptions().
			AddBroker(cfg.MQTTBrokerURL).
			SetClientID(fmt.Sprintf("trackerd-%s", uuid.NewString()[:8])).
			SetKeepAlive(60 * time.Second).
			SetPingTimeout(10 * time.Second).
			SetAutoReconnect(true)
		opts.OnConnect = func(mqtt.Client) {
			logger.Info("mqtt connected", zap.String("broker", cfg.MQTTBrokerURL))
		}
		opts.OnConnectionLost = func(_ mqtt.Client, err error) {
			logger.Warn("mqtt connection lost", zap.Error(err))
		}

		mqttClient = mqtt.NewClient(opts)
		if token := mqttClient.Connect(); token.Wait() && token.Error() != nil {
			logger.Fatal("mqtt connect failed", zap.Error(token.Error()))
		}
	}

	// Push notifications are optional too.
	var pusher service.Pusher
	if cfg.RabbitMQURL != "" {
		notifier, err := service.NewPushNotifier(cfg.RabbitMQURL, cfg.PushExchange, cfg.PushQueue, logger)
		if err != nil {
			logger.Fatal("rabbitmq connect failed", zap.Error(err))
		}
		defer notifier.Close()
		pusher = notifier
	}

	// Engines. The hub is both the event sink for the engines and a
	// snapshot consumer of them, so its sources are set afterwards.
	hub := handler.NewHub(logger)
	fences := service.NewFenceIndex(st, logger)
	alerts := service.NewAlertEngine(st, hub, pusher, cfg.EscalationDwell, logger)
	pipeline := service.NewPipeline(fences, alerts, st, shadow, hub, cfg.BatteryThreshold, logger)
	hub.SetSources(pipeline, alerts)

	ctx := context.Background()
	if err := fences.Load(ctx); err != nil {
		logger.Fatal("geofence load failed", zap.Error(err))
	}
	if err := alerts.Load(ctx); err != nil {
		logger.Fatal("alert load failed", zap.Error(err))
	}
	if err := pipeline.Load(ctx); err != nil {
		logger.Fatal("roster load failed", zap.Error(err))
	}

	go hub.Run()

	sweeper := service.NewSweeper(alerts, pipeline, cfg.SweepInterval, cfg.OfflineTimeout, cfg.ResolvedRetention, logger)
	sweeper.Start(ctx)

	feed := service.NewReportFeed(natsConn, cfg.UplinkSubject, mqttClient, cfg.MQTTTopic, pipeline, logger)
	if err := feed.Start(ctx); err != nil {
		logger.Fatal("report feed start failed", zap.Error(err))
	}

	srv := server.NewServer(cfg, pipeline, alerts, fences, hub, logger)
	srv.Setup()

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	go func() {
		if err := srv.Run(addr); err != nil {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	logger.Info("trackerd ready", zap.String("addr", addr))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	feed.Stop()
	sweeper.Stop()
	hub.Stop()

	if mqttClient != nil {
		mqttClient.Disconnect(250)
	}

	logger.Info("shutdown complete")
}
