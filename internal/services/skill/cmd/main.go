package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/private-assistant/iot-state-skill/internal/services/skill"
	"github.com/private-assistant/iot-state-skill/pkg/bus"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mqttClient, err := bus.NewConn(ctx, &bus.Config{
		Host:     cfg.MQTT.Host,
		Port:     cfg.MQTT.Port,
		User:     cfg.MQTT.User,
		Password: cfg.MQTT.Password,
		ClientID: cfg.MQTT.ClientID,
	})
	if err != nil {
		log.Fatalf("mqtt connect failed: %v", err)
	}

	consumer := bus.NewConsumer(mqttClient, cfg.IntentTopic, 1, nil)
	publisher := bus.NewPublisher(mqttClient)

	influxClient := influxdb2.NewClient(cfg.Influx.URL, cfg.Influx.Token)
	reader := skill.NewInfluxReader(influxClient, cfg.Influx.Org, cfg.Influx.Bucket, cfg.Influx.Measurement)

	sk := skill.New(consumer, publisher, reader, skill.NewComposer())

	mux := http.NewServeMux()
	mux.Handle("/healthz", skill.NewHealthHandler(mqttClient, influxClient))
	mux.Handle("/readyz", skill.NewReadyHandler(mqttClient, influxClient))
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("skill HTTP listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	go sk.Start(ctx)

	<-ctx.Done()
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	influxClient.Close()
	log.Println("skill: shutdown complete")
}
