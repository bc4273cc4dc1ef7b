package skill

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/private-assistant/iot-state-skill/internal/model"
	"github.com/private-assistant/iot-state-skill/pkg/bus"
	"github.com/private-assistant/iot-state-skill/pkg/dedup"
)

// requestTimeout caps one pipeline run; the store call is the only part that
// can block.
const requestTimeout = 10 * time.Second

// Skill wires the decision pipeline to the bus: consume intent messages,
// extract parameters, read latest device states, compose an answer, publish
// it to the request's output topic. Each request is handled independently on
// its own goroutine; there is no state shared between in-flight requests.
type Skill struct {
	consumer  bus.IConsumer
	publisher bus.IPublisher
	reader    StateReader
	composer  *Composer
	deduper   *dedup.Deduper
}

func New(consumer bus.IConsumer, publisher bus.IPublisher, reader StateReader, composer *Composer) *Skill {
	s := &Skill{
		consumer:  consumer,
		publisher: publisher,
		reader:    reader,
		composer:  composer,
		deduper:   dedup.New(10*time.Minute, 20000),
	}
	consumer.SetHandler(s.handleMessage)
	return s
}

// Start runs the consume loop until the context is cancelled.
func (s *Skill) Start(ctx context.Context) {
	go s.consumer.Consume(ctx)
	<-ctx.Done()
}

// handleMessage decodes one intent message and starts a pipeline run for it.
// Malformed payloads, QoS 1 redeliveries and requests this skill has no
// confidence in are dropped without a response.
func (s *Skill) handleMessage(_ string, msg mqtt.Message) error {
	var req model.IntentRequest
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		log.Printf("skill: bad intent payload: %v", err)
		return nil // do not stall the stream on junk
	}
	if !s.deduper.ShouldProcess(req.ID) {
		return nil
	}
	if CalculateCertainty(req) == 0 {
		return nil // some other skill will claim this request
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := s.HandleRequest(ctx, req); err != nil {
			log.Printf("skill: request %s failed: %v", req.ID, err)
		}
	}()
	return nil
}

// HandleRequest runs extract -> read -> compose and publishes exactly one
// response on success. A failed read produces no outbound message at all,
// never a partial one.
func (s *Skill) HandleRequest(ctx context.Context, req model.IntentRequest) error {
	requestsTotal.Inc()
	start := time.Now()
	defer func() { requestDuration.Observe(time.Since(start).Seconds()) }()

	params, err := ExtractParameters(req)
	if err != nil {
		requestFailures.WithLabelValues("extract").Inc()
		return fmt.Errorf("extracting parameters for request %s: %w", req.ID, err)
	}

	params.States, err = s.reader.ReadStates(ctx, params)
	if err != nil {
		requestFailures.WithLabelValues("read").Inc()
		return fmt.Errorf("reading device states for request %s: %w", req.ID, err)
	}

	answer := s.composer.ComposeAnswer(params)
	return s.sendResponse(req.ClientRequest, answer)
}

func (s *Skill) sendResponse(cr model.ClientRequest, answer string) error {
	resp := model.Response{ID: uuid.NewString(), Text: answer}
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshalling response for request %s: %w", cr.ID, err)
	}
	if err := s.publisher.PublishTo(cr.OutputTopic, 1, false, payload); err != nil {
		requestFailures.WithLabelValues("publish").Inc()
		return fmt.Errorf("publishing response for request %s: %w", cr.ID, err)
	}
	responsesTotal.Inc()
	log.Printf("skill: answered request %s on %s", cr.ID, cr.OutputTopic)
	return nil
}
