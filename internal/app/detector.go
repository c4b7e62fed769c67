// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/motion_monitor/internal/config"
	"github.com/relabs-tech/motion_monitor/internal/imu"
	"github.com/relabs-tech/motion_monitor/internal/motion"
)

// Detector keeps one motion session per sample source. Each session, with
// its filter state, is only touched under mu, so chunks of a stream are
// processed strictly in order.
type Detector struct {
	mu       sync.Mutex
	cfg      motion.SessionConfig
	palette  motion.Palette
	sessions map[string]*stream
	sinks    SinkFactory
}

type stream struct {
	session *motion.Session
	sink    motion.FeedbackSink
	lastSeq uint64
}

// NewDetector validates cfg up front so a bad configuration fails at startup
// instead of on the first chunk.
func NewDetector(cfg motion.SessionConfig, palette motion.Palette, sinks SinkFactory) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{
		cfg:      cfg,
		palette:  palette,
		sessions: make(map[string]*stream),
		sinks:    sinks,
	}, nil
}

// HandleChunk runs one chunk through its stream's session and delivers the
// result to the stream's sink. It returns the message to publish and whether
// there is one: every non-None event, and the return to idle.
func (d *Detector) HandleChunk(chunk imu.Chunk) (imu.EventMessage, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	st, err := d.streamFor(chunk)
	if err != nil {
		return imu.EventMessage{}, false, err
	}
	if st.lastSeq != 0 && chunk.Seq != 0 && chunk.Seq != st.lastSeq+1 {
		log.WithField("source", chunk.Source).Warnf("detector: chunk gap, expected seq %d got %d", st.lastSeq+1, chunk.Seq)
	}
	st.lastSeq = chunk.Seq

	res, err := st.session.Process(chunk.Samples)
	if err != nil {
		return imu.EventMessage{}, false, err
	}
	motion.Deliver(st.sink, res.Event)

	if res.Event.Event == motion.EventNone && !res.Transition {
		return imu.EventMessage{}, false, nil
	}
	ts := chunk.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return imu.EventMessage{
		Source:    chunk.Source,
		Seq:       chunk.Seq,
		Event:     res.Event.Event.String(),
		Trigger:   res.Event.Event.Trigger(),
		Message:   res.Event.Message,
		Color:     res.Event.Color.String(),
		Indicator: d.palette.Name(res.Event.Color),
		State:     st.session.State().String(),
		Slope:     res.Slope,
		Time:      ts,
	}, true, nil
}

func (d *Detector) streamFor(chunk imu.Chunk) (*stream, error) {
	if chunk.Source == "" {
		return nil, fmt.Errorf("chunk without source")
	}
	if st, ok := d.sessions[chunk.Source]; ok {
		return st, nil
	}
	cfg := d.cfg
	if chunk.Period > 0 {
		cfg.SamplePeriod = chunk.Period
	}
	session, err := motion.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", chunk.Source, err)
	}
	st := &stream{session: session, sink: d.sinks(chunk.Source)}
	d.sessions[chunk.Source] = st
	log.WithField("source", chunk.Source).Infof("detector: new stream (%s filter, period %.3fs)", cfg.Filter.Algorithm, cfg.SamplePeriod)
	return st, nil
}

// SetThresholds applies new classifier thresholds to every stream, current and future.
func (d *Detector) SetThresholds(th motion.Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg.Classifier.Thresholds = th
	for _, st := range d.sessions {
		if err := st.session.SetThresholds(th); err != nil {
			return err
		}
	}
	return nil
}

// Sources returns the number of streams seen so far.
func (d *Detector) Sources() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

// RunDetector subscribes to sample chunks, runs the motion pipeline for each
// source and publishes events, indicator and log lines. It also serves the
// websocket feedback feed and reloads thresholds when the config file changes.
func RunDetector(configPath string) error {
	cfg := config.Get()
	palette := cfg.Palette()

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDetector).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("detector: connected to MQTT broker at %s", cfg.MQTTBroker)

	hub := NewHub(palette)
	factories := []SinkFactory{LogSinks(palette), MQTTSinks(client, cfg.TopicIndicator, palette), hub.Sinks()}
	if cfg.DisplayI2CAddr != 0 {
		display, err := OpenDisplay(cfg.DisplayI2CAddr)
		if err != nil {
			log.Printf("detector: display disabled: %v", err)
		} else {
			defer display.Close()
			factories = append(factories, display.Sinks())
		}
	}

	det, err := NewDetector(cfg.Session(), palette, Fanout(factories...))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Chunks are handed to a single worker so the MQTT callback never blocks
	// on the pipeline and streams stay ordered.
	chunks := make(chan imu.Chunk, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			var chunk imu.Chunk
			select {
			case <-ctx.Done():
				return
			case chunk = <-chunks:
			}
			msg, ok, err := det.HandleChunk(chunk)
			switch {
			case errors.Is(err, motion.ErrInsufficientData):
				continue // still filling the slope window
			case err != nil:
				log.WithField("source", chunk.Source).Printf("detector: skipping chunk %d: %v", chunk.Seq, err)
				continue
			case !ok:
				continue
			}
			publishJSON(client, cfg.TopicEvents, false, msg)
		}
	}()

	token := client.Subscribe(cfg.TopicSamples, 0, func(_ mqtt.Client, m mqtt.Message) {
		var chunk imu.Chunk
		if err := json.Unmarshal(m.Payload(), &chunk); err != nil {
			log.Printf("detector: chunk unmarshal error: %v", err)
			return
		}
		select {
		case chunks <- chunk:
		default:
			log.WithField("source", chunk.Source).Warnf("detector: queue full, dropping chunk %d", chunk.Seq)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("detector: subscribed to %s", cfg.TopicSamples)

	go func() {
		err := config.Watch(ctx, configPath, func(newCfg *config.Config, err error) {
			if err != nil {
				log.Printf("detector: config reload failed, keeping previous thresholds: %v", err)
				return
			}
			if err := det.SetThresholds(newCfg.Thresholds()); err != nil {
				log.Printf("detector: rejected new thresholds: %v", err)
				return
			}
			log.Printf("detector: thresholds reloaded (threshold=%.2f high_ratio=%.2f)", newCfg.SlopeThreshold, newCfg.SlopeHighRatio)
		})
		if err != nil {
			log.Printf("detector: config watch stopped: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           NewWebMux(hub),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("detector: web server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("detector: web server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("detector: shutting down")

	client.Unsubscribe(cfg.TopicSamples).Wait()
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func publishJSON(client mqtt.Client, topic string, retained bool, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("json marshal error (%s): %v", topic, err)
		return
	}
	if token := client.Publish(topic, 0, retained, payload); token.Wait() && token.Error() != nil {
		log.Printf("MQTT publish error (%s): %v", topic, token.Error())
	}
}
