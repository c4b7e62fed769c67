// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"io"
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
	"github.com/relabs-tech/motion_monitor/internal/sensors"
)

// Chunker groups consecutive samples of one source into fixed size chunks.
type Chunker struct {
	source string
	period float64
	size   int
	seq    uint64
	buf    []motion.Sample
}

// NewChunker returns a chunker for source; sizes below 1 are raised to 1.
func NewChunker(source string, period float64, size int) *Chunker {
	if size < 1 {
		size = 1
	}
	return &Chunker{source: source, period: period, size: size, buf: make([]motion.Sample, 0, size)}
}

// Add appends s and returns a full chunk once size samples are buffered.
func (c *Chunker) Add(s motion.Sample, t time.Time) (imu.Chunk, bool) {
	c.buf = append(c.buf, s)
	if len(c.buf) < c.size {
		return imu.Chunk{}, false
	}
	c.seq++
	chunk := imu.Chunk{
		Source:  c.source,
		Seq:     c.seq,
		Period:  c.period,
		Time:    t,
		Samples: c.buf,
	}
	c.buf = make([]motion.Sample, 0, c.size)
	return chunk, true
}

// OpenSource builds the sample source named by kind: mock, mpu9250 or serial.
func OpenSource(kind string, cfg *config.Config) (imu.SampleSource, func() error, error) {
	noClose := func() error { return nil }
	switch kind {
	case "mock", "":
		return sensors.NewMockSource(sensors.DefaultMockOptions()), noClose, nil
	case "mpu9250":
		src, err := sensors.NewAccelSource("mpu9250", cfg.IMUSPIDevice, cfg.IMUCSPin, cfg.IMUAccelRange)
		if err != nil {
			return nil, nil, err
		}
		return src, noClose, nil
	case "serial":
		if cfg.SerialPort == "" {
			return nil, nil, fmt.Errorf("serial source needs SERIAL_PORT")
		}
		src, err := sensors.NewSerialSource(cfg.SerialPort, cfg.SerialBaudRate)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q (want mock, mpu9250 or serial)", kind)
	}
}

// RunProducer samples the chosen source every SAMPLE_PERIOD and publishes
// chunks of SAMPLE_CHUNK_SIZE samples to the samples topic.
func RunProducer(kind string) error {
	cfg := config.Get()
	log.Printf("producer: starting with %s source", kind)

	src, closeFn, err := OpenSource(kind, cfg)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	closeSrc := sync.OnceValue(closeFn)
	defer closeSrc()

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("producer: connected to MQTT, publishing to %s", cfg.TopicSamples)

	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "local"
	}
	chunker := NewChunker(hostname+"-"+kind, cfg.SamplePeriod, cfg.SampleChunkSize)

	// A serial device streams at its own rate; read it as it comes instead of
	// one line per tick so the port buffer never backs up.
	period := time.Duration(cfg.SamplePeriod * float64(time.Second))
	if kind == "serial" {
		period = 0
	}

	stop := make(chan struct{})
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Println("producer: shutting down")
		close(stop)
		closeSrc() // unblocks a pending serial read
	}()

	err = sampleLoop(src, period, stop, func(s motion.Sample, t time.Time) {
		chunk, ok := chunker.Add(s, t)
		if !ok {
			return
		}
		publishJSON(client, cfg.TopicSamples, false, chunk)
		log.WithField("source", chunk.Source).Debugf("producer: chunk %d last x=%.3f y=%.3f z=%.3f", chunk.Seq, s.X, s.Y, s.Z)
	})
	select {
	case <-stop:
		return nil
	default:
	}
	return err
}

// maxReadErrors is how many failed reads in a row a self-paced source may
// produce before the loop gives up.
const maxReadErrors = 100

// sampleLoop hands samples from src to emit until stop is closed or src
// reports io.EOF. With period > 0 it reads once per tick; with period 0 it
// reads as fast as src delivers.
func sampleLoop(src imu.SampleSource, period time.Duration, stop <-chan struct{}, emit func(motion.Sample, time.Time)) error {
	var tick <-chan time.Time
	if period > 0 {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		tick = ticker.C
	}

	failures := 0
	for {
		select {
		case <-stop:
			return nil
		default:
		}
		now := time.Now()
		if tick != nil {
			select {
			case <-stop:
				return nil
			case now = <-tick:
			}
		}

		s, err := src.NextSample()
		if errors.Is(err, io.EOF) {
			log.Println("producer: source closed")
			return nil
		}
		if err != nil {
			failures++
			log.Printf("producer: read error: %v", err)
			if tick == nil && failures >= maxReadErrors {
				return fmt.Errorf("%d read errors in a row: %w", failures, err)
			}
			continue
		}
		failures = 0
		if tick == nil {
			now = time.Now()
		}
		emit(s, now)
	}
}
