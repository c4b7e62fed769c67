// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/motion_monitor/internal/motion"
)

// SinkFactory returns the feedback sink for one stream.
type SinkFactory func(source string) motion.FeedbackSink

// multiSink fans every call out to all of its sinks.
type multiSink []motion.FeedbackSink

func (m multiSink) SetIndicator(c motion.Color) {
	for _, s := range m {
		s.SetIndicator(c)
	}
}

func (m multiSink) AppendLogMessage(msg string) {
	for _, s := range m {
		s.AppendLogMessage(msg)
	}
}

// Fanout combines several factories into one.
func Fanout(factories ...SinkFactory) SinkFactory {
	return func(source string) motion.FeedbackSink {
		sinks := make(multiSink, 0, len(factories))
		for _, f := range factories {
			if f != nil {
				sinks = append(sinks, f(source))
			}
		}
		return sinks
	}
}

// logSink writes log messages through logrus and indicator changes at debug level.
type logSink struct {
	entry   *log.Entry
	palette motion.Palette
	last    motion.Color
	set     bool
}

// LogSinks logs each stream's messages with a source field.
func LogSinks(palette motion.Palette) SinkFactory {
	return func(source string) motion.FeedbackSink {
		return &logSink{entry: log.WithField("source", source), palette: palette}
	}
}

func (l *logSink) SetIndicator(c motion.Color) {
	if l.set && l.last == c {
		return
	}
	l.last, l.set = c, true
	l.entry.Debugf("indicator: %s", l.palette.Name(c))
}

func (l *logSink) AppendLogMessage(msg string) {
	l.entry.Infof("motion: %s", msg)
}

// mqttSink publishes the indicator (retained) and log lines for one stream
// under <topic>/<source>.
type mqttSink struct {
	client  mqtt.Client
	topic   string
	palette motion.Palette
	last    motion.Color
	set     bool
}

// MQTTSinks publishes indicator and log lines below topic.
func MQTTSinks(client mqtt.Client, topic string, palette motion.Palette) SinkFactory {
	return func(source string) motion.FeedbackSink {
		return &mqttSink{client: client, topic: topic + "/" + source, palette: palette}
	}
}

func (m *mqttSink) SetIndicator(c motion.Color) {
	if m.set && m.last == c {
		return
	}
	m.last, m.set = c, true
	m.publish(m.topic, true, m.palette.Name(c))
}

func (m *mqttSink) AppendLogMessage(msg string) {
	m.publish(m.topic+"/log", false, msg)
}

// publish does not wait for the broker; sinks are fire-and-forget.
func (m *mqttSink) publish(topic string, retained bool, payload string) {
	token := m.client.Publish(topic, 0, retained, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Printf("MQTT publish error (%s): %v", topic, token.Error())
		}
	}()
}
