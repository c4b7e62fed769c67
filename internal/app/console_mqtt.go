package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/motion_monitor/internal/config"
	"github.com/relabs-tech/motion_monitor/internal/imu"
)

// FormatEvent renders one event message as a console line.
func FormatEvent(m imu.EventMessage) string {
	text := m.Message
	if text == "" {
		text = "-"
	}
	return fmt.Sprintf(
		"[EVENT] %s #%d %-14s trig=%2d led=%-6s state=%-18s slope x=%7.3f y=%7.3f z=%7.3f  %s",
		m.Source, m.Seq, m.Event, m.Trigger, m.Indicator, m.State, m.Slope.X, m.Slope.Y, m.Slope.Z, text,
	)
}

// ConsoleHandler returns the MQTT callback that prints events to w.
func ConsoleHandler(w io.Writer) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		var m imu.EventMessage
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Printf("console: event unmarshal error: %v", err)
			return
		}
		fmt.Fprintln(w, FormatEvent(m))
	}
}

func RunConsoleMQTT() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	eventsToken := client.Subscribe(cfg.TopicEvents, 0, ConsoleHandler(os.Stdout))
	eventsToken.Wait()
	if eventsToken.Error() != nil {
		return eventsToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicEvents)

	// Indicator is retained per source under TOPIC_INDICATOR/<source>; log
	// lines go to .../log.
	ledToken := client.Subscribe(cfg.TopicIndicator+"/+", 0, func(_ mqtt.Client, msg mqtt.Message) {
		fmt.Printf("[LED  ] %s -> %s\n", msg.Topic(), msg.Payload())
	})
	ledToken.Wait()
	if ledToken.Error() != nil {
		return ledToken.Error()
	}
	log.Printf("console: subscribed to %s/+", cfg.TopicIndicator)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
