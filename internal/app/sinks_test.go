package app

import (
	"bytes"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/motion_monitor/internal/imu"
	"github.com/relabs-tech/motion_monitor/internal/motion"
)

// startBroker spins up an in-process MQTT broker on a free port.
func startBroker(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	broker := mochi.New(nil)
	require.NoError(t, broker.AddHook(new(auth.AllowHook), nil))
	require.NoError(t, broker.AddListener(listeners.NewTCP(listeners.Config{
		Type:    "tcp",
		ID:      "test",
		Address: addr,
	})))
	require.NoError(t, broker.Serve())
	t.Cleanup(func() { broker.Close() })

	return "tcp://" + addr
}

func connect(t *testing.T, broker, id string) mqtt.Client {
	t.Helper()
	client := mqtt.NewClient(mqtt.NewClientOptions().AddBroker(broker).SetClientID(id))
	token := client.Connect()
	require.True(t, token.WaitTimeout(5*time.Second))
	require.NoError(t, token.Error())
	t.Cleanup(func() { client.Disconnect(100) })
	return client
}

func subscribe(t *testing.T, client mqtt.Client, topic string, cb mqtt.MessageHandler) {
	t.Helper()
	token := client.Subscribe(topic, 0, cb)
	require.True(t, token.WaitTimeout(5*time.Second))
	require.NoError(t, token.Error())
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFanout(t *testing.T) {
	a, b := &recorders{}, &recorders{}
	sink := Fanout(a.factory(), nil, b.factory())("s1")

	motion.Deliver(sink, motion.MotionEvent{Event: motion.EventStartPositive, Message: "go", Color: motion.ColorPositive})

	for _, r := range []*recorders{a, b} {
		got := r.get("s1")
		require.NotNil(t, got)
		assert.Equal(t, []motion.Color{motion.ColorPositive}, got.colors)
		assert.Equal(t, []string{"go"}, got.Logs())
	}
}

func TestMQTTSinkPublishesIndicatorAndLog(t *testing.T) {
	broker := startBroker(t)
	pub := connect(t, broker, "sink-pub")
	sub := connect(t, broker, "sink-sub")

	got := make(chan string, 8)
	subscribe(t, sub, "motion/indicator/#", func(_ mqtt.Client, m mqtt.Message) {
		got <- fmt.Sprintf("%s=%s", m.Topic(), m.Payload())
	})

	sink := MQTTSinks(pub, "motion/indicator", motion.DefaultPalette())("s1")
	sink.SetIndicator(motion.ColorPositive)
	sink.SetIndicator(motion.ColorPositive) // unchanged, not republished
	sink.AppendLogMessage("Movement at slope 3.00")
	sink.SetIndicator(motion.ColorNegative)

	want := []string{
		"motion/indicator/s1=green",
		"motion/indicator/s1/log=Movement at slope 3.00",
		"motion/indicator/s1=red",
	}
	var seen []string
	for range want {
		select {
		case m := <-got:
			seen = append(seen, m)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out, got %v", seen)
		}
	}
	assert.ElementsMatch(t, want, seen)

	select {
	case m := <-got:
		t.Fatalf("unexpected extra message %s", m)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestConsoleReceivesEvents(t *testing.T) {
	broker := startBroker(t)
	pub := connect(t, broker, "events-pub")
	sub := connect(t, broker, "events-sub")

	var out syncBuffer
	subscribe(t, sub, "motion/events", ConsoleHandler(&out))

	publishJSON(pub, "motion/events", false, imu.EventMessage{
		Source:    "rig",
		Seq:       7,
		Event:     "start_positive",
		Trigger:   1,
		Message:   "Movement at slope 3.00",
		Indicator: "green",
		State:     "in_motion_positive",
		Slope:     motion.SlopeEstimate{X: 3},
	})

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Movement at slope 3.00")
	}, 5*time.Second, 20*time.Millisecond)
	line := out.String()
	assert.True(t, strings.HasPrefix(line, "[EVENT] rig #7 start_positive"), line)
	assert.Contains(t, line, "led=green")
}

func TestFormatEventWithoutMessage(t *testing.T) {
	line := FormatEvent(imu.EventMessage{Source: "rig", Seq: 1, Event: "none", State: "idle"})
	assert.True(t, strings.HasSuffix(line, "  -"), line)
}
