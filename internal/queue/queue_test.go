package queue

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-booking/internal/config"
)

func TestNewSeatEvent_CopiesSeatIDs(t *testing.T) {
	seats := []uint64{1, 2}
	ev := NewSeatEvent(SeatsReserved, 7, seats)
	seats[0] = 99

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, []uint64{1, 2}, ev.SeatIDs)
	assert.Equal(t, []byte("user-7"), ev.Key())
	assert.False(t, ev.OccurredAt.IsZero())
}

func TestDecodeEvent(t *testing.T) {
	body, err := json.Marshal(NewSeatEvent(SeatsReleased, 3, []uint64{4}))
	require.NoError(t, err)
	ev, err := decodeEvent(body)
	require.NoError(t, err)
	assert.Equal(t, SeatsReleased, ev.Type)
	assert.Equal(t, uint64(3), ev.RequesterID)

	for name, raw := range map[string]string{
		"not json":     `{`,
		"missing id":   `{"type":"seats.reserved"}`,
		"unknown type": `{"id":"x","type":"seats.sold"}`,
	} {
		_, err := decodeEvent([]byte(raw))
		assert.Error(t, err, name)
	}
}

func TestNewPublisher_SelectsDriver(t *testing.T) {
	log := hclog.NewNullLogger()

	assert.IsType(t, Noop{}, NewPublisher(config.EventsConfig{Driver: config.EventsNone}, log))
	assert.IsType(t, &AMQPPublisher{}, NewPublisher(config.EventsConfig{Driver: config.EventsAMQP, AMQPURL: "amqp://localhost", Queue: "q"}, log))

	kp := NewPublisher(config.EventsConfig{Driver: config.EventsKafka, KafkaBrokers: []string{"localhost:9092"}, Topic: "t"}, log)
	require.IsType(t, &KafkaPublisher{}, kp)
	assert.Equal(t, "t", kp.(*KafkaPublisher).Writer.Topic)
	assert.NoError(t, kp.Close())
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), NewSeatEvent(SeatsReserved, 1, nil)))
	assert.NoError(t, p.Close())
}

func TestAuditLog_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "booking.log")
	a, err := OpenAuditLog(path)
	require.NoError(t, err)

	require.NoError(t, a.Handle(context.Background(), NewSeatEvent(SeatsReserved, 5, []uint64{1, 2, 3})))
	require.NoError(t, a.Handle(context.Background(), NewSeatEvent(SeatsReleased, 5, []uint64{1, 2, 3})))
	require.NoError(t, a.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "Seats reserved", lines[0]["@message"])
	assert.Equal(t, "Seats released", lines[1]["@message"])
	assert.EqualValues(t, 5, lines[0]["user_id"])
	assert.EqualValues(t, 3, lines[0]["count"])
}

// silentBroker accepts TCP connections and never speaks AMQP.
func silentBroker(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return "amqp://guest:guest@" + ln.Addr().String() + "/"
}

func TestAMQPPublisher_HonoursDeadlineWhenBrokerHangs(t *testing.T) {
	p := NewAMQPPublisher(silentBroker(t), "seat-events", hclog.NewNullLogger())
	defer p.Close()

	start := time.Now()
	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
			defer cancel()
			errs[i] = p.Publish(ctx, NewSeatEvent(SeatsReserved, 1, []uint64{1}))
		}(i)
	}
	wg.Wait()

	assert.Less(t, time.Since(start), 3*time.Second)
	for _, err := range errs {
		assert.Error(t, err)
	}
}

func TestAMQPPublisher_ExpiredContextDoesNotDial(t *testing.T) {
	p := NewAMQPPublisher(silentBroker(t), "seat-events", hclog.NewNullLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Publish(ctx, NewSeatEvent(SeatsReleased, 1, []uint64{1}))
	assert.ErrorIs(t, err, context.Canceled)
}
