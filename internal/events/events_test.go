package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

func TestWatermillPublisherGoChannel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	pubsub := NewGoChannel(logger)
	defer pubsub.Close()

	publisher := NewWatermillPublisher(pubsub, "test.", logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, err := pubsub.Subscribe(ctx, publisher.Topic(ExamSubmitted))
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	event := NewEvent(ExamSubmitted, ExamSubmittedData{ResultID: 1, StudentID: 2, ExamID: 3, Score: 4, TotalPoints: 5})
	if err := publisher.Publish(ctx, event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-messages:
		defer msg.Ack()
		if msg.UUID != event.ID {
			t.Errorf("message uuid = %s, want %s", msg.UUID, event.ID)
		}
		if got := msg.Metadata.Get("event_type"); got != ExamSubmitted {
			t.Errorf("event_type metadata = %q", got)
		}
		var decoded struct {
			Type string            `json:"type"`
			Data ExamSubmittedData `json:"data"`
		}
		if err := json.Unmarshal(msg.Payload, &decoded); err != nil {
			t.Fatal(err)
		}
		if decoded.Type != ExamSubmitted || decoded.Data.Score != 4 {
			t.Errorf("decoded = %+v", decoded)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestRunAuditLog(t *testing.T) {
	var buf syncBuffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	pubsub := NewGoChannel(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	wait, err := RunAuditLog(ctx, pubsub, "elamid.", logger)
	if err != nil {
		t.Fatalf("RunAuditLog() error = %v", err)
	}

	publisher := NewWatermillPublisher(pubsub, "elamid.", logger)
	if err := publisher.Publish(ctx, NewEvent(StudentLoggedIn, StudentLoginData{StudentID: 7})); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(buf.String(), `"event_type":"student.logged_in"`) {
		if time.Now().After(deadline) {
			t.Fatalf("audit line not written, log = %s", buf.String())
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	pubsub.Close()
	wait()
}

func TestRunAuditLogSkipsMalformedPayload(t *testing.T) {
	var buf syncBuffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	pubsub := NewGoChannel(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	wait, err := RunAuditLog(ctx, pubsub, "elamid.", logger)
	if err != nil {
		t.Fatalf("RunAuditLog() error = %v", err)
	}

	topic := "elamid." + ExamSubmitted
	if err := pubsub.Publish(topic, message.NewMessage(watermill.NewUUID(), []byte("not json"))); err != nil {
		t.Fatal(err)
	}
	publisher := NewWatermillPublisher(pubsub, "elamid.", logger)
	if err := publisher.Publish(ctx, NewEvent(ExamSubmitted, ExamSubmittedData{ResultID: 3})); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(buf.String(), `"event_type":"exam.submitted"`) {
		if time.Now().After(deadline) {
			t.Fatalf("event after a malformed one was not logged, log = %s", buf.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !strings.Contains(buf.String(), "Discarding malformed event") {
		t.Errorf("malformed payload not reported, log = %s", buf.String())
	}

	cancel()
	pubsub.Close()
	wait()
}

func TestMockEventPublisher(t *testing.T) {
	mock := NewMockEventPublisher(slog.Default())
	ctx := context.Background()

	mock.Publish(ctx, NewEvent(StudentLoggedIn, nil))
	mock.Publish(ctx, NewEvent(ExamSubmitted, nil))

	if n := len(mock.GetPublishedEvents()); n != 2 {
		t.Errorf("published = %d, want 2", n)
	}
	if n := len(mock.EventsOfType(ExamSubmitted)); n != 1 {
		t.Errorf("exam events = %d, want 1", n)
	}

	e := mock.GetPublishedEvents()[0]
	if e.ID == "" || e.Source != "elamid-api" || e.Version != "1.0" || e.Timestamp.IsZero() {
		t.Errorf("event envelope = %+v", e)
	}

	mock.ClearEvents()
	if n := len(mock.GetPublishedEvents()); n != 0 {
		t.Errorf("after clear = %d", n)
	}

	mock.Err = errors.New("broker down")
	if err := mock.Publish(ctx, NewEvent(StudentLoggedIn, nil)); err == nil {
		t.Error("Publish() should return configured error")
	}
}

func TestKafkaPublisherIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("KAFKA_BROKERS not set")
	}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	kafkaPublisher, err := NewKafkaPublisher(strings.Split(brokers, ","), logger)
	if err != nil {
		t.Fatalf("NewKafkaPublisher() error = %v", err)
	}
	publisher := NewWatermillPublisher(kafkaPublisher, "elamid-test.", logger)
	defer publisher.Close()

	if err := publisher.Publish(context.Background(), NewEvent(ExamSubmitted, ExamSubmittedData{ResultID: 1})); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
}
