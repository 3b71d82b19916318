package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"
)

func TestWebLogger_BasicLogging(t *testing.T) {
	// Create a channel to receive console messages
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewWebLogger(zaptest.NewLogger(t).Sugar(), messageChan)

	logger.Infof("Committed %d instances", 4)

	select {
	case msg := <-messageChan:
		if msg.Message != "Committed 4 instances" {
			t.Errorf("Expected message 'Committed 4 instances', got '%s'", msg.Message)
		}
		if msg.Level != "info" {
			t.Errorf("Expected level 'info', got '%s'", msg.Level)
		}
		if time.Since(msg.Timestamp) > time.Second {
			t.Errorf("Timestamp seems too old: %v", msg.Timestamp)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Timeout waiting for console message")
	}
}

func TestWebLogger_Levels(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewWebLogger(zaptest.NewLogger(t).Sugar(), messageChan)

	logger.Debugf("a")
	logger.Warnf("b")

	want := []string{"debug", "warn"}
	for i, level := range want {
		select {
		case msg := <-messageChan:
			if msg.Level != level {
				t.Errorf("Message %d: expected level %s, got %s", i, level, msg.Level)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for message %d", i+1)
		}
	}
}

func TestWebLogger_ChannelFull(t *testing.T) {
	// Create a channel with capacity 1
	messageChan := make(chan ConsoleMessage, 1)
	logger := NewWebLogger(zaptest.NewLogger(t).Sugar(), messageChan)

	done := make(chan struct{})
	go func() {
		// The second and third messages must be dropped, not block
		for i := 0; i < 3; i++ {
			logger.Infof("Message %d", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Logging blocked on a full channel")
	}

	if len(messageChan) != 1 {
		t.Errorf("Expected 1 buffered message, got %d", len(messageChan))
	}
}

func TestConsole_Backlog(t *testing.T) {
	console := NewConsole(3)
	for i := 0; i < 5; i++ {
		console.Publish(ConsoleMessage{Message: fmt.Sprintf("m%d", i), Level: "info"})
	}

	messages := console.Messages()
	if len(messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(messages))
	}
	if messages[0].Message != "m2" || messages[2].Message != "m4" {
		t.Errorf("Expected m2..m4, got %s..%s", messages[0].Message, messages[2].Message)
	}
}

func TestConsole_Run(t *testing.T) {
	console := NewConsole(10)
	messages := make(chan ConsoleMessage)
	done := make(chan struct{})
	go func() {
		console.Run(messages)
		close(done)
	}()

	messages <- ConsoleMessage{Message: "hello"}
	close(messages)
	<-done

	if got := console.Messages(); len(got) != 1 || got[0].Message != "hello" {
		t.Errorf("Expected one 'hello' message, got %v", got)
	}
}

func TestConsole_WebSocket(t *testing.T) {
	console := NewConsole(10)
	console.Publish(ConsoleMessage{Message: "before", Level: "info"})

	ts := httptest.NewServer(http.HandlerFunc(console.HandleWebSocket))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg ConsoleMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read backlog: %v", err)
	}
	if msg.Message != "before" {
		t.Errorf("Expected backlog message 'before', got '%s'", msg.Message)
	}

	// Registration and the backlog replay happen together
	deadline := time.Now().Add(time.Second)
	for console.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if console.Clients() != 1 {
		t.Fatalf("Expected 1 client, got %d", console.Clients())
	}

	console.Publish(ConsoleMessage{Message: "after", Level: "warn"})
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read live message: %v", err)
	}
	if msg.Message != "after" || msg.Level != "warn" {
		t.Errorf("Expected live warn message 'after', got %s '%s'", msg.Level, msg.Message)
	}
}

func TestConsole_SlowClientDoesNotBlock(t *testing.T) {
	console := NewConsole(10)
	console.Publish(ConsoleMessage{Message: "before"})

	// A client that never drains its queue
	stuck := &consoleClient{}
	console.register(stuck)
	if console.Clients() != 1 {
		t.Fatalf("Expected 1 client, got %d", console.Clients())
	}

	done := make(chan struct{})
	go func() {
		for i := 0; i < clientBuffer+5; i++ {
			console.Publish(ConsoleMessage{Message: fmt.Sprintf("m%d", i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a client that is not reading")
	}

	if console.Clients() != 0 {
		t.Errorf("Expected the stuck client to be dropped, got %d clients", console.Clients())
	}
	if got := console.Messages(); len(got) != 10 {
		t.Errorf("Expected a full backlog of 10, got %d", len(got))
	}

	// The dropped client's queue holds what it had room for, then ends
	n := 0
	for range stuck.send {
		n++
	}
	if n != 1+clientBuffer {
		t.Errorf("Expected %d queued messages, got %d", 1+clientBuffer, n)
	}
}
