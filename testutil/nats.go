package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// MockNATSClient is a simple in-memory NATS client for testing.
// It matches the natsclient.Client surface the annotation service
// depends on: Publish, Subscribe, and QueueSubscribe.
// Thread-safe for concurrent use from multiple goroutines.
type MockNATSClient struct {
	mu            sync.RWMutex
	messages      map[string][][]byte
	subscriptions map[string][]mockSubscription
	queueNext     map[string]int
	closed        bool
	unhealthy     bool
	publishErr    error
}

type mockSubscription struct {
	queue   string
	handler func(context.Context, []byte)
}

// NewMockNATSClient creates a new mock NATS client.
func NewMockNATSClient() *MockNATSClient {
	return &MockNATSClient{
		messages:      make(map[string][][]byte),
		subscriptions: make(map[string][]mockSubscription),
		queueNext:     make(map[string]int),
	}
}

// Publish publishes a message to a subject and delivers it to
// subscribers. Plain subscriptions all receive the message; each queue
// group receives it on exactly one member, rotating through the group.
func (c *MockNATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("client is closed")
	}
	if c.publishErr != nil {
		err := c.publishErr
		c.mu.Unlock()
		return err
	}

	c.messages[subject] = append(c.messages[subject], data)

	// Pick handlers under the lock, call them outside it.
	var handlers []func(context.Context, []byte)
	byQueue := make(map[string][]func(context.Context, []byte))
	for _, sub := range c.subscriptions[subject] {
		if sub.queue == "" {
			handlers = append(handlers, sub.handler)
			continue
		}
		byQueue[sub.queue] = append(byQueue[sub.queue], sub.handler)
	}
	for queue, members := range byQueue {
		key := subject + "|" + queue
		next := c.queueNext[key] % len(members)
		c.queueNext[key] = next + 1
		handlers = append(handlers, members[next])
	}
	c.mu.Unlock()

	// Per-message context with a 30s ceiling, matching the real client.
	for _, handler := range handlers {
		msgCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		handler(msgCtx, data)
		cancel()
	}

	return nil
}

// Subscribe registers a handler for every message on a subject.
func (c *MockNATSClient) Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) error {
	return c.subscribe(ctx, subject, "", handler)
}

// QueueSubscribe registers a handler as a member of a queue group on a
// subject. Each message goes to one member of the group.
func (c *MockNATSClient) QueueSubscribe(ctx context.Context, subject, queue string, handler func(context.Context, []byte)) error {
	return c.subscribe(ctx, subject, queue, handler)
}

func (c *MockNATSClient) subscribe(ctx context.Context, subject, queue string, handler func(context.Context, []byte)) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}

	c.subscriptions[subject] = append(c.subscriptions[subject], mockSubscription{queue: queue, handler: handler})
	return nil
}

// GetMessages returns a copy of all messages published to a subject.
func (c *MockNATSClient) GetMessages(subject string) [][]byte {
	c.mu.RLock()
	defer c.mu.RUnlock()

	msgs := c.messages[subject]
	if msgs == nil {
		return nil
	}
	result := make([][]byte, len(msgs))
	copy(result, msgs)
	return result
}

// GetMessageCount returns the number of messages on a subject.
func (c *MockNATSClient) GetMessageCount(subject string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages[subject])
}

// Clear clears all messages from a subject.
func (c *MockNATSClient) Clear(subject string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages[subject] = nil
}

// ClearAll clears all messages from all subjects.
func (c *MockNATSClient) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = make(map[string][][]byte)
}

// Close closes the mock client. Further publishes and subscribes fail.
func (c *MockNATSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// IsClosed returns whether the client is closed.
func (c *MockNATSClient) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// IsHealthy reports whether the mock considers itself connected.
// Healthy unless closed or toggled via SetHealthy.
func (c *MockNATSClient) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed && !c.unhealthy
}

// SetHealthy toggles the health state reported by IsHealthy.
func (c *MockNATSClient) SetHealthy(healthy bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unhealthy = !healthy
}

// SetPublishError forces every subsequent Publish to fail with err.
// Pass nil to restore normal behavior.
func (c *MockNATSClient) SetPublishError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishErr = err
}

// WaitForMessage polls until a message arrives on a subject and
// returns the latest one, failing the test on timeout.
func WaitForMessage(t *testing.T, client *MockNATSClient, subject string, timeout time.Duration) []byte {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("timeout waiting for message on subject %s", subject)
			return nil
		case <-ticker.C:
			messages := client.GetMessages(subject)
			if len(messages) > 0 {
				return messages[len(messages)-1]
			}
		}
	}
}

// WaitForMessageCount polls until a subject holds at least count
// messages, failing the test on timeout.
func WaitForMessageCount(t *testing.T, client *MockNATSClient, subject string, count int, timeout time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			got := client.GetMessageCount(subject)
			t.Fatalf("timeout waiting for %d messages on subject %s (got %d)", count, subject, got)
			return
		case <-ticker.C:
			if client.GetMessageCount(subject) >= count {
				return
			}
		}
	}
}

// AssertMessageReceived checks that a message was received on a subject.
func AssertMessageReceived(t *testing.T, client *MockNATSClient, subject string) {
	t.Helper()

	if client.GetMessageCount(subject) == 0 {
		t.Fatalf("expected message on subject %s, got none", subject)
	}
}

// AssertNoMessages checks that no messages were received on a subject.
func AssertNoMessages(t *testing.T, client *MockNATSClient, subject string) {
	t.Helper()

	if n := client.GetMessageCount(subject); n > 0 {
		t.Fatalf("expected no messages on subject %s, got %d", subject, n)
	}
}
