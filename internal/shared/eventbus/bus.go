package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"emr-metadata-dashboard/internal/shared/logger"

	"go.uber.org/zap"
)

// Event represents a generic event
type Event interface {
	Type() string
	Data() interface{}
	Timestamp() time.Time
	Source() string
}

// Handler defines the event handler function type
type Handler func(ctx context.Context, event Event) error

// Publisher is the narrow side of the bus used by use cases.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	PublishAndForget(ctx context.Context, event Event)
}

// EventBus is an in-process publish/subscribe hub.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   logger.Logger
	config   BusConfig
	inflight sync.WaitGroup
}

// BusConfig holds configuration for the event bus
type BusConfig struct {
	AsyncProcessing bool
	MaxRetries      int
	RetryDelay      time.Duration
}

// DefaultBusConfig dispatches synchronously and never retries.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		AsyncProcessing: false,
		MaxRetries:      0,
		RetryDelay:      100 * time.Millisecond,
	}
}

func NewEventBus(log logger.Logger) *EventBus {
	return NewEventBusWithConfig(log, DefaultBusConfig())
}

func NewEventBusWithConfig(log logger.Logger, config BusConfig) *EventBus {
	if log == nil {
		log = &noopLogger{}
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	return &EventBus{
		handlers: make(map[string][]Handler),
		logger:   log.WithComponent("eventbus"),
		config:   config,
	}
}

// Subscribe adds a handler for a specific event type
func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debug("handler subscribed", zap.String("event_type", eventType))
}

// Publish delivers event to every handler and returns the first failure.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	eb.mu.RLock()
	handlers := append([]Handler(nil), eb.handlers[event.Type()]...)
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		eb.logger.Debug("no handlers for event", zap.String("event_type", event.Type()))
		return nil
	}

	if eb.config.AsyncProcessing {
		return eb.publishAsync(ctx, event, handlers)
	}
	for i, h := range handlers {
		if err := eb.executeHandler(ctx, event, h, i); err != nil {
			return err
		}
	}
	return nil
}

func (eb *EventBus) publishAsync(ctx context.Context, event Event, handlers []Handler) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(handlers))

	for i, handler := range handlers {
		wg.Add(1)
		go func(h Handler, idx int) {
			defer wg.Done()
			if err := eb.executeHandler(ctx, event, h, idx); err != nil {
				errCh <- err
			}
		}(handler, i)
	}

	wg.Wait()
	close(errCh)
	return <-errCh
}

func (eb *EventBus) executeHandler(ctx context.Context, event Event, handler Handler, idx int) error {
	var lastErr error
	for attempt := 0; attempt <= eb.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(eb.config.RetryDelay):
			}
		}
		if lastErr = handler(ctx, event); lastErr == nil {
			return nil
		}
		eb.logger.Warn("event handler failed",
			zap.String("event_type", event.Type()),
			zap.Int("handler", idx),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
	}
	return fmt.Errorf("handler %d for %s failed after %d attempts: %w", idx, event.Type(), eb.config.MaxRetries+1, lastErr)
}

// PublishAndForget dispatches in the background. The event outlives the
// caller's request, so only the values of ctx are kept, not its cancellation.
func (eb *EventBus) PublishAndForget(ctx context.Context, event Event) {
	detached := context.WithoutCancel(ctx)
	eb.inflight.Add(1)
	go func() {
		defer eb.inflight.Done()
		if err := eb.Publish(detached, event); err != nil {
			eb.logger.Error("background event failed", zap.String("event_type", event.Type()), zap.Error(err))
		}
	}()
}

// Drain waits for background publishes to finish or ctx to expire.
func (eb *EventBus) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		eb.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (eb *EventBus) Unsubscribe(eventType string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	delete(eb.handlers, eventType)
}

func (eb *EventBus) GetSubscriberCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.handlers[eventType])
}

// BasicEvent implements the Event interface
type BasicEvent struct {
	eventType string
	data      interface{}
	timestamp time.Time
	source    string
}

func NewBasicEventWithSource(eventType string, data interface{}, source string) Event {
	return &BasicEvent{
		eventType: eventType,
		data:      data,
		timestamp: time.Now().UTC(),
		source:    source,
	}
}

func (e *BasicEvent) Type() string         { return e.eventType }
func (e *BasicEvent) Data() interface{}    { return e.data }
func (e *BasicEvent) Timestamp() time.Time { return e.timestamp }
func (e *BasicEvent) Source() string       { return e.source }

const (
	EventTypeVerificationRequested = "environment.verification_requested"
	EventTypeMetadataChanged       = "metadata.changed"
	EventTypeUserAuthenticated     = "user.authenticated"
)

type noopLogger struct{}

func (n *noopLogger) Debug(args ...interface{})                              {}
func (n *noopLogger) Info(args ...interface{})                               {}
func (n *noopLogger) Warn(args ...interface{})                               {}
func (n *noopLogger) Error(args ...interface{})                              {}
func (n *noopLogger) Fatal(args ...interface{})                              {}
func (n *noopLogger) Debugf(format string, args ...interface{})              {}
func (n *noopLogger) Infof(format string, args ...interface{})               {}
func (n *noopLogger) Warnf(format string, args ...interface{})               {}
func (n *noopLogger) Errorf(format string, args ...interface{})              {}
func (n *noopLogger) Fatalf(format string, args ...interface{})              {}
func (n *noopLogger) WithFields(fields map[string]interface{}) logger.Logger { return n }
func (n *noopLogger) WithContext(ctx context.Context) logger.Logger          { return n }
func (n *noopLogger) WithComponent(component string) logger.Logger           { return n }
