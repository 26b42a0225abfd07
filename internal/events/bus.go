package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventSignalGenerated   EventType = "SIGNAL_GENERATED"
	EventTradeExecuted     EventType = "TRADE_EXECUTED"
	EventTradeClosed       EventType = "TRADE_CLOSED"
	EventPositionUpdate    EventType = "POSITION_UPDATE"
	EventPortfolioSnapshot EventType = "PORTFOLIO_SNAPSHOT"
	EventRiskBreach        EventType = "RISK_BREACH"
	EventScanCompleted     EventType = "SCAN_COMPLETED"
	EventError             EventType = "ERROR"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber // Subscribers to all events
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	// Set timestamp if not provided
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Notify specific subscribers
	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event) // Run in goroutine to avoid blocking
		}
	}

	// Notify all-event subscribers
	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishSignalGenerated publishes a signal generated event
func (eb *EventBus) PublishSignalGenerated(symbol, signalType string, confidence float64, regime string) {
	eb.Publish(Event{
		Type: EventSignalGenerated,
		Data: map[string]interface{}{
			"symbol":      symbol,
			"signal_type": signalType,
			"confidence":  confidence,
			"regime":      regime,
		},
	})
}

// PublishTradeExecuted publishes a trade executed event
func (eb *EventBus) PublishTradeExecuted(tradeID, symbol, signalType string, entryPrice float64, quantity int) {
	eb.Publish(Event{
		Type: EventTradeExecuted,
		Data: map[string]interface{}{
			"trade_id":    tradeID,
			"symbol":      symbol,
			"signal_type": signalType,
			"entry_price": entryPrice,
			"quantity":    quantity,
		},
	})
}

// PublishTradeClosed publishes a trade closed event
func (eb *EventBus) PublishTradeClosed(symbol string, exitPrice, pnl float64, reason string) {
	eb.Publish(Event{
		Type: EventTradeClosed,
		Data: map[string]interface{}{
			"symbol":     symbol,
			"exit_price": exitPrice,
			"pnl":        pnl,
			"reason":     reason,
		},
	})
}

// PublishPositionUpdate publishes a position update event
func (eb *EventBus) PublishPositionUpdate(symbol string, currentPrice, unrealizedPnL float64) {
	eb.Publish(Event{
		Type: EventPositionUpdate,
		Data: map[string]interface{}{
			"symbol":         symbol,
			"current_price":  currentPrice,
			"unrealized_pnl": unrealizedPnL,
		},
	})
}

// PublishRiskBreach publishes a risk breach event
func (eb *EventBus) PublishRiskBreach(symbol, reason string) {
	eb.Publish(Event{
		Type: EventRiskBreach,
		Data: map[string]interface{}{
			"symbol": symbol,
			"reason": reason,
		},
	})
}

// PublishScanCompleted publishes a scan completed event
func (eb *EventBus) PublishScanCompleted(scanID string, symbolsScanned, signalsFound int) {
	eb.Publish(Event{
		Type: EventScanCompleted,
		Data: map[string]interface{}{
			"scan_id":         scanID,
			"symbols_scanned": symbolsScanned,
			"signals_found":   signalsFound,
		},
	})
}

// PublishError publishes an error event
func (eb *EventBus) PublishError(component, message string) {
	eb.Publish(Event{
		Type: EventError,
		Data: map[string]interface{}{
			"component": component,
			"message":   message,
		},
	})
}
