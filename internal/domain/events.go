package domain

import (
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// EventType discriminates the closed set of domain events this service
// produces and consumes. The wire payload carries it in the "type" field.
type EventType string

const (
	EventProductLiked         EventType = "product-liked"
	EventProductUnliked       EventType = "product-unliked"
	EventProductViewed        EventType = "product-viewed"
	EventProductStockDepleted EventType = "product-stock-depleted"
	EventOrderCreated         EventType = "order-created"
	EventOrderPaid            EventType = "order-paid"
)

// Topic maps an event type to its Kafka topic. One topic per event type.
func (t EventType) Topic() string {
	return string(t) + "-events"
}

// EventTypeForTopic is the inverse of Topic, used by the consumer to pick a
// decoder for an incoming message.
func EventTypeForTopic(topic string) (EventType, bool) {
	for _, t := range []EventType{
		EventProductLiked, EventProductUnliked, EventProductViewed,
		EventProductStockDepleted, EventOrderCreated, EventOrderPaid,
	} {
		if t.Topic() == topic {
			return t, true
		}
	}
	return "", false
}

// NewEventID builds a globally unique, producer-assigned event identifier.
func NewEventID(eventType EventType, aggregateKey string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%d", eventType, aggregateKey, at.UnixMilli())
}

// Event is the sum type over all domain event variants. Consumers dispatch on
// the concrete type; new variants extend the switch, not a type hierarchy.
type Event interface {
	Type() EventType
	ID() string
	PartitionKey() string
	OccurredAt() time.Time
}

type eventHeader struct {
	EventID   string    `json:"eventId"`
	EventType EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func (h eventHeader) ID() string            { return h.EventID }
func (h eventHeader) Type() EventType       { return h.EventType }
func (h eventHeader) OccurredAt() time.Time { return h.Timestamp }

type ProductLiked struct {
	eventHeader
	ProductID int64 `json:"productId"`
	UserID    int64 `json:"userId"`
}

type ProductUnliked struct {
	eventHeader
	ProductID int64 `json:"productId"`
	UserID    int64 `json:"userId"`
}

type ProductViewed struct {
	eventHeader
	ProductID int64 `json:"productId"`
	UserID    int64 `json:"userId"`
}

type ProductStockDepleted struct {
	eventHeader
	ProductID      int64 `json:"productId"`
	RemainingStock int   `json:"remainingStock"`
}

// OrderItem is one line of an order event; ranking rewards every line.
type OrderItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type OrderCreated struct {
	eventHeader
	OrderKey      string      `json:"orderKey"`
	UserID        int64       `json:"userId"`
	OrderID       int64       `json:"orderId"`
	TotalPrice    int64       `json:"totalPrice"`
	DiscountPrice int64       `json:"discountPrice"`
	Items         []OrderItem `json:"orderItems"`
}

type OrderPaid struct {
	eventHeader
	OrderKey   string      `json:"orderKey"`
	UserID     int64       `json:"userId"`
	OrderID    int64       `json:"orderId"`
	TotalPrice int64       `json:"totalPrice"`
	Items      []OrderItem `json:"orderItems"`
}

func (e ProductLiked) PartitionKey() string         { return strconv.FormatInt(e.ProductID, 10) }
func (e ProductUnliked) PartitionKey() string       { return strconv.FormatInt(e.ProductID, 10) }
func (e ProductViewed) PartitionKey() string        { return strconv.FormatInt(e.ProductID, 10) }
func (e ProductStockDepleted) PartitionKey() string { return strconv.FormatInt(e.ProductID, 10) }
func (e OrderCreated) PartitionKey() string         { return e.OrderKey }
func (e OrderPaid) PartitionKey() string            { return e.OrderKey }

func newHeader(eventType EventType, aggregateKey string, at time.Time) eventHeader {
	return eventHeader{
		EventID:   NewEventID(eventType, aggregateKey, at),
		EventType: eventType,
		Timestamp: at,
	}
}

func NewProductLiked(productID, userID int64, at time.Time) ProductLiked {
	return ProductLiked{
		eventHeader: newHeader(EventProductLiked, strconv.FormatInt(productID, 10), at),
		ProductID:   productID,
		UserID:      userID,
	}
}

func NewProductUnliked(productID, userID int64, at time.Time) ProductUnliked {
	return ProductUnliked{
		eventHeader: newHeader(EventProductUnliked, strconv.FormatInt(productID, 10), at),
		ProductID:   productID,
		UserID:      userID,
	}
}

func NewProductViewed(productID, userID int64, at time.Time) ProductViewed {
	return ProductViewed{
		eventHeader: newHeader(EventProductViewed, strconv.FormatInt(productID, 10), at),
		ProductID:   productID,
		UserID:      userID,
	}
}

func NewProductStockDepleted(productID int64, remainingStock int, at time.Time) ProductStockDepleted {
	return ProductStockDepleted{
		eventHeader:    newHeader(EventProductStockDepleted, strconv.FormatInt(productID, 10), at),
		ProductID:      productID,
		RemainingStock: remainingStock,
	}
}

func NewOrderCreated(orderKey string, userID, orderID, totalPrice, discountPrice int64, items []OrderItem, at time.Time) OrderCreated {
	return OrderCreated{
		eventHeader:   newHeader(EventOrderCreated, orderKey, at),
		OrderKey:      orderKey,
		UserID:        userID,
		OrderID:       orderID,
		TotalPrice:    totalPrice,
		DiscountPrice: discountPrice,
		Items:         items,
	}
}

func NewOrderPaid(orderKey string, userID, orderID, totalPrice int64, items []OrderItem, at time.Time) OrderPaid {
	return OrderPaid{
		eventHeader: newHeader(EventOrderPaid, orderKey, at),
		OrderKey:    orderKey,
		UserID:      userID,
		OrderID:     orderID,
		TotalPrice:  totalPrice,
		Items:       items,
	}
}

// EncodeEvent serializes an event into its wire payload.
func EncodeEvent(event Event) ([]byte, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", event.Type(), err)
	}
	return raw, nil
}

// DecodeEvent parses a wire payload into its concrete variant, using the
// payload's own "type" discriminator and falling back to the topic-derived
// type when the field is absent.
func DecodeEvent(topic string, payload []byte) (Event, error) {
	var head eventHeader
	if err := json.Unmarshal(payload, &head); err != nil {
		return nil, fmt.Errorf("%w: malformed event payload", ErrInvalidInput)
	}
	eventType := head.EventType
	if eventType == "" {
		derived, ok := EventTypeForTopic(topic)
		if !ok {
			return nil, fmt.Errorf("%w: unknown topic %q", ErrInvalidInput, topic)
		}
		eventType = derived
	}
	if head.EventID == "" {
		return nil, fmt.Errorf("%w: missing eventId", ErrInvalidInput)
	}

	decode := func(target Event) (Event, error) {
		if err := json.Unmarshal(payload, target); err != nil {
			return nil, fmt.Errorf("%w: malformed %s payload", ErrInvalidInput, eventType)
		}
		return target, nil
	}

	switch eventType {
	case EventProductLiked:
		evt := &ProductLiked{}
		evt.EventType = eventType
		return decode(evt)
	case EventProductUnliked:
		evt := &ProductUnliked{}
		evt.EventType = eventType
		return decode(evt)
	case EventProductViewed:
		evt := &ProductViewed{}
		evt.EventType = eventType
		return decode(evt)
	case EventProductStockDepleted:
		evt := &ProductStockDepleted{}
		evt.EventType = eventType
		return decode(evt)
	case EventOrderCreated:
		evt := &OrderCreated{}
		evt.EventType = eventType
		return decode(evt)
	case EventOrderPaid:
		evt := &OrderPaid{}
		evt.EventType = eventType
		return decode(evt)
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidInput, eventType)
	}
}
