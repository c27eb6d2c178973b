package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesOnlyMatchingOrder(t *testing.T) {
	hub := NewHub()
	subA := hub.Subscribe(1)
	subB := hub.Subscribe(2)
	defer subA.Close()
	defer subB.Close()

	delivered := hub.Publish(Change{Event: EventOrderUpdate, OrderID: 1, OrderRef: "OR-010125-0001"})
	assert.Equal(t, 1, delivered)

	select {
	case change := <-subA.C:
		assert.Equal(t, "OR-010125-0001", change.OrderRef)
	default:
		t.Fatal("subscriber for order 1 got nothing")
	}

	select {
	case change := <-subB.C:
		t.Fatalf("subscriber for order 2 got %+v", change)
	default:
	}
}

func TestCloseReleasesSubscription(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(7)
	require.Equal(t, 1, hub.Subscribers(7))

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, hub.Subscribers(7))
	assert.Equal(t, 0, hub.Publish(Change{OrderID: 7}))

	_, ok := <-sub.C
	assert.False(t, ok)
}

func TestPublishDoesNotBlockOnFullBuffer(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(3)
	defer sub.Close()

	for i := 0; i < subscriptionBuffer+5; i++ {
		hub.Publish(Change{OrderID: 3})
	}
	assert.Len(t, sub.C, subscriptionBuffer)
}
