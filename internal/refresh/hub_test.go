package refresh

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/milkdesk/internal/constants"

	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case evt := <-sub.C():
		return evt
	case <-time.After(time.Second):
		t.Fatalf("expected event")
	}
	return Event{}
}

func assertEmpty(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case evt := <-sub.C():
		t.Fatalf("unexpected event: %+v", evt)
	default:
	}
}

func TestHubDeliversOnlySubscribedTopics(t *testing.T) {
	hub := NewHub(4)
	orders := hub.Subscribe(constants.RefreshTopicOrders)
	everything := hub.Subscribe()

	hub.Publish(constants.RefreshTopicCustomers)
	assertEmpty(t, orders)
	require.Equal(t, constants.RefreshTopicCustomers, receive(t, everything).Topic)

	hub.Publish(constants.RefreshTopicOrders, constants.RefreshTopicOrders)
	require.Equal(t, constants.RefreshTopicOrders, receive(t, orders).Topic)
	assertEmpty(t, orders)
	require.Equal(t, constants.RefreshTopicOrders, receive(t, everything).Topic)
}

func TestHubAllTopicReachesEverySubscriber(t *testing.T) {
	hub := NewHub(2)
	tokens := hub.Subscribe(constants.RefreshTopicTokens)
	balance := hub.Subscribe(constants.RefreshTopicTokenBalance)

	hub.Publish(constants.RefreshTopicAll)
	require.Equal(t, constants.RefreshTopicAll, receive(t, tokens).Topic)
	require.Equal(t, constants.RefreshTopicAll, receive(t, balance).Topic)
}

func TestHubDropsWhenSubscriberBufferFull(t *testing.T) {
	hub := NewHub(1)
	sub := hub.Subscribe()

	hub.Publish(constants.RefreshTopicOrders)
	hub.Publish(constants.RefreshTopicTokens)

	require.Equal(t, constants.RefreshTopicOrders, receive(t, sub).Topic)
	assertEmpty(t, sub)
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(1)
	sub := hub.Subscribe()
	require.Equal(t, 1, hub.SubscriberCount())

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)
	_, ok := <-sub.C()
	require.False(t, ok)
	require.Equal(t, 0, hub.SubscriberCount())
}

func TestHubForwardsPublishedEvents(t *testing.T) {
	hub := NewHub(1)
	forwarded := make([]Event, 0)
	hub.SetForwarder(func(evt Event) { forwarded = append(forwarded, evt) })

	hub.Publish(constants.RefreshTopicCustomers)
	require.Len(t, forwarded, 1)
	require.Equal(t, hub.Origin(), forwarded[0].Origin)

	hub.Deliver(Event{Topic: constants.RefreshTopicOrders})
	require.Len(t, forwarded, 1)
}

func TestRedisBridgeIgnoresOwnOrigin(t *testing.T) {
	hub := NewHub(2)
	sub := hub.Subscribe()
	bridge := NewRedisBridge(nil, "", hub)
	require.Equal(t, defaultRedisChannel, bridge.Channel())

	own, err := json.Marshal(Event{Topic: constants.RefreshTopicOrders, Origin: hub.Origin()})
	require.NoError(t, err)
	bridge.handle(string(own))
	assertEmpty(t, sub)

	other, err := json.Marshal(Event{Topic: constants.RefreshTopicOrders, Origin: "other-node"})
	require.NoError(t, err)
	bridge.handle(string(other))
	require.Equal(t, "other-node", receive(t, sub).Origin)
}
