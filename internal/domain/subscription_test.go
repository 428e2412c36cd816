package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickSubscriptionLifecycle(t *testing.T) {
	sub := NewTickSubscription([]string{"NIFTY50"})

	sub.Subscribe("socket-1", "RELIANCE")
	sub.Subscribe("socket-2", "RELIANCE")
	assert.True(t, sub.IsSubscribed("RELIANCE"))
	assert.ElementsMatch(t, []string{"socket-1", "socket-2"}, sub.SocketsFor("RELIANCE"))

	dropped := sub.Unsubscribe("socket-1", "RELIANCE")
	assert.False(t, dropped, "still one subscriber left")
	assert.True(t, sub.IsSubscribed("RELIANCE"))

	dropped = sub.Unsubscribe("socket-2", "RELIANCE")
	assert.True(t, dropped, "last subscriber removed, upstream should drop")
	assert.False(t, sub.IsSubscribed("RELIANCE"))
}

func TestTickSubscriptionAlwaysOnNeverDrops(t *testing.T) {
	sub := NewTickSubscription([]string{"NIFTY50"})
	sub.Subscribe("socket-1", "NIFTY50")
	dropped := sub.Unsubscribe("socket-1", "NIFTY50")
	assert.False(t, dropped, "always-on symbol must never report drop")
	assert.True(t, sub.IsSubscribed("NIFTY50"))
}

func TestTickSubscriptionDropSocket(t *testing.T) {
	sub := NewTickSubscription(nil)
	sub.Subscribe("socket-1", "RELIANCE")
	sub.Subscribe("socket-1", "TCS")
	sub.Subscribe("socket-2", "TCS")

	dropped := sub.DropSocket("socket-1")
	assert.ElementsMatch(t, []string{"RELIANCE"}, dropped, "TCS still held by socket-2")
	assert.False(t, sub.IsSubscribed("RELIANCE"))
	assert.True(t, sub.IsSubscribed("TCS"))
}
