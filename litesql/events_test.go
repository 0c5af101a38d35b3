package litesql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnCloseDelivered(t *testing.T) {
	db, err := Open(":memory:", Options{Memory: true})
	require.NoError(t, err)

	var got Event
	unsubscribe := db.OnClose(func(ev Event) { got = ev })
	defer unsubscribe()

	require.NoError(t, db.Close())
	assert.Equal(t, EventClose, got.Kind)
	assert.False(t, got.Conn.Open())
}

func TestEventSubscriptionOrder(t *testing.T) {
	db, err := Open(":memory:", Options{Memory: true})
	require.NoError(t, err)
	defer db.Close()

	var order []int
	db.OnClose(func(Event) { order = append(order, 1) })
	db.OnClose(func(Event) { order = append(order, 2) })
	db.OnClose(func(Event) { order = append(order, 3) })

	require.NoError(t, db.Close())
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	db, err := Open(":memory:", Options{Memory: true})
	require.NoError(t, err)
	defer db.Close()

	calls := 0
	unsubscribe := db.OnClose(func(Event) { calls++ })
	unsubscribe()

	require.NoError(t, db.Close())
	assert.Equal(t, 0, calls)
}

func TestListenerPanicIsRecovered(t *testing.T) {
	db, err := Open(":memory:", Options{Memory: true})
	require.NoError(t, err)

	ranAfterPanic := false
	db.OnClose(func(Event) { panic("boom") })
	db.OnClose(func(Event) { ranAfterPanic = true })

	assert.NotPanics(t, func() {
		require.NoError(t, db.Close())
	})
	assert.True(t, ranAfterPanic)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "connect", EventConnect.String())
	assert.Equal(t, "close", EventClose.String())
}
