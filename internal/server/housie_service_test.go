package server

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khelghar/gametable/internal/randutil"
	"github.com/khelghar/gametable/internal/scheduler"
	"github.com/khelghar/gametable/internal/store"
)

type housieFixture struct {
	hs    *HousieService
	clock *quartz.Mock
}

func newHousieFixture(t *testing.T) *housieFixture {
	t.Helper()

	cfg := &ServerConfig{
		Server: ServerSettings{AdminPassword: "secret"},
		Housie: &HousieConfig{
			Tickets:             6,
			TicketLimit:         2,
			CallIntervalSeconds: 8,
		},
	}

	clock := quartz.NewMock(t)
	sched := scheduler.New(clock)
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})

	hs := NewHousieService(store.NewMemStore(), sched, logger, cfg, randutil.New(7))
	hs.Start()
	t.Cleanup(func() {
		hs.Stop()
		sched.Stop()
	})

	return &housieFixture{hs: hs, clock: clock}
}

func TestHousieCurrentCreatesGame(t *testing.T) {
	f := newHousieFixture(t)

	g, err := f.hs.Current()
	require.NoError(t, err)
	require.Len(t, g.Tickets, 6)
	assert.Empty(t, g.Called)
	assert.False(t, g.Over)
}

func TestHousieBookingAndActiveWindow(t *testing.T) {
	f := newHousieFixture(t)

	require.NoError(t, f.hs.Book("uid-a", 1))
	require.NoError(t, f.hs.Book("uid-a", 2))
	assert.Error(t, f.hs.Book("uid-b", 3), "only the first 2 tickets are active")
	assert.Error(t, f.hs.Book("uid-b", 1), "ticket already taken")

	require.NoError(t, f.hs.Unbook("uid-a", 1))
	require.NoError(t, f.hs.Book("uid-b", 1))
}

func TestHousieCallRequiresAdmin(t *testing.T) {
	f := newHousieFixture(t)

	_, err := f.hs.Call("wrong")
	assert.ErrorIs(t, err, ErrBadPassword)

	n, err := f.hs.Call("secret")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, 90)

	g, err := f.hs.Current()
	require.NoError(t, err)
	assert.Equal(t, []int{n}, g.Called)
}

func TestHousieBookingLockedOnceCalling(t *testing.T) {
	f := newHousieFixture(t)

	_, err := f.hs.Call("secret")
	require.NoError(t, err)
	assert.Error(t, f.hs.Book("uid-a", 1))
}

func TestHousieAutoPlayCallsOnSchedule(t *testing.T) {
	f := newHousieFixture(t)

	require.NoError(t, f.hs.SetAutoPlay("secret", true))
	time.Sleep(20 * time.Millisecond) // subscription arms the interval timer

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.clock.Advance(8 * time.Second).MustWait(ctx)
		time.Sleep(10 * time.Millisecond)
	}

	g, err := f.hs.Current()
	require.NoError(t, err)
	assert.Len(t, g.Called, 3)
}

func TestHousieResetStartsFresh(t *testing.T) {
	f := newHousieFixture(t)

	require.NoError(t, f.hs.Book("uid-a", 1))
	_, err := f.hs.Call("secret")
	require.NoError(t, err)

	require.NoError(t, f.hs.Reset("secret"))

	g, err := f.hs.Current()
	require.NoError(t, err)
	assert.Empty(t, g.Called)
	assert.Empty(t, g.Tickets[0].Owner, "reset sells tickets afresh")
	require.NoError(t, f.hs.Book("uid-b", 1))
}
