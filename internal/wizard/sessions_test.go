package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerCreateGet(t *testing.T) {
	m := NewManager(30*time.Minute, nil)
	w := newTestWizard(&fakeAPI{}, newFakeHints())

	s := m.Create(w, "dev1")
	require.NotEmpty(t, s.ID)
	assert.Equal(t, "dev1", s.DeviceToken)

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestManagerSweepDropsIdleSessions(t *testing.T) {
	m := NewManager(10*time.Minute, nil)
	base := time.Date(2025, 6, 9, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	stale := m.Create(newTestWizard(&fakeAPI{}, newFakeHints()), "dev1")
	m.now = func() time.Time { return base.Add(5 * time.Minute) }
	fresh := m.Create(newTestWizard(&fakeAPI{}, newFakeHints()), "dev2")

	m.now = func() time.Time { return base.Add(12 * time.Minute) }
	dropped := m.Sweep()

	assert.Equal(t, 1, dropped)
	_, ok := m.Get(stale.ID)
	assert.False(t, ok, "stale session dropped")
	_, ok = m.Get(fresh.ID)
	assert.True(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestManagerGetRefreshesIdleTimer(t *testing.T) {
	m := NewManager(10*time.Minute, nil)
	base := time.Date(2025, 6, 9, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	s := m.Create(newTestWizard(&fakeAPI{}, newFakeHints()), "dev1")

	m.now = func() time.Time { return base.Add(8 * time.Minute) }
	_, ok := m.Get(s.ID)
	require.True(t, ok)

	m.now = func() time.Time { return base.Add(15 * time.Minute) }
	assert.Equal(t, 0, m.Sweep(), "recently touched session survives")
}
