package backup

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ikasoba/notebox/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(t *testing.T) (*Manager, *core.Notes, *clock) {
	t.Helper()

	c := &clock{now: time.Date(2026, 5, 4, 10, 11, 12, 345678901, time.UTC)}

	s, err := core.New(t.TempDir(), core.WithClock(c.Now))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	notes := core.NewNotes(s)

	return NewManager(notes, filepath.Join(t.TempDir(), "backups"), zerolog.Nop()), notes, c
}

func seed(t *testing.T, notes *core.Notes, c *clock) []*core.Note {
	t.Helper()

	a, err := notes.Create("Groceries", "milk #shopping", "home")
	require.NoError(t, err)

	c.Advance(1500 * time.Microsecond)
	b, err := notes.Create("", "<p>Plan #work #Q3</p>", "work")
	require.NoError(t, err)
	_, err = notes.TogglePin(b.ID)
	require.NoError(t, err)
	at := c.Now().Add(48 * time.Hour)
	_, err = notes.SetReminder(b.ID, &at)
	require.NoError(t, err)
	_, err = notes.AddAttachment(b.ID, "file:///sdcard/voice.wav")
	require.NoError(t, err)

	c.Advance(time.Second)
	d, err := notes.Create("Old", "archived", "")
	require.NoError(t, err)
	_, err = notes.SetArchived(d.ID, true)
	require.NoError(t, err)

	all := []*core.Note{}
	for _, id := range []string{a.ID, b.ID, d.ID} {
		n, err := notes.Get(id)
		require.NoError(t, err)
		all = append(all, n)
	}
	return all
}

func ms(t time.Time) time.Time {
	return t.Truncate(time.Millisecond)
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	m, notes, c := newTestManager(t)
	ctx := context.Background()

	before := seed(t, notes, c)

	path, err := m.CreateLocalBackup(ctx)
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = notes.Create("after backup", "should vanish", "")
	require.NoError(t, err)
	require.NoError(t, notes.DeleteByID(before[0].ID))

	count, err := m.RestoreFromBackup(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, len(before), count)

	total, err := notes.Count()
	require.NoError(t, err)
	require.Equal(t, len(before), total)

	for _, want := range before {
		got, err := notes.Get(want.ID)
		require.NoError(t, err)
		require.NotNil(t, got, want.Title)

		assert.Equal(t, want.Title, got.Title)
		assert.Equal(t, want.Content, got.Content)
		assert.Equal(t, want.PlainTextContent, got.PlainTextContent)
		assert.Equal(t, want.Tags, got.Tags)
		assert.Equal(t, want.Folder, got.Folder)
		assert.Equal(t, want.IsPinned, got.IsPinned)
		assert.Equal(t, want.IsArchived, got.IsArchived)
		assert.Equal(t, want.IsDeleted, got.IsDeleted)
		assert.True(t, ms(want.CreatedAt).Equal(got.CreatedAt))
		assert.True(t, ms(want.UpdatedAt).Equal(got.UpdatedAt))
		if want.ReminderAt == nil {
			assert.Nil(t, got.ReminderAt)
		} else {
			require.NotNil(t, got.ReminderAt)
			assert.True(t, ms(*want.ReminderAt).Equal(*got.ReminderAt))
		}
		assert.Empty(t, got.Attachments)
	}

	stats, err := notes.TagStats()
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"shopping": 1, "work": 1, "q3": 1}, stats)
}

func TestBackupDocumentFormat(t *testing.T) {
	m, notes, c := newTestManager(t)

	seed(t, notes, c)

	path, err := m.CreateLocalBackup(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), filePrefix))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.EqualValues(t, Version, raw["version"])
	assert.EqualValues(t, c.Now().UnixMilli(), raw["timestamp"])

	list := raw["notes"].([]any)
	require.Len(t, list, 3)

	attached := false
	for _, item := range list {
		rec := item.(map[string]any)
		assert.IsType(t, float64(0), rec["createdAt"])
		assert.Contains(t, rec, "plainTextContent")
		if rec["attachments"] != nil {
			attached = true
		}
	}
	assert.True(t, attached, "attachments are written to the backup")
}

func TestRestoreToleratesUnknownFields(t *testing.T) {
	m, notes, _ := newTestManager(t)

	doc := `{"version":1,"timestamp":1700000000000,"extra":{"a":1},"notes":[
		{"id":"n1","title":"T","content":"hello #World","createdAt":1700000000000,"updatedAt":1700000000500,"colour":"red","attachments":["x"]}
	]}`

	count, err := m.RestoreFrom(context.Background(), strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	n, err := notes.Get("n1")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, []string{"world"}, n.Tags)
	assert.Equal(t, "hello #World", n.PlainTextContent)
	assert.True(t, n.UpdatedAt.Equal(time.UnixMilli(1700000000500)))
	assert.Empty(t, n.Attachments)
}

func TestRestoreMalformed(t *testing.T) {
	m, notes, c := newTestManager(t)
	seed(t, notes, c)

	_, err := m.RestoreFrom(context.Background(), strings.NewReader("{not json"))
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindMalformed))

	total, err := notes.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, total, "failed restore leaves notes alone")

	assert.Equal(t, StateError, m.Status().State)
}

func TestRestoreMissingFile(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.RestoreFromBackup(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, core.IsKind(err, core.KindIO))
}

func TestSingleFlight(t *testing.T) {
	m, _, _ := newTestManager(t)

	require.NoError(t, m.begin("backup"))

	_, err := m.CreateLocalBackup(context.Background())
	assert.True(t, core.IsKind(err, core.KindBusy))

	_, err = m.RestoreFrom(context.Background(), strings.NewReader(`{"version":1,"notes":[]}`))
	assert.True(t, core.IsKind(err, core.KindBusy))

	assert.Equal(t, StateRunning, m.Status().State)

	m.end("backup", nil)
	assert.Equal(t, StateIdle, m.Status().State)

	_, err = m.CreateLocalBackup(context.Background())
	assert.NoError(t, err)
}

func TestSubscribeStatus(t *testing.T) {
	m, _, _ := newTestManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	updates := m.Subscribe(ctx)

	_, err := m.CreateLocalBackup(context.Background())
	require.NoError(t, err)

	first := <-updates
	second := <-updates
	assert.Equal(t, StateRunning, first.State)
	assert.Equal(t, StateIdle, second.State)
	assert.Equal(t, "backup", second.Op)

	cancel()
	for range updates {
	}
}

func TestListAndPrune(t *testing.T) {
	m, _, c := newTestManager(t)
	ctx := context.Background()

	paths := []string{}
	for i := 0; i < 4; i++ {
		p, err := m.CreateLocalBackup(ctx)
		require.NoError(t, err)
		paths = append(paths, p)
		c.Advance(time.Second)
	}

	list, err := m.ListBackups()
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, paths[3], list[0].Path)

	removed, err := m.Prune(2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	list, err = m.ListBackups()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, paths[3], list[0].Path)
	assert.Equal(t, paths[2], list[1].Path)
}

func TestBackupNamesDoNotCollide(t *testing.T) {
	m, _, _ := newTestManager(t)

	a, err := m.CreateLocalBackup(context.Background())
	require.NoError(t, err)
	b, err := m.CreateLocalBackup(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSyncWithCloudStub(t *testing.T) {
	m, notes, c := newTestManager(t)
	seed(t, notes, c)

	res, err := m.SyncWithCloud(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SyncResult{LocalNotes: 3}, res)
}
