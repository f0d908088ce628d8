package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ikasoba/notebox/core"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

const (
	filePrefix = "notes_backup_"
	fileSuffix = ".json"
)

type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateError   State = "error"
)

// Status is the advisory progress of the last backup operation.
type Status struct {
	State   State     `json:"state"`
	Op      string    `json:"op,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

type SyncResult struct {
	LocalNotes int `json:"localNotes"`
	Uploaded   int `json:"uploaded"`
	Downloaded int `json:"downloaded"`
}

type Info struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// Manager writes and restores backups. Only one backup or restore runs at a
// time; a second caller gets a KindBusy error instead of waiting.
type Manager struct {
	notes *core.Notes
	dir   string
	log   zerolog.Logger
	sem   *semaphore.Weighted

	mu     sync.Mutex
	status Status
	subs   map[chan Status]struct{}
}

func NewManager(notes *core.Notes, dir string, log zerolog.Logger) *Manager {
	return &Manager{
		notes:  notes,
		dir:    dir,
		log:    log,
		sem:    semaphore.NewWeighted(1),
		status: Status{State: StateIdle},
		subs:   map[chan Status]struct{}{},
	}
}

func (m *Manager) Dir() string {
	return m.dir
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Subscribe delivers status transitions until ctx is done. Slow receivers
// miss intermediate transitions.
func (m *Manager) Subscribe(ctx context.Context) <-chan Status {
	ch := make(chan Status, 4)

	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs, ch)
		m.mu.Unlock()
		close(ch)
	}()

	return ch
}

func (m *Manager) setStatus(state State, op, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status = Status{State: state, Op: op, Message: message, At: m.notes.Store().Now()}

	for ch := range m.subs {
		select {
		case ch <- m.status:
		default:
		}
	}
}

func (m *Manager) begin(op string) error {
	if !m.sem.TryAcquire(1) {
		return core.Errorf(core.KindBusy, nil, "%s: another backup operation is running", op)
	}
	m.setStatus(StateRunning, op, "")
	return nil
}

func (m *Manager) end(op string, err error) {
	if err != nil {
		m.setStatus(StateError, op, err.Error())
	} else {
		m.setStatus(StateIdle, op, "")
	}
	m.sem.Release(1)
}

// CreateLocalBackup snapshots every note into a new timestamped file under
// the backup directory and returns its path.
func (m *Manager) CreateLocalBackup(ctx context.Context) (path string, err error) {
	if err := m.begin("backup"); err != nil {
		return "", err
	}
	defer func() { m.end("backup", err) }()

	doc, err := m.snapshot()
	if err != nil {
		return "", core.Errorf(core.KindIO, err, "read notes")
	}

	if err := ctx.Err(); err != nil {
		return "", core.Errorf(core.KindIO, err, "backup cancelled")
	}

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return "", core.Errorf(core.KindIO, err, "create backup directory")
	}

	f, err := m.createFile(time.UnixMilli(doc.Timestamp))
	if err != nil {
		return "", core.Errorf(core.KindIO, err, "create backup file")
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")

	if err := enc.Encode(doc); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", core.Errorf(core.KindIO, err, "write backup")
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", core.Errorf(core.KindIO, err, "write backup")
	}

	m.log.Info().Str("path", f.Name()).Int("count", len(doc.Notes)).Msg("backup written")

	return f.Name(), nil
}

// RestoreFromBackup replaces every note with the contents of the backup
// file at path.
func (m *Manager) RestoreFromBackup(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, core.Errorf(core.KindIO, err, "open backup")
	}
	defer f.Close()

	return m.RestoreFrom(ctx, f)
}

// RestoreFrom deletes every existing note and inserts every record of the
// backup document read from r. There is no merge.
func (m *Manager) RestoreFrom(ctx context.Context, r io.Reader) (count int, err error) {
	if err := m.begin("restore"); err != nil {
		return 0, err
	}
	defer func() { m.end("restore", err) }()

	var doc NotesBackup
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return 0, core.Errorf(core.KindMalformed, err, "parse backup")
	}

	if doc.Version > Version {
		m.log.Warn().Int("version", doc.Version).Msg("backup written by a newer version")
	}

	notes := make([]*core.Note, 0, len(doc.Notes))
	for _, rec := range doc.Notes {
		n := rec.toNote()
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		notes = append(notes, n)
	}

	if err := ctx.Err(); err != nil {
		return 0, core.Errorf(core.KindIO, err, "restore cancelled")
	}

	if err := m.notes.Store().ReplaceNotes(notes); err != nil {
		return 0, core.Errorf(core.KindIO, err, "replace notes")
	}

	m.log.Info().Int("count", len(notes)).Msg("backup restored")

	return len(notes), nil
}

// SyncWithCloud has no remote yet; it reports the local note count.
func (m *Manager) SyncWithCloud(ctx context.Context) (SyncResult, error) {
	count, err := m.notes.Count()
	if err != nil {
		return SyncResult{}, core.Errorf(core.KindIO, err, "count notes")
	}

	m.log.Debug().Int("count", count).Msg("cloud sync is not configured")

	return SyncResult{LocalNotes: count}, nil
}

// ListBackups returns the backup files in the backup directory, newest
// first.
func (m *Manager) ListBackups() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, core.Errorf(core.KindIO, err, "list backups")
	}

	res := []Info{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}

		fi, err := e.Info()
		if err != nil {
			continue
		}

		res = append(res, Info{
			Path:    filepath.Join(m.dir, name),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}

	// names embed the timestamp, so name order is chronological
	sort.Slice(res, func(i, j int) bool {
		return res[i].Path > res[j].Path
	})

	return res, nil
}

// Prune keeps the newest keep backups and removes the rest.
func (m *Manager) Prune(keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	list, err := m.ListBackups()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, info := range list[min(keep, len(list)):] {
		if err := os.Remove(info.Path); err != nil {
			return removed, core.Errorf(core.KindIO, err, "remove %s", info.Path)
		}
		removed++
	}

	return removed, nil
}

func (m *Manager) snapshot() (*NotesBackup, error) {
	doc := &NotesBackup{
		Version:   Version,
		Timestamp: m.notes.Store().Now().UnixMilli(),
		Notes:     []BackupNote{},
	}

	err := m.notes.Store().EachNote(func(n *core.Note) error {
		doc.Notes = append(doc.Notes, fromNote(n))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

func (m *Manager) createFile(at time.Time) (*os.File, error) {
	base := filePrefix + at.UTC().Format("20060102_150405.000")

	for i := 0; ; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s_%d", base, i)
		}

		f, err := os.OpenFile(filepath.Join(m.dir, name+fileSuffix), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}

		return f, err
	}
}
