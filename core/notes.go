package core

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Notes is the note repository. Every write goes through the store, which
// derives plain text and tags from content.
type Notes struct {
	store *Store
}

func NewNotes(store *Store) *Notes {
	return &Notes{store: store}
}

func (r *Notes) Store() *Store {
	return r.store
}

func (r *Notes) Create(title, content, folder string) (*Note, error) {
	if strings.TrimSpace(title) == "" {
		title = AutoTitle(content)
	}

	now := r.store.Now()

	n := &Note{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		Content:   content,
		Folder:    folder,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.store.PutNote(n); err != nil {
		return nil, err
	}

	r.store.log.Debug().Str("note_id", n.ID).Msg("note created")

	return n, nil
}

// Update writes the editable fields of n. CreatedAt is kept from the stored
// note; on return n reflects what was persisted. Updating a note that no
// longer exists does nothing.
func (r *Notes) Update(n *Note) error {
	stored, err := r.store.ModifyNote(n.ID, func(cur *Note) {
		cur.Title = n.Title
		cur.Content = n.Content
		cur.Folder = n.Folder
		cur.FolderID = n.FolderID
		cur.IsPinned = n.IsPinned
		cur.IsArchived = n.IsArchived
		cur.IsDeleted = n.IsDeleted
		cur.ReminderAt = n.ReminderAt
		cur.Attachments = n.Attachments
		cur.UpdatedAt = r.touch(cur.UpdatedAt)
	})
	if err != nil || stored == nil {
		return err
	}

	*n = *stored.clone()

	return nil
}

func (r *Notes) Delete(n *Note) error {
	return r.DeleteByID(n.ID)
}

func (r *Notes) DeleteByID(id string) error {
	ok, err := r.store.DeleteNote(id)
	if ok {
		r.store.log.Debug().Str("note_id", id).Msg("note deleted")
	}
	return err
}

func (r *Notes) Get(id string) (*Note, error) {
	return r.store.GetNote(id)
}

// TogglePin flips the pin flag and returns the note, or nil if it is gone.
func (r *Notes) TogglePin(id string) (*Note, error) {
	return r.modify(id, func(n *Note) {
		n.IsPinned = !n.IsPinned
	})
}

func (r *Notes) SetArchived(id string, archived bool) (*Note, error) {
	return r.modify(id, func(n *Note) {
		n.IsArchived = archived
	})
}

// MoveToTrash sets the deleted flag. Use Delete to remove the note for good.
func (r *Notes) MoveToTrash(id string) (*Note, error) {
	return r.modify(id, func(n *Note) {
		n.IsDeleted = true
	})
}

func (r *Notes) RestoreFromTrash(id string) (*Note, error) {
	return r.modify(id, func(n *Note) {
		n.IsDeleted = false
	})
}

func (r *Notes) MoveToFolder(id, folder string) (*Note, error) {
	return r.modify(id, func(n *Note) {
		n.Folder = folder
	})
}

func (r *Notes) SetReminder(id string, at *time.Time) (*Note, error) {
	return r.modify(id, func(n *Note) {
		n.ReminderAt = at
	})
}

func (r *Notes) AddAttachment(id, ref string) (*Note, error) {
	return r.modify(id, func(n *Note) {
		n.Attachments = append(n.Attachments, ref)
	})
}

// All lists notes that are neither archived nor in the trash.
func (r *Notes) All() ([]*Note, error) {
	return r.list(func(n *Note) bool {
		return !n.IsDeleted && !n.IsArchived
	})
}

func (r *Notes) Pinned() ([]*Note, error) {
	return r.list(func(n *Note) bool {
		return n.IsPinned && !n.IsDeleted && !n.IsArchived
	})
}

func (r *Notes) Archived() ([]*Note, error) {
	return r.list(func(n *Note) bool {
		return n.IsArchived && !n.IsDeleted
	})
}

func (r *Notes) Trash() ([]*Note, error) {
	return r.list(func(n *Note) bool {
		return n.IsDeleted
	})
}

func (r *Notes) ByFolder(folder string) ([]*Note, error) {
	return r.list(func(n *Note) bool {
		return n.Folder == folder && !n.IsDeleted && !n.IsArchived
	})
}

func (r *Notes) ByTag(tag string) ([]*Note, error) {
	return r.FilterByTags([][]string{{strings.ToLower(tag)}})
}

// FilterByTags returns notes matching any AND group of tags.
func (r *Notes) FilterByTags(query [][]string) ([]*Note, error) {
	ids, err := r.store.FilterByTags(query)
	if err != nil {
		return nil, err
	}

	notes := make([]*Note, 0, len(ids))
	for _, id := range ids {
		n, err := r.store.GetNote(id)
		if err != nil {
			return nil, err
		}
		if n != nil && !n.IsDeleted {
			notes = append(notes, n)
		}
	}

	sortNotes(notes)

	return notes, nil
}

// Search matches query case-insensitively against title, content and plain
// text. A blank query lists everything All does.
func (r *Notes) Search(query string) ([]*Note, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return r.All()
	}

	return r.list(func(n *Note) bool {
		if n.IsDeleted || n.IsArchived {
			return false
		}
		return strings.Contains(strings.ToLower(n.Title), q) ||
			strings.Contains(strings.ToLower(n.Content), q) ||
			strings.Contains(strings.ToLower(n.PlainTextContent), q)
	})
}

// Folders returns the distinct non-empty folder labels in use.
func (r *Notes) Folders() ([]string, error) {
	seen := map[string]struct{}{}
	folders := []string{}

	err := r.store.EachNote(func(n *Note) error {
		if n.Folder == "" || n.IsDeleted {
			return nil
		}
		if _, ok := seen[n.Folder]; !ok {
			seen[n.Folder] = struct{}{}
			folders = append(folders, n.Folder)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(folders)

	return folders, nil
}

func (r *Notes) TagStats() (map[string]int64, error) {
	stats, _, err := r.store.TagsStats("", 0)
	return stats, err
}

func (r *Notes) Count() (int, error) {
	return r.store.CountNotes()
}

// Watch is a live view over q.
func (r *Notes) Watch(ctx context.Context, q Query) <-chan []*Note {
	return r.store.Watch(ctx, q)
}

func (r *Notes) WatchAll(ctx context.Context) <-chan []*Note {
	return r.Watch(ctx, r.All)
}

func (r *Notes) WatchSearch(ctx context.Context, query string) <-chan []*Note {
	return r.Watch(ctx, func() ([]*Note, error) {
		return r.Search(query)
	})
}

func (r *Notes) modify(id string, fn func(n *Note)) (*Note, error) {
	return r.store.ModifyNote(id, func(n *Note) {
		fn(n)
		n.UpdatedAt = r.touch(n.UpdatedAt)
	})
}

// touch returns the current instant, bumped past prev when the clock has
// not moved so that UpdatedAt always increases.
func (r *Notes) touch(prev time.Time) time.Time {
	now := r.store.Now()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

func (r *Notes) list(keep func(n *Note) bool) ([]*Note, error) {
	notes := []*Note{}

	err := r.store.EachNote(func(n *Note) error {
		if keep(n) {
			notes = append(notes, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortNotes(notes)

	return notes, nil
}

// sortNotes orders pinned notes first, then the most recently updated.
func sortNotes(notes []*Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})
}
