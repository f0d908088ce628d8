package backup

import (
	"time"

	"github.com/ikasoba/notebox/core"
)

const Version = 1

// NotesBackup is the on-disk backup document. Readers ignore unknown fields.
type NotesBackup struct {
	Version   int          `json:"version"`
	Timestamp int64        `json:"timestamp"`
	Notes     []BackupNote `json:"notes"`
}

// BackupNote is a note flattened to primitives. Instants are epoch
// milliseconds.
type BackupNote struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Content          string   `json:"content"`
	PlainTextContent string   `json:"plainTextContent"`
	Tags             []string `json:"tags"`
	Folder           string   `json:"folder,omitempty"`
	FolderID         string   `json:"folderId,omitempty"`
	IsPinned         bool     `json:"isPinned"`
	IsArchived       bool     `json:"isArchived"`
	IsDeleted        bool     `json:"isDeleted"`
	CreatedAt        int64    `json:"createdAt"`
	UpdatedAt        int64    `json:"updatedAt"`
	ReminderAt       *int64   `json:"reminderAt,omitempty"`
	Attachments      []string `json:"attachments,omitempty"`
}

func fromNote(n *core.Note) BackupNote {
	rec := BackupNote{
		ID:               n.ID,
		Title:            n.Title,
		Content:          n.Content,
		PlainTextContent: n.PlainTextContent,
		Tags:             n.Tags,
		Folder:           n.Folder,
		FolderID:         n.FolderID,
		IsPinned:         n.IsPinned,
		IsArchived:       n.IsArchived,
		IsDeleted:        n.IsDeleted,
		CreatedAt:        n.CreatedAt.UnixMilli(),
		UpdatedAt:        n.UpdatedAt.UnixMilli(),
		Attachments:      n.Attachments,
	}

	if n.ReminderAt != nil {
		ms := n.ReminderAt.UnixMilli()
		rec.ReminderAt = &ms
	}

	return rec
}

// toNote rebuilds a note from a record. Attachments are not restored and
// derived fields are recomputed by the store on write.
func (rec BackupNote) toNote() *core.Note {
	n := &core.Note{
		ID:         rec.ID,
		Title:      rec.Title,
		Content:    rec.Content,
		Folder:     rec.Folder,
		FolderID:   rec.FolderID,
		IsPinned:   rec.IsPinned,
		IsArchived: rec.IsArchived,
		IsDeleted:  rec.IsDeleted,
		CreatedAt:  time.UnixMilli(rec.CreatedAt).UTC(),
		UpdatedAt:  time.UnixMilli(rec.UpdatedAt).UTC(),
	}

	if rec.ReminderAt != nil {
		t := time.UnixMilli(*rec.ReminderAt).UTC()
		n.ReminderAt = &t
	}

	return n
}
