package core

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"
)

const indexFile = "index.db"

var (
	bucketNotes     = []byte("notes")
	bucketTagsStats = []byte("tags_stats")
)

// Store is the handle on the embedded database under HomePath. It is safe
// for concurrent use; bbolt serializes writers.
type Store struct {
	HomePath string
	db       *bolt.DB
	hub      *hub
	now      func() time.Time
	log      zerolog.Logger
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

func New(home string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(home, 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(filepath.Join(home, indexFile), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketNotes, bucketTagsStats} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return newStore(home, db, opts), nil
}

// openReader opens an existing index read-only. Readers share the file
// lock and leave the file untouched.
func openReader(home string, opts ...Option) (*Store, error) {
	db, err := bolt.Open(filepath.Join(home, indexFile), 0600, &bolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	return newStore(home, db, opts), nil
}

func newStore(home string, db *bolt.DB, opts []Option) *Store {
	s := &Store{
		HomePath: home,
		db:       db,
		hub:      newHub(),
		now:      time.Now,
		log:      zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Now() time.Time {
	return s.now()
}

// update runs fn in a write transaction and wakes live views once it commits.
func (s *Store) update(fn func(tx *bolt.Tx) error) error {
	if err := s.db.Update(fn); err != nil {
		return err
	}

	s.hub.notify()

	return nil
}

func (s *Store) GetNote(id string) (*Note, error) {
	var res *Note

	err := s.db.View(func(tx *bolt.Tx) error {
		n, err := getNote(tx, id)
		res = n
		return err
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// PutNote inserts or replaces n. Derived fields are recomputed from
// n.Content before the write.
func (s *Store) PutNote(n *Note) error {
	return s.update(func(tx *bolt.Tx) error {
		return putNote(tx, n)
	})
}

// ModifyNote applies fn to the stored note and writes it back in the same
// transaction. It returns nil without error if the note does not exist.
func (s *Store) ModifyNote(id string, fn func(n *Note)) (*Note, error) {
	var res *Note

	err := s.update(func(tx *bolt.Tx) error {
		n, err := getNote(tx, id)
		if err != nil || n == nil {
			return err
		}

		fn(n)
		n.ID = id

		if err := putNote(tx, n); err != nil {
			return err
		}

		res = n

		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// DeleteNote removes the note and its tag index entries. It reports whether
// anything was deleted.
func (s *Store) DeleteNote(id string) (bool, error) {
	deleted := false

	err := s.update(func(tx *bolt.Tx) error {
		ok, err := deleteNote(tx, id)
		deleted = ok
		return err
	})

	return deleted, err
}

func (s *Store) EachNote(fn func(n *Note) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNotes).ForEach(func(k, v []byte) error {
			var n Note
			if err := json.Unmarshal(v, &n); err != nil {
				return fmt.Errorf("decode note %s: %w", k, err)
			}
			return fn(&n)
		})
	})
}

func (s *Store) CountNotes() (int, error) {
	count := 0

	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(bucketNotes).Stats().KeyN
		return nil
	})

	return count, err
}

// ReplaceNotes drops every note and the whole tag index, then inserts notes,
// all in one transaction.
func (s *Store) ReplaceNotes(notes []*Note) error {
	return s.update(func(tx *bolt.Tx) error {
		drop := [][]byte{}

		err := tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			if bytes.Equal(name, bucketNotes) || bytes.Equal(name, bucketTagsStats) || bytes.HasPrefix(name, tagBucketPrefix) {
				drop = append(drop, append([]byte{}, name...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, name := range drop {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}

		for _, name := range [][]byte{bucketNotes, bucketTagsStats} {
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}

		for _, n := range notes {
			if err := putNote(tx, n); err != nil {
				return err
			}
		}

		return nil
	})
}

// FilterByTags returns the ids of notes matching any of the AND groups in
// query, in id order.
func (s *Store) FilterByTags(query [][]string) ([]string, error) {
	results := []string{}

	err := s.db.View(func(tx *bolt.Tx) error {
		found := map[string]struct{}{}

		for _, group := range query {
			if len(group) == 0 {
				continue
			}

			buckets := make([]*bolt.Bucket, 0, len(group))
			for _, tag := range group {
				b := tx.Bucket(tagBucket(tag))
				if b == nil {
					buckets = nil
					break
				}
				buckets = append(buckets, b)
			}

			if len(buckets) == 0 {
				continue
			}

			c := buckets[0].Cursor()
			for id, _ := c.First(); id != nil; id, _ = c.Next() {
				isAll := true

				for _, b := range buckets[1:] {
					if b.Get(id) == nil {
						isAll = false
						break
					}
				}

				if _, ok := found[string(id)]; !ok && isAll {
					found[string(id)] = struct{}{}
					results = append(results, string(id))
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

// TagsStats lists tags after seek with the number of notes carrying them.
// limit <= 0 means no limit. The returned string is the seek position for
// the next page.
func (s *Store) TagsStats(seek string, limit int) (map[string]int64, string, error) {
	var lastSeek string

	stats := map[string]int64{}

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketTagsStats).Cursor()

		var k, v []byte
		if len(seek) > 0 {
			k, v = c.Seek([]byte(seek))
			if k != nil && string(k) == seek {
				k, v = c.Next()
			}
		} else {
			k, v = c.First()
		}

		for ; k != nil; k, v = c.Next() {
			if limit > 0 && len(stats) >= limit {
				break
			}

			stats[string(k)] = int64(binary.LittleEndian.Uint64(v))
			lastSeek = string(k)
		}

		return nil
	})
	if err != nil {
		return nil, "", err
	}

	return stats, lastSeek, nil
}

// Put stores v as JSON under key in the named bucket.
func (s *Store) Put(bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return s.update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

// Get decodes the value under key into v and reports whether it existed.
func (s *Store) Get(bucket, key string, v any) (bool, error) {
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}

		data := b.Get([]byte(key))
		if data == nil {
			return nil
		}

		found = true

		return json.Unmarshal(data, v)
	})

	return found, err
}

// Modify decodes the value under key into v, calls fn and writes v back in
// one transaction. It reports whether the key existed.
func (s *Store) Modify(bucket, key string, v any, fn func()) (bool, error) {
	found := false

	err := s.update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}

		data := b.Get([]byte(key))
		if data == nil {
			return nil
		}

		if err := json.Unmarshal(data, v); err != nil {
			return err
		}

		fn()

		out, err := json.Marshal(v)
		if err != nil {
			return err
		}

		found = true

		return b.Put([]byte(key), out)
	})

	return found, err
}

func (s *Store) Delete(bucket, key string) error {
	return s.update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// Each calls fn with every raw value of the named bucket in key order.
func (s *Store) Each(bucket string, fn func(key string, data []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			return fn(string(k), v)
		})
	})
}

func getNote(tx *bolt.Tx, id string) (*Note, error) {
	data := tx.Bucket(bucketNotes).Get([]byte(id))
	if data == nil {
		return nil, nil
	}

	var n Note
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("decode note %s: %w", id, err)
	}

	return &n, nil
}

func putNote(tx *bolt.Tx, n *Note) error {
	n.apply(Derive(n.Content))

	prev, err := getNote(tx, n.ID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(n)
	if err != nil {
		return err
	}

	if err := tx.Bucket(bucketNotes).Put([]byte(n.ID), data); err != nil {
		return err
	}

	var prevTags []string
	if prev != nil {
		prevTags = prev.Tags
	}

	return reindexTags(tx, n.ID, prevTags, n.Tags)
}

func deleteNote(tx *bolt.Tx, id string) (bool, error) {
	prev, err := getNote(tx, id)
	if err != nil || prev == nil {
		return false, err
	}

	if err := reindexTags(tx, id, prev.Tags, nil); err != nil {
		return false, err
	}

	return true, tx.Bucket(bucketNotes).Delete([]byte(id))
}

func reindexTags(tx *bolt.Tx, id string, prev, next []string) error {
	tags := map[string]struct{}{}
	for _, v := range next {
		tags[v] = struct{}{}
	}

	prevTags := map[string]struct{}{}
	for _, v := range prev {
		prevTags[v] = struct{}{}
	}

	updatedStats := map[string]int64{}

	for k := range prevTags {
		if _, ok := tags[k]; ok {
			continue
		}

		b, err := tx.CreateBucketIfNotExists(tagBucket(k))
		if err != nil {
			return err
		}

		if err := b.Delete([]byte(id)); err != nil {
			return err
		}

		updatedStats[k]--
	}

	for k := range tags {
		if _, ok := prevTags[k]; ok {
			continue
		}

		b, err := tx.CreateBucketIfNotExists(tagBucket(k))
		if err != nil {
			return err
		}

		if err := b.Put([]byte(id), []byte{0}); err != nil {
			return err
		}

		updatedStats[k]++
	}

	tagsStats := tx.Bucket(bucketTagsStats)

	for k, d := range updatedStats {
		count := int64(0)

		raw := tagsStats.Get([]byte(k))
		if raw != nil {
			count = int64(binary.LittleEndian.Uint64(raw))
		}

		count += d

		if count <= 0 {
			if err := tagsStats.Delete([]byte(k)); err != nil {
				return err
			}
			if tx.Bucket(tagBucket(k)) != nil {
				if err := tx.DeleteBucket(tagBucket(k)); err != nil {
					return err
				}
			}
			continue
		}

		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(count))

		if err := tagsStats.Put([]byte(k), buf); err != nil {
			return err
		}
	}

	return nil
}
