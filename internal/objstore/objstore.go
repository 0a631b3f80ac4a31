// Package objstore implements the per-connection table mapping object
// IDs to objects.
package objstore

import (
	"deedles.dev/wlkde/wire"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	// MaxClientID is the largest ID that a client may allocate.
	MaxClientID = 0xfeffffff

	// ServerIDStart is the first ID in the range allocated by the
	// server.
	ServerIDStart = 0xff000000
)

type Store struct {
	objects map[uint32]wire.Object
	nextID  uint32
}

func New(start uint32) *Store {
	return &Store{
		objects: make(map[uint32]wire.Object),
		nextID:  start,
	}
}

// Add inserts obj into the store. If obj does not yet have an ID, it
// is assigned the next free one from the store's range.
func (s *Store) Add(obj wire.Object) {
	id := obj.ID()
	if id == 0 {
		for s.Has(s.nextID) {
			s.nextID++
		}
		id = s.nextID
		obj.SetID(id)
		s.nextID++
	}

	s.objects[id] = obj
}

func (s *Store) Get(id uint32) wire.Object {
	return s.objects[id]
}

func (s *Store) Has(id uint32) bool {
	_, ok := s.objects[id]
	return ok
}

func (s *Store) Len() int {
	return len(s.objects)
}

func (s *Store) Delete(id uint32) {
	obj := s.objects[id]
	delete(s.objects, id)
	if obj != nil {
		obj.Delete()
	}
}

// Clear deletes every object in the store, newest first, so that
// objects are deleted before the objects they were created from.
func (s *Store) Clear() {
	ids := maps.Keys(s.objects)
	slices.Sort(ids)
	for i := len(ids) - 1; i >= 0; i-- {
		s.Delete(ids[i])
	}
}
