// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package resmgr

import (
	"fmt"

	"github.com/elliotnunn/MacShim/internal/blockstore"
	"github.com/elliotnunn/MacShim/internal/oserr"
	"github.com/elliotnunn/MacShim/internal/resourcefork"
)

// GetResource searches from the current fork down to the first one opened
func (m *Manager) GetResource(t resourcefork.Type, id int16) (blockstore.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := m.cur; i >= 0; i-- {
		if r, ok := m.stack[i].fork.Lookup(t, id); ok {
			return m.load(i, r)
		}
	}
	return 0, m.result(fmt.Errorf("GetResource %q %d: %w", t, id, oserr.ResNotFound))
}

// Get1Resource only searches the current fork
func (m *Manager) Get1Resource(t resourcefork.Type, id int16) (blockstore.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f := m.current(); f != nil {
		if r, ok := f.Lookup(t, id); ok {
			return m.load(m.cur, r)
		}
	}
	return 0, m.result(fmt.Errorf("Get1Resource %q %d: %w", t, id, oserr.ResNotFound))
}

// Get1IndResource takes a 1-based index into the current fork's resources of a type,
// in ID order, and then fetches by ID like GetResource
func (m *Manager) Get1IndResource(t resourcefork.Type, index int16) (blockstore.Handle, error) {
	m.mu.Lock()
	var ids []int16
	if f := m.current(); f != nil {
		ids = f.IDs(t)
	}
	if index < 1 || int(index) > len(ids) {
		defer m.mu.Unlock()
		return 0, m.result(fmt.Errorf("Get1IndResource %q #%d: %w", t, index, oserr.ResNotFound))
	}
	m.mu.Unlock()
	return m.GetResource(t, ids[index-1])
}

// GetNamedResource searches like GetResource but by name
func (m *Manager) GetNamedResource(t resourcefork.Type, name string) (blockstore.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := m.cur; i >= 0; i-- {
		if r, ok := m.stack[i].fork.LookupName(t, name); ok {
			return m.load(i, r)
		}
	}
	return 0, m.result(fmt.Errorf("GetNamedResource %q %q: %w", t, name, oserr.ResNotFound))
}

// m.mu must be held
func (m *Manager) load(i int, r resourcefork.Resource) (blockstore.Handle, error) {
	of := m.stack[i]
	data, err := of.fork.ReadData(r)
	if err != nil {
		return 0, m.result(fmt.Errorf("%s: %w", of.name, err))
	}
	h, err := m.store.AllocFrom(data)
	if err != nil {
		return 0, m.result(err)
	}
	m.store.Attach(h, &Meta{Ref: of.ref, Resource: r})
	m.result(nil)
	return h, nil
}

func (m *Manager) meta(h blockstore.Handle) (*Meta, error) {
	v, err := m.store.Meta(h)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", oserr.ResNotFound, err)
	}
	meta, ok := v.(*Meta)
	if !ok {
		return nil, fmt.Errorf("handle %d is not a resource: %w", h, oserr.ResNotFound)
	}
	return meta, nil
}

// GetResInfo reports where a handle came from
func (m *Manager) GetResInfo(h blockstore.Handle) (id int16, t resourcefork.Type, name string, err error) {
	meta, err := m.meta(h)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		return 0, 0, "", m.result(err)
	}
	m.result(nil)
	return meta.ID, meta.Type, meta.Name, nil
}

// SizeResource is the size recorded in the fork, whatever has happened to the handle since
func (m *Manager) SizeResource(h blockstore.Handle) (int32, error) {
	meta, err := m.meta(h)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		return -1, m.result(err)
	}
	m.result(nil)
	return meta.Size, nil
}

func (m *Manager) ReleaseResource(h blockstore.Handle) error {
	err := m.store.Free(h)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result(err)
}

// DetachResource turns a resource handle into an ordinary one
func (m *Manager) DetachResource(h blockstore.Handle) error {
	old, err := m.store.Detach(h)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		return m.result(err)
	}
	if _, ok := old.(*Meta); !ok {
		return m.result(fmt.Errorf("handle %d is not a resource: %w", h, oserr.ResNotFound))
	}
	return m.result(nil)
}

// RemoveResource frees the handle. Forks are read-only, so the map is untouched.
func (m *Manager) RemoveResource(h blockstore.Handle) error {
	err := m.store.Free(h)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		return m.result(err)
	}
	return m.result(fmt.Errorf("RemoveResource: %w", oserr.UnimpErr))
}

func (m *Manager) AddResource(h blockstore.Handle, t resourcefork.Type, id int16, name string) error {
	return m.unimplemented("AddResource")
}

func (m *Manager) ChangedResource(h blockstore.Handle) error {
	return m.unimplemented("ChangedResource")
}

func (m *Manager) WriteResource(h blockstore.Handle) error {
	return m.unimplemented("WriteResource")
}

func (m *Manager) unimplemented(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result(fmt.Errorf("%s: %w", op, oserr.UnimpErr))
}
