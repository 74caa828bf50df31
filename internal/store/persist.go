// Package store holds the client-side state shared between pages and its
// durable copy on disk.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Fixed blob namespaces.
const (
	NamespaceUser        = "user-storage"
	NamespaceBoards      = "boards-storage"
	NamespaceAuthSession = "auth-session"
)

const blobPerm = 0o600

// Persister writes one JSON blob per namespace under dir.
type Persister struct {
	fs  afero.Fs
	dir string
	log logrus.FieldLogger
}

// NewPersister creates a Persister rooted at dir on fs.
func NewPersister(fs afero.Fs, dir string, log logrus.FieldLogger) *Persister {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Persister{fs: fs, dir: dir, log: log}
}

func (p *Persister) path(namespace string) string {
	return filepath.Join(p.dir, namespace+".json")
}

// Save replaces the blob for namespace with v.
func (p *Persister) Save(namespace string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store.Save %s: %w", namespace, err)
	}
	if err := p.fs.MkdirAll(p.dir, 0o700); err != nil {
		return fmt.Errorf("store.Save %s: %w", namespace, err)
	}
	target := p.path(namespace)
	tmp := target + ".tmp"
	if err := afero.WriteFile(p.fs, tmp, data, blobPerm); err != nil {
		return fmt.Errorf("store.Save %s: %w", namespace, err)
	}
	if err := p.fs.Rename(tmp, target); err != nil {
		p.fs.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("store.Save %s: %w", namespace, err)
	}
	return nil
}

// Load decodes the blob for namespace into v. It reports false when there is
// no usable blob: a missing file is silent, a corrupt one is logged.
func (p *Persister) Load(namespace string, v any) bool {
	data, err := afero.ReadFile(p.fs, p.path(namespace))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			p.log.WithError(err).WithField("namespace", namespace).Warn("read stored state")
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		p.log.WithError(err).WithField("namespace", namespace).Warn("stored state is corrupt, ignoring")
		return false
	}
	return true
}

// Remove deletes the blob for namespace. Removing a missing blob is not an error.
func (p *Persister) Remove(namespace string) error {
	err := p.fs.Remove(p.path(namespace))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store.Remove %s: %w", namespace, err)
	}
	return nil
}
