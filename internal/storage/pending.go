package storage

import (
	"fmt"
	"os"
)

// PendingFile is a temporary file in the store's directory that is renamed into place on Commit.
type PendingFile struct {
	f     *os.File
	name  string
	final string
	done  bool
}

// Name returns the final name the file will have after Commit.
func (p *PendingFile) Name() string {
	return p.name
}

func (p *PendingFile) Write(b []byte) (int, error) {
	return p.f.Write(b)
}

// Commit flushes and moves the file to its final name.
func (p *PendingFile) Commit() error {
	if p.done {
		return fmt.Errorf("pending file %s already finished", p.name)
	}
	p.done = true

	if err := p.f.Sync(); err != nil {
		p.f.Close()
		os.Remove(p.f.Name())
		return fmt.Errorf("syncing file: %w", err)
	}
	if err := p.f.Close(); err != nil {
		os.Remove(p.f.Name())
		return fmt.Errorf("closing file: %w", err)
	}
	if err := os.Chmod(p.f.Name(), 0644); err != nil {
		os.Remove(p.f.Name())
		return fmt.Errorf("chmod file: %w", err)
	}
	if err := os.Rename(p.f.Name(), p.final); err != nil {
		os.Remove(p.f.Name())
		return fmt.Errorf("renaming file: %w", err)
	}
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit.
func (p *PendingFile) Abort() {
	if p.done {
		return
	}
	p.done = true
	p.f.Close()
	os.Remove(p.f.Name())
}
