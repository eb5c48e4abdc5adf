// ABOUTME: Power locks that keep the system awake during playback
// ABOUTME: Sysfs writes the kernel wake_lock files; Recorder tracks calls in memory
package wakelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Locker acquires and releases named partial wake locks.
type Locker interface {
	Acquire(tag string) error
	Release(tag string) error
}

// DefaultSysfsDir holds the kernel wake lock control files.
const DefaultSysfsDir = "/sys/power"

// Sysfs is a Locker backed by /sys/power/wake_lock and wake_unlock.
type Sysfs struct {
	Dir string
}

// NewSysfs returns a Sysfs locker using dir, or DefaultSysfsDir if empty.
func NewSysfs(dir string) *Sysfs {
	if dir == "" {
		dir = DefaultSysfsDir
	}
	return &Sysfs{Dir: dir}
}

// Acquire implements Locker.
func (s *Sysfs) Acquire(tag string) error {
	return s.write("wake_lock", tag)
}

// Release implements Locker.
func (s *Sysfs) Release(tag string) error {
	return s.write("wake_unlock", tag)
}

func (s *Sysfs) write(file, tag string) error {
	if tag == "" {
		return errors.New("wakelock: empty tag")
	}
	f, err := os.OpenFile(filepath.Join(s.Dir, file), os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("wakelock: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(tag); err != nil {
		return fmt.Errorf("wakelock: write %s: %w", file, err)
	}
	return nil
}

// Nop is a Locker that does nothing.
type Nop struct{}

func (Nop) Acquire(string) error { return nil }
func (Nop) Release(string) error { return nil }

// Recorder is an in-memory Locker that counts calls and tracks held tags.
type Recorder struct {
	mu       sync.Mutex
	held     map[string]bool
	acquires map[string]int
	releases map[string]int
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		held:     make(map[string]bool),
		acquires: make(map[string]int),
		releases: make(map[string]int),
	}
}

// Acquire implements Locker.
func (r *Recorder) Acquire(tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.held[tag] = true
	r.acquires[tag]++
	return nil
}

// Release implements Locker.
func (r *Recorder) Release(tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.held, tag)
	r.releases[tag]++
	return nil
}

// Held reports whether tag is currently held.
func (r *Recorder) Held(tag string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.held[tag]
}

// Acquires returns how many times tag was acquired.
func (r *Recorder) Acquires(tag string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.acquires[tag]
}

// Releases returns how many times tag was released.
func (r *Recorder) Releases(tag string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.releases[tag]
}
