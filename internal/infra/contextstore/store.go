// Package contextstore persists features and their transcripts under
// <project>/.gaffer/context/<featureID>/.
package contextstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/voidlock/gaffer/internal/domain"
)

// Ensure Store implements domain.ContextStore.
var _ domain.ContextStore = (*Store)(nil)

// Store implements domain.ContextStore using one directory per feature,
// each holding feature.json and agent-output.md. The layout survives
// process restarts; resume reads status and transcript back verbatim.
// Fields are ordered to minimize memory padding.
type Store struct {
	clock     domain.Clock
	gafferDir string
	lockPath  string
	debounce  time.Duration
}

// New creates a Store rooted at gafferDir. debounce is the transcript
// write coalescing window.
func New(gafferDir string, debounce time.Duration) *Store {
	return NewWithClock(gafferDir, debounce, domain.RealClock{})
}

// NewWithClock creates a Store with an explicit clock. This is useful
// for testing timestamp stamping.
func NewWithClock(gafferDir string, debounce time.Duration, clock domain.Clock) *Store {
	if debounce <= 0 {
		debounce = domain.DefaultFlushDebounce
	}
	return &Store{
		gafferDir: gafferDir,
		lockPath:  filepath.Join(gafferDir, "context", ".lock"),
		debounce:  debounce,
		clock:     clock,
	}
}

// SaveFeature writes a feature to durable storage.
func (s *Store) SaveFeature(f *domain.Feature) error {
	return s.withLockWrite(func() error {
		if f == nil {
			return errors.New("feature is nil")
		}
		if f.ID == "" {
			return errors.New("feature has no ID")
		}

		// Normalize synonym statuses from embedding integrations
		domain.NormalizeStatus(f)
		f.UpdatedAt = s.clock.Now()

		return s.writeFeature(f)
	})
}

// LoadFeature loads a feature by ID.
func (s *Store) LoadFeature(id string) (*domain.Feature, error) {
	var feature *domain.Feature
	err := s.withLock(func() error {
		f, err := s.readFeature(id)
		feature = f
		return err
	})
	return feature, err
}

// ListFeatures returns all stored features, oldest first (creation
// order; ties broken by ID).
func (s *Store) ListFeatures() ([]*domain.Feature, error) {
	var features []*domain.Feature
	err := s.withLock(func() error {
		ids, err := s.listFeatureIDs()
		if err != nil {
			return err
		}
		for _, id := range ids {
			f, err := s.readFeature(id)
			if err != nil {
				if errors.Is(err, domain.ErrFeatureNotFound) {
					continue
				}
				return err
			}
			features = append(features, f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(features, func(a, b *domain.Feature) int {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if a.CreatedAt.Before(b.CreatedAt) {
				return -1
			}
			return 1
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return features, nil
}

// UpdateStatus transitions a feature to status and persists it.
//
// JustFinishedAt is stamped when entering waiting_approval and cleared
// on every other transition. StartedAt is stamped when entering
// in_progress. A non-empty summary replaces the stored one; the error
// field always reflects errMsg so a successful run clears stale errors.
func (s *Store) UpdateStatus(id string, status domain.Status, summary, errMsg string) (*domain.Feature, error) {
	var updated *domain.Feature
	err := s.withLockWrite(func() error {
		f, err := s.readFeature(id)
		if err != nil {
			return err
		}

		target := status.Normalize()
		if f.Status != target {
			if !f.Status.CanTransitionTo(target) {
				return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, f.Status, target)
			}
			now := s.clock.Now()
			switch target {
			case domain.StatusInProgress:
				f.StartedAt = &now
				f.JustFinishedAt = nil
			case domain.StatusWaitingApproval:
				f.JustFinishedAt = &now
			default:
				f.JustFinishedAt = nil
			}
			f.Status = target
		}

		if summary != "" {
			f.Summary = summary
		}
		f.Error = errMsg
		f.UpdatedAt = s.clock.Now()

		if err := s.writeFeature(f); err != nil {
			return err
		}
		updated = f
		return nil
	})
	return updated, err
}

// TranscriptWriter returns a debounced writer for a feature's transcript.
func (s *Store) TranscriptWriter(id string) (domain.TranscriptWriter, error) {
	if !s.ContextExists(id) {
		if err := s.withLockWrite(func() error {
			return os.MkdirAll(domain.ContextDir(s.gafferDir, id), 0o750)
		}); err != nil {
			return nil, fmt.Errorf("create context directory: %w", err)
		}
	}
	return newTranscriptWriter(s, domain.TranscriptPath(s.gafferDir, id)), nil
}

// ReadTranscript returns the persisted transcript for a feature.
// A missing transcript reads as empty, not as an error.
func (s *Store) ReadTranscript(id string) (string, error) {
	var content string
	err := s.withLock(func() error {
		data, err := os.ReadFile(domain.TranscriptPath(s.gafferDir, id))
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("read transcript: %w", err)
		}
		content = string(data)
		return nil
	})
	return content, err
}

// ContextExists reports whether a feature context directory exists.
func (s *Store) ContextExists(id string) bool {
	_, err := os.Stat(domain.ContextDir(s.gafferDir, id))
	return err == nil
}

// DeleteTranscript removes a feature's transcript, keeping the feature
// record.
func (s *Store) DeleteTranscript(id string) error {
	return s.withLockWrite(func() error {
		err := os.Remove(domain.TranscriptPath(s.gafferDir, id))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove transcript: %w", err)
		}
		return nil
	})
}

// DeleteContext removes a feature's entire context directory.
func (s *Store) DeleteContext(id string) error {
	return s.withLockWrite(func() error {
		if err := os.RemoveAll(domain.ContextDir(s.gafferDir, id)); err != nil {
			return fmt.Errorf("remove context: %w", err)
		}
		return nil
	})
}

// readFeature loads and normalizes one feature.json.
func (s *Store) readFeature(id string) (*domain.Feature, error) {
	data, err := os.ReadFile(domain.FeaturePath(s.gafferDir, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFeatureNotFound, id)
		}
		return nil, fmt.Errorf("read feature: %w", err)
	}

	// Lenient decode: embedding integrations write extra fields and
	// synonym statuses; both must round-trip without breaking loads.
	var f domain.Feature
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse feature %s: %w", id, err)
	}
	domain.NormalizeStatus(&f)
	if f.ID == "" {
		f.ID = id
	}
	return &f, nil
}

// writeFeature persists one feature atomically.
func (s *Store) writeFeature(f *domain.Feature) error {
	dir := domain.ContextDir(s.gafferDir, f.ID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create context directory: %w", err)
	}

	content, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal feature: %w", err)
	}
	return writeAtomic(domain.FeaturePath(s.gafferDir, f.ID), append(content, '\n'), 0o640)
}

// listFeatureIDs returns the IDs of all feature context directories.
func (s *Store) listFeatureIDs() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.gafferDir, "context"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read context dir: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		ids = append(ids, entry.Name())
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *Store) withLock(fn func() error) error {
	lock, err := s.acquireLock(syscall.LOCK_SH)
	if err != nil {
		return err
	}
	defer releaseLock(lock)
	return fn()
}

func (s *Store) withLockWrite(fn func() error) error {
	lock, err := s.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer releaseLock(lock)
	return fn()
}

func (s *Store) acquireLock(lockType int) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return lock, nil
}

func releaseLock(lock *os.File) {
	_ = syscall.Flock(int(lock.Fd()), syscall.LOCK_UN)
	_ = lock.Close()
}

// writeAtomic writes content to path via a temp file and rename.
func writeAtomic(path string, content []byte, perm os.FileMode) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, perm); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
