// Package artifact 管理每个请求私有的临时 MP3 文件。
//
// 每个 Artifact 都有唯一的文件名，只属于一个请求，并且必须在响应
// 结束后通过 Release 删除。
package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/BaSui01/speechgate/internal/audio"
	"github.com/BaSui01/speechgate/internal/pool"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	filePrefix = "tts-"
	fileSuffix = ".mp3"
)

// Store creates artifacts in one directory.
type Store struct {
	dir    string
	live   atomic.Int64
	logger *zap.Logger
}

// NewStore prepares dir (created with 0700 if missing). An empty dir means
// the system temp directory.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		dir:    dir,
		logger: logger.With(zap.String("component", "artifact")),
	}, nil
}

// Dir returns the artifact directory.
func (s *Store) Dir() string { return s.dir }

// Live returns the number of artifacts created and not yet released.
func (s *Store) Live() int64 { return s.live.Load() }

// Pattern is the glob matching every artifact file name.
func (s *Store) Pattern() string { return filePrefix + "*" + fileSuffix }

// Create opens a new, empty artifact file.
func (s *Store) Create() (*Artifact, error) {
	f, err := os.CreateTemp(s.dir, filePrefix+uuid.NewString()+"-*"+fileSuffix)
	if err != nil {
		return nil, fmt.Errorf("create artifact: %w", err)
	}
	s.live.Add(1)
	return &Artifact{file: f, store: s}, nil
}

// Stage copies r into a new artifact and checks that it holds a decodable
// MP3 stream. On any error nothing is left on disk.
func (s *Store) Stage(r io.Reader) (*Artifact, error) {
	a, err := s.Create()
	if err != nil {
		return nil, err
	}

	if _, err := a.Fill(r); err != nil {
		a.Release()
		return nil, err
	}
	if _, err := audio.ProbeMP3(a.file); err != nil {
		a.Release()
		return nil, err
	}
	if err := a.Rewind(); err != nil {
		a.Release()
		return nil, err
	}
	return a, nil
}

// CheckWritable creates and removes a probe file.
func (s *Store) CheckWritable() error {
	f, err := os.CreateTemp(s.dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("artifact dir %s not writable: %w", s.dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// Artifact is one staged MP3 file. It is not safe for concurrent use
// except for Release.
type Artifact struct {
	file  *os.File
	store *Store
	size  int64
	once  sync.Once
}

// Name returns the file base name.
func (a *Artifact) Name() string { return filepath.Base(a.file.Name()) }

// Size returns the number of bytes written.
func (a *Artifact) Size() int64 { return a.size }

// Fill appends r to the artifact and leaves the offset at the start.
func (a *Artifact) Fill(r io.Reader) (int64, error) {
	n, err := pool.Copy(a.file, r)
	a.size += n
	if err != nil {
		return n, fmt.Errorf("write artifact: %w", err)
	}
	if err := a.Rewind(); err != nil {
		return n, err
	}
	return n, nil
}

// Rewind seeks back to the first byte.
func (a *Artifact) Rewind() error {
	if _, err := a.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind artifact: %w", err)
	}
	return nil
}

// Read reads audio bytes.
func (a *Artifact) Read(p []byte) (int, error) { return a.file.Read(p) }

// Seek implements io.Seeker for http.ServeContent.
func (a *Artifact) Seek(offset int64, whence int) (int64, error) {
	return a.file.Seek(offset, whence)
}

// Release closes and deletes the file. It is idempotent.
func (a *Artifact) Release() {
	a.once.Do(func() {
		path := a.file.Name()
		if err := a.file.Close(); err != nil {
			a.store.logger.Debug("close artifact", zap.String("path", path), zap.Error(err))
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			a.store.logger.Warn("failed to delete artifact", zap.String("path", path), zap.Error(err))
		}
		a.store.live.Add(-1)
	})
}
