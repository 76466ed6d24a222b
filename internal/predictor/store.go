package predictor

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"
)

var (
	// ErrModelNotFound 表示尚未持久化过该类模型。
	ErrModelNotFound = errors.New("model not found")
	// ErrChecksumMismatch 表示模型文件内容与校验和不符。
	ErrChecksumMismatch = errors.New("model checksum mismatch")
)

// Kind 标识模型种类。
type Kind string

const (
	KindScore    Kind = "score"
	KindSequence Kind = "sequence"
)

func (k Kind) fileName() string {
	return string(k) + "_model.json"
}

// ModelStore 是模型持久化接口。
type ModelStore interface {
	Load(kind Kind, dst any) error
	Save(kind Kind, src any) error
}

type envelope struct {
	Kind     Kind            `json:"kind"`
	ID       string          `json:"id"`
	SavedAt  time.Time       `json:"saved_at"`
	Checksum string          `json:"checksum"`
	Payload  json.RawMessage `json:"payload"`
}

// FileStore 把模型以 JSON 信封的形式保存在目录中，信封携带 BLAKE2b-256 校验和。
// 写入先落到同目录临时文件再 rename，已有的有效文件不会被写坏。
type FileStore struct {
	dir string
	log zerolog.Logger

	mu      sync.Mutex
	written map[Kind]string
}

// NewFileStore 创建目录（如不存在）并返回存储。
func NewFileStore(dir string, log zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}
	return &FileStore{
		dir:     dir,
		log:     log.With().Str("component", "model_store").Logger(),
		written: make(map[Kind]string),
	}, nil
}

// Dir 返回模型目录。
func (s *FileStore) Dir() string {
	return s.dir
}

// Path 返回某类模型的文件路径。
func (s *FileStore) Path(kind Kind) string {
	return filepath.Join(s.dir, kind.fileName())
}

// Save 序列化 src 并原子地替换模型文件。
func (s *FileStore) Save(kind Kind, src any) error {
	payload, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode %s model: %w", kind, err)
	}
	sum := blake2b.Sum256(payload)
	env := envelope{
		Kind:     kind,
		ID:       uuid.NewString(),
		SavedAt:  time.Now().UTC(),
		Checksum: hex.EncodeToString(sum[:]),
		Payload:  payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", kind, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+string(kind)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}

	s.mu.Lock()
	s.written[kind] = env.Checksum
	s.mu.Unlock()

	if err := os.Rename(tmpName, s.Path(kind)); err != nil {
		cleanup()
		return fmt.Errorf("replace %s model: %w", kind, err)
	}
	s.log.Debug().Str("kind", string(kind)).Str("id", env.ID).Int("bytes", len(data)).Msg("model saved")
	return nil
}

// Load 读取并校验模型文件，再反序列化到 dst。
func (s *FileStore) Load(kind Kind, dst any) error {
	env, err := s.readEnvelope(kind)
	if err != nil {
		return err
	}
	sum := blake2b.Sum256(env.Payload)
	if hex.EncodeToString(sum[:]) != env.Checksum {
		return fmt.Errorf("%s: %w", kind, ErrChecksumMismatch)
	}
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		return fmt.Errorf("decode %s model: %w", kind, err)
	}
	return nil
}

func (s *FileStore) readEnvelope(kind Kind) (envelope, error) {
	data, err := os.ReadFile(s.Path(kind))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return envelope{}, fmt.Errorf("%s: %w", kind, ErrModelNotFound)
		}
		return envelope{}, fmt.Errorf("read %s model: %w", kind, err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, fmt.Errorf("decode %s envelope: %w", kind, err)
	}
	if env.Kind != kind {
		return envelope{}, fmt.Errorf("model file holds %q, want %q", env.Kind, kind)
	}
	return env, nil
}

// Watch 监听模型目录，其他进程替换模型文件时回调 onChange。
// 本进程自己写入的文件会被忽略。阻塞直到 ctx 结束。
func (s *FileStore) Watch(ctx context.Context, onChange func(Kind)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	kinds := map[string]Kind{
		KindScore.fileName():    KindScore,
		KindSequence.fileName(): KindSequence,
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			kind, known := kinds[filepath.Base(event.Name)]
			if !known || s.isOwnWrite(kind) {
				continue
			}
			s.log.Info().Str("kind", string(kind)).Str("op", event.Op.String()).Msg("model file changed on disk")
			onChange(kind)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn().Err(err).Msg("model watcher error")
		}
	}
}

func (s *FileStore) isOwnWrite(kind Kind) bool {
	env, err := s.readEnvelope(kind)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written[kind] == env.Checksum
}
