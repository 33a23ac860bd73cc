package testutils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"terminal-terrace/testmaker/packages/storage"
)

var ErrInjected = errors.New("injected storage failure")

// MemoryStore is an in-memory storage.ObjectStore with failure injection
type MemoryStore struct {
	mu         sync.Mutex
	baseURL    string
	objects    map[string]memObject
	uploads    int
	failUpload map[int]bool
	failDelete map[string]bool
	now        func() time.Time
}

type memObject struct {
	data        []byte
	contentType string
	modTime     time.Time
}

var _ storage.ObjectStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		baseURL:    "http://minio:9000/testmaker",
		objects:    make(map[string]memObject),
		failUpload: make(map[int]bool),
		failDelete: make(map[string]bool),
		now:        time.Now,
	}
}

// FailUploadNumber makes the n-th upload from now on (1-based) fail
func (s *MemoryStore) FailUploadNumber(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpload[s.uploads+n] = true
}

// FailDelete makes deletes of objectName fail
func (s *MemoryStore) FailDelete(objectName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDelete[objectName] = true
}

// Put stores an object directly, bypassing failure injection
func (s *MemoryStore) Put(objectName string, data []byte, modTime time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectName] = memObject{data: data, modTime: modTime}
	return s.baseURL + "/" + objectName
}

func (s *MemoryStore) Has(objectName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[objectName]
	return ok
}

// Names returns all stored object names sorted
func (s *MemoryStore) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.objects))
	for name := range s.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *MemoryStore) Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	if s.failUpload[s.uploads] {
		return "", fmt.Errorf("upload %s: %w", objectName, ErrInjected)
	}
	s.objects[objectName] = memObject{data: data, contentType: contentType, modTime: s.now()}
	return s.baseURL + "/" + objectName, nil
}

func (s *MemoryStore) Delete(ctx context.Context, objectName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete[objectName] {
		return fmt.Errorf("delete %s: %w", objectName, ErrInjected)
	}
	if _, ok := s.objects[objectName]; !ok {
		return fmt.Errorf("delete %s: %w", objectName, storage.ErrObjectNotFound)
	}
	delete(s.objects, objectName)
	return nil
}

func (s *MemoryStore) Presign(ctx context.Context, objectName string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("%s/%s?expires=%d", s.baseURL, objectName, int64(ttl.Seconds())), nil
}

func (s *MemoryStore) Exists(ctx context.Context, objectName string) (bool, error) {
	return s.Has(objectName), nil
}

func (s *MemoryStore) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.ObjectInfo
	for name, obj := range s.objects {
		if strings.HasPrefix(name, prefix) {
			out = append(out, storage.ObjectInfo{Name: name, Size: int64(len(obj.data)), LastModified: obj.modTime})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) ObjectName(url string) (string, error) {
	return storage.ObjectNameFromURL(s.baseURL, url)
}
