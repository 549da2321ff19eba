package backup

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/mlahtinen/paced/internal/database"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu       sync.Mutex
	objects  map[string][]byte
	modified map[string]time.Time
	putErr   error
	getErr   error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{
		objects:  make(map[string][]byte),
		modified: make(map[string]time.Time),
	}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	m.modified[*input.Key] = time.Now().UTC()
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3NotFound{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	delete(m.modified, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (m *mockS3Client) ListObjectsV2(_ context.Context, input *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := &s3.ListObjectsV2Output{}
	for key, data := range m.objects {
		k := key
		mod := m.modified[key]
		out.Contents = append(out.Contents, types.Object{
			Key:          &k,
			Size:         aws.Int64(int64(len(data))),
			LastModified: &mod,
		})
	}
	return out, nil
}

type s3NotFound struct{}

func (e *s3NotFound) Error() string { return "NoSuchKey" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupBackupManager(t *testing.T) (*Manager, *mockS3Client) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "paced.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(Config{
		S3:            S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		DBPath:        dbPath,
		Passphrase:    "correct horse battery staple",
		RetentionDays: 30,
	}, db, testLogger())

	mock := newMockS3()
	m.client = mock
	return m, mock
}

func TestManagerDisabledWithoutConfig(t *testing.T) {
	m := NewManager(Config{}, nil, testLogger())
	if m.Status().Enabled {
		t.Error("expected disabled manager without S3 config")
	}
	if _, err := m.RunNow(context.Background()); err == nil {
		t.Error("expected RunNow to fail when disabled")
	}

	// Passphrase missing also disables, even with S3 credentials.
	m2 := NewManager(Config{
		S3: S3Config{Bucket: "b", AccessKey: "k", SecretKey: "s"},
	}, nil, testLogger())
	if m2.Status().Enabled {
		t.Error("expected disabled manager without passphrase")
	}
}

func TestRunNowUploadsDecryptableSnapshot(t *testing.T) {
	m, mock := setupBackupManager(t)

	key, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run now: %v", err)
	}

	mock.mu.Lock()
	data, ok := mock.objects[key]
	mock.mu.Unlock()
	if !ok {
		t.Fatalf("snapshot %q not uploaded", key)
	}

	plaintext, err := Decrypt(data, "correct horse battery staple")
	if err != nil {
		t.Fatalf("decrypt snapshot: %v", err)
	}
	if !bytes.HasPrefix(plaintext, []byte("SQLite format 3")) {
		t.Error("decrypted snapshot is not a SQLite database")
	}

	if _, err := Decrypt(data, "wrong passphrase"); err == nil {
		t.Error("expected decryption to fail with wrong passphrase")
	}

	st := m.Status()
	if st.LastBackup == nil {
		t.Error("expected last backup timestamp")
	}
	if st.LastError != "" {
		t.Errorf("unexpected error status: %s", st.LastError)
	}
}

func TestListAndDownload(t *testing.T) {
	m, _ := setupBackupManager(t)

	key, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run now: %v", err)
	}

	objects, err := m.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(objects) != 1 || objects[0].Key != key {
		t.Fatalf("objects = %v, want the one snapshot", objects)
	}
	if objects[0].SizeBytes == 0 {
		t.Error("expected non-zero snapshot size")
	}

	body, size, err := m.Download(context.Background(), key)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if int64(len(data)) != size {
		t.Errorf("size = %d, read %d bytes", size, len(data))
	}
}

func TestPruneRemovesExpiredSnapshots(t *testing.T) {
	m, mock := setupBackupManager(t)

	mock.mu.Lock()
	mock.objects[keyPrefix+"old.db.enc"] = []byte("stale")
	mock.modified[keyPrefix+"old.db.enc"] = time.Now().UTC().AddDate(0, 0, -60)
	mock.mu.Unlock()

	// RunNow prunes after uploading.
	if _, err := m.RunNow(context.Background()); err != nil {
		t.Fatalf("run now: %v", err)
	}

	mock.mu.Lock()
	_, oldExists := mock.objects[keyPrefix+"old.db.enc"]
	count := len(mock.objects)
	mock.mu.Unlock()

	if oldExists {
		t.Error("expected expired snapshot to be pruned")
	}
	if count != 1 {
		t.Errorf("expected only the fresh snapshot, got %d objects", count)
	}
}
