package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/candidate"
)

func sampleRecord() *candidate.Record {
	years := 5.0
	return &candidate.Record{
		Consent:          true,
		FullName:         "Ada Lovelace",
		Email:            "Ada@gmail.com",
		Phone:            "+16502530000",
		YearsExperience:  &years,
		DesiredPositions: []string{"Backend Engineer", "MLE"},
		CurrentLocation:  "London, United Kingdom",
		TechStack:        &candidate.TechStack{Languages: []string{"Python"}, Frameworks: []string{}, Databases: []string{}, Tools: []string{"Docker"}},
		Language:         "en",
	}
}

// runContract exercises the behaviour every driver shares.
func runContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("record round trip", func(t *testing.T) {
		rec := sampleRecord()
		require.NoError(t, s.SaveRecord(ctx, "abc123", rec))

		got, err := s.LoadRecord(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, rec, got)

		rec.FullName = "Ada King"
		require.NoError(t, s.SaveRecord(ctx, "abc123", rec))
		got, err = s.LoadRecord(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, "Ada King", got.FullName)
	})

	t.Run("list is sorted", func(t *testing.T) {
		require.NoError(t, s.SaveRecord(ctx, "aaa", sampleRecord()))
		ids, err := s.ListRecords(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"aaa", "abc123"}, ids)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeleteRecord(ctx, "aaa"))
		assert.ErrorIs(t, s.DeleteRecord(ctx, "aaa"), ErrNotFound)

		_, err := s.LoadRecord(ctx, "aaa")
		assert.ErrorIs(t, err, ErrNotFound)

		ids, err := s.ListRecords(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"abc123"}, ids)
	})

	t.Run("invalid id", func(t *testing.T) {
		assert.ErrorIs(t, s.SaveRecord(ctx, "../etc/passwd", sampleRecord()), ErrInvalidID)
		_, err := s.LoadRecord(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidID)
	})

	t.Run("profile by email", func(t *testing.T) {
		_, err := s.LoadProfile(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)

		p := &candidate.Profile{Language: "hi", PreferredDifficulty: "advanced", RecentTopics: []string{"Python", "Docker"}}
		require.NoError(t, s.SaveProfile(ctx, "Ada@gmail.com", p))

		got, err := s.LoadProfile(ctx, "ada@GMAIL.com ")
		require.NoError(t, err)
		assert.Equal(t, p, got)

		assert.ErrorIs(t, s.SaveProfile(ctx, "", p), ErrInvalidID)
	})
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	runContract(t, s)
}

func TestFileStoreIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(dir+"/candidates/notes.txt", []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(dir+"/candidates/empty.json", nil, 0o644))

	ids, err := s.ListRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"empty"}, ids)

	_, err = s.LoadRecord(context.Background(), "empty")
	assert.ErrorIs(t, err, ErrNotFound)
}

// flakyFile buffers writes and fails on Close.
type flakyFile struct {
	bytes.Buffer
	closeErr error
}

func (f *flakyFile) Close() error { return f.closeErr }

func TestWriteJSONReportsCloseError(t *testing.T) {
	diskFull := errors.New("no space left on device")
	f := &flakyFile{closeErr: diskFull}

	err := writeJSONTo("abc.json", sampleRecord(), func(string) (io.WriteCloser, error) { return f, nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, diskFull)
	assert.Contains(t, f.String(), `"full_name": "Ada Lovelace"`)

	f = &flakyFile{}
	require.NoError(t, writeJSONTo("abc.json", sampleRecord(), func(string) (io.WriteCloser, error) { return f, nil }))
}

func TestWriteJSONKeepsEncodeError(t *testing.T) {
	f := &flakyFile{closeErr: errors.New("close failed")}

	err := writeJSONTo("bad.json", map[string]any{"ch": make(chan int)}, func(string) (io.WriteCloser, error) { return f, nil })
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "close failed")
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	s, err := NewRedisStore(context.Background(), "redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	runContract(t, s)

	assert.True(t, mr.Exists("test:candidate:abc123"))
	assert.True(t, mr.Exists("test:profile:ada@gmail.com"))
}

func TestRedisStoreUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedisStore(context.Background(), "redis://"+addr, "", nil)
	assert.Error(t, err)

	_, err = NewRedisStore(context.Background(), "not a url", "", nil)
	assert.Error(t, err)
}

func TestRedisStoreDefaultPrefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "", nil)
	require.NoError(t, s.SaveRecord(context.Background(), "x1", sampleRecord()))
	assert.True(t, mr.Exists(DefaultPrefix+":candidate:x1"))
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), Config{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	_, ok := s.(*FileStore)
	assert.True(t, ok)

	_, err = Open(context.Background(), Config{Driver: "mongo"}, nil)
	assert.Error(t, err)
}

func TestSaveConsented(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)

	rec := sampleRecord()
	rec.Consent = false
	assert.ErrorIs(t, SaveConsented(context.Background(), s, "abc", rec), ErrNoConsent)

	rec.Consent = true
	require.NoError(t, SaveConsented(context.Background(), s, "abc", rec))
}

func TestPostgresStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TALENTSCOUT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TALENTSCOUT_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dsn, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.pool.Exec(ctx, `TRUNCATE candidates, profiles`)
	require.NoError(t, err)

	runContract(t, s)
}
