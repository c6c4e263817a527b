// manager_test.go - Tests for storage layer
package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

var uuidPrefix = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

func TestNewLocalStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")

	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, dir, store.Dir())
}

func TestNewName(t *testing.T) {
	t.Run("upload name keeps original", func(t *testing.T) {
		name := NewName("flows.dss", "")
		assert.Regexp(t, uuidPrefix, name)
		assert.True(t, strings.HasSuffix(name, "_flows.dss"), name)
	})

	t.Run("artifact name has extension only", func(t *testing.T) {
		name := NewName("", "png")
		assert.Regexp(t, `^[0-9a-f-]{36}\.png$`, name)
	})

	t.Run("directory components are stripped", func(t *testing.T) {
		name := NewName(`..\..\etc/passwd`, "")
		assert.NoError(t, ValidateName(name))
		assert.True(t, strings.HasSuffix(name, "_passwd"), name)
	})

	t.Run("names never collide", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 1000; i++ {
			name := NewName("same.dss", "")
			_, dup := seen[name]
			require.False(t, dup, "duplicate name %s", name)
			seen[name] = struct{}{}
		}
	})
}

func TestValidateName(t *testing.T) {
	valid := []string{"abc.png", "0b9e_file.dss"}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), name)
	}

	invalid := []string{"", ".", "..", "../secret", "a/b.png", `a\b.png`, ".hidden"}
	for _, name := range invalid {
		err := ValidateName(name)
		assert.True(t, errors.Is(err, ErrInvalidName), "expected ErrInvalidName for %q", name)
	}
}

func TestLocalStore_SaveAndOpen(t *testing.T) {
	store := createTestStore(t)

	info, err := store.Save("a.dss", strings.NewReader("binary-content"))
	require.NoError(t, err)
	assert.Equal(t, "a.dss", info.Name)
	assert.Equal(t, int64(len("binary-content")), info.Size)

	rc, opened, err := store.Open("a.dss")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "binary-content", string(data))
	assert.Equal(t, info.Size, opened.Size)
}

func TestLocalStore_SaveDoesNotOverwrite(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Save("a.dss", strings.NewReader("first"))
	require.NoError(t, err)

	_, err = store.Save("a.dss", strings.NewReader("second"))
	assert.Error(t, err)

	data, err := os.ReadFile(filepath.Join(store.Dir(), "a.dss"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestLocalStore_OpenMissing(t *testing.T) {
	store := createTestStore(t)

	_, _, err := store.Open("missing.png")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = store.Stat("missing.png")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = store.Remove("missing.png")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	parent := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("s"), 0644))

	store, err := NewLocalStore(filepath.Join(parent, "exports"))
	require.NoError(t, err)

	_, _, err = store.Open("../secret.txt")
	assert.True(t, errors.Is(err, ErrInvalidName))

	_, err = store.Save("../escape.txt", strings.NewReader("x"))
	assert.True(t, errors.Is(err, ErrInvalidName))
	_, statErr := os.Stat(filepath.Join(parent, "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocalStore_CreateCommit(t *testing.T) {
	store := createTestStore(t)

	pf, err := store.Create("chart.png")
	require.NoError(t, err)
	assert.Equal(t, "chart.png", pf.Name())

	_, err = pf.Write([]byte("png-bytes"))
	require.NoError(t, err)

	// Not visible before commit
	_, err = store.Stat("chart.png")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, pf.Commit())

	info, err := store.Stat("chart.png")
	require.NoError(t, err)
	assert.Equal(t, int64(len("png-bytes")), info.Size)

	assert.Error(t, pf.Commit(), "second commit must fail")
}

func TestLocalStore_CreateAbort(t *testing.T) {
	store := createTestStore(t)

	pf, err := store.Create("chart.png")
	require.NoError(t, err)
	_, _ = pf.Write([]byte("partial"))
	pf.Abort()

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "abort must leave no partial file behind")
}

func TestLocalStore_ListNewestFirst(t *testing.T) {
	store := createTestStore(t)

	for _, name := range []string{"old.png", "new.png"} {
		_, err := store.Save(name, strings.NewReader(name))
		require.NoError(t, err)
	}
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.Dir(), "old.png"), past, past))

	// Temp files are not listed
	pf, err := store.Create("pending.png")
	require.NoError(t, err)
	defer pf.Abort()

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new.png", list[0].Name)
	assert.Equal(t, "old.png", list[1].Name)
}

func TestLocalStore_Remove(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Save("x.png", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, store.Remove("x.png"))

	_, err = store.Stat("x.png")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStore_Check(t *testing.T) {
	store := createTestStore(t)
	require.NoError(t, store.Check())

	files, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, files, "check must not leave files behind")

	require.NoError(t, os.RemoveAll(store.Dir()))
	assert.Error(t, store.Check())
}
