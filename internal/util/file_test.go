package util

import (
	"github.com/stretchr/testify/assert"
	"os"
	"path/filepath"
	"testing"
)

func requireRoot(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("changing file ownership requires root")
	}
}

func TestFileHasPermissionsUserIsRoot(t *testing.T) {
	// GIVEN
	requireRoot(t)
	filePath := "./testfile"

	filePerm := os.FileMode(0o700)
	file, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, filePerm)
	assert.NoError(t, err)
	err = os.Chown(filePath, 0, 1000)
	assert.NoError(t, err)
	err = os.Chmod(filePath, filePerm)
	assert.NoError(t, err)

	defer file.Close()
	defer os.Remove(filePath)

	// WHEN
	result, err := CheckFilePermissionsForExecution(filePath)

	// THEN
	assert.Equal(t, true, result)
	assert.NoError(t, err)
}

func TestFileHasPermissionsGroupIsRootAndHasWrite(t *testing.T) {
	// GIVEN
	requireRoot(t)
	filePath := "./testfile"

	filePerm := os.FileMode(0o770)
	file, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, filePerm)
	assert.NoError(t, err)
	err = os.Chown(filePath, 0, 0)
	assert.NoError(t, err)
	err = os.Chmod(filePath, filePerm)
	assert.NoError(t, err)

	defer file.Close()
	defer os.Remove(filePath)

	// WHEN
	result, err := CheckFilePermissionsForExecution(filePath)

	// THEN
	assert.Equal(t, true, result)
	assert.NoError(t, err)
}

func TestFileHasPermissionsGroupOtherThanRootHasWritePermission(t *testing.T) {
	// GIVEN
	requireRoot(t)
	filePath := "./testfile"

	filePerm := os.FileMode(0o720)
	file, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, filePerm)
	assert.NoError(t, err)
	err = os.Chown(filePath, 0, 1000)
	assert.NoError(t, err)
	err = os.Chmod(filePath, filePerm)
	assert.NoError(t, err)

	defer file.Close()
	defer os.Remove(filePath)

	// WHEN
	result, err := CheckFilePermissionsForExecution(filePath)

	// THEN
	assert.Equal(t, false, result)
	assert.Error(t, err)
}

func TestFileHasPermissionsOtherHasWritePermission(t *testing.T) {
	// GIVEN
	requireRoot(t)
	filePath := "./testfile"

	filePerm := os.FileMode(0o702)
	file, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, filePerm)
	assert.NoError(t, err)
	err = os.Chown(filePath, 0, 1000)
	assert.NoError(t, err)
	err = os.Chmod(filePath, filePerm)
	assert.NoError(t, err)

	defer file.Close()
	defer os.Remove(filePath)

	// WHEN
	result, err := CheckFilePermissionsForExecution(filePath)

	// THEN
	assert.Equal(t, false, result)
	assert.Error(t, err)
}

func TestWriteFileAtomic(t *testing.T) {
	// GIVEN
	filePath := filepath.Join(t.TempDir(), "snapshot.json")
	err := os.WriteFile(filePath, []byte("old content"), 0644)
	assert.NoError(t, err)

	// WHEN
	err = WriteFileAtomic(filePath, []byte("new"))

	// THEN
	assert.NoError(t, err)
	content, err := os.ReadFile(filePath)
	assert.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestExpandHomeDir_NoTilde(t *testing.T) {
	// GIVEN
	path := "/etc/ecfan/ecfan.yaml"

	// WHEN
	result, err := ExpandHomeDir(path)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, path, result)
}
