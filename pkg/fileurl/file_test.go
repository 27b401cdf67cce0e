package fileurl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePathAndIsExist(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "config", "nested", "config.yaml")

	assert.False(t, IsExist(filepath.Dir(target)))
	require.NoError(t, CreatePath(target, os.ModePerm))
	assert.True(t, IsExist(filepath.Dir(target)))
	assert.False(t, IsExist(target))
}
