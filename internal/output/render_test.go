package output

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeops/sensorctl/internal/api"
)

func testItems() []Renderable {
	return []Renderable{
		api.Definition{ID: "d1", Name: "crah unit", AssetType: "Crah", AssociatedAssets: 2},
		api.Definition{ID: "d2", Name: "ups bank", AssetType: "Ups"},
	}
}

func TestWriteRecords(t *testing.T) {
	var buf bytes.Buffer
	WriteRecords(&buf, testItems())

	out := buf.String()
	assert.Contains(t, out, "---- [0] ----\n")
	assert.Contains(t, out, "---- [1] ----\n")
	assert.Contains(t, out, "name: crah unit")
	assert.Contains(t, out, "name: ups bank")
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defs.csv")
	require.NoError(t, WriteCSV(path, testItems()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,name,assetType,associatedAssets\nd1,crah unit,Crah,2\nd2,ups bank,Ups,0\n", string(raw))
}

func TestWriteCSVRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defs.csv")
	require.NoError(t, os.WriteFile(path, []byte("keep me"), 0o600))

	err := WriteCSV(path, testItems())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileExists))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(raw))
}

func TestWriteCSVRequiresFilename(t *testing.T) {
	assert.True(t, errors.Is(WriteCSV("", testItems()), ErrNoFilename))
}

func TestHandleUnknownType(t *testing.T) {
	err := Handle("xml", "", testItems())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}
