package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/grid-eta-service/internal/mockdata"
	"github.com/couchcryptid/grid-eta-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBundle(t *testing.T) (modelDir, dataDir string) {
	t.Helper()
	dir := t.TempDir()
	modelDir, dataDir = filepath.Join(dir, "models"), filepath.Join(dir, "data")
	b, err := mockdata.Generate(mockdata.Options{Seed: 3, Records: 200, Trees: 4, Depth: 3})
	require.NoError(t, err)
	require.NoError(t, b.Write(modelDir, dataDir))
	return modelDir, dataDir
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_MockBundlePasses(t *testing.T) {
	modelDir, dataDir := writeBundle(t)

	var out bytes.Buffer
	code := run(&out, modelDir, dataDir, "", discardLogger())

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "All validations passed.")
}

func TestRun_MissingArtifactFails(t *testing.T) {
	modelDir, dataDir := writeBundle(t)
	require.NoError(t, os.Remove(filepath.Join(modelDir, model.RegressorFile)))

	var out bytes.Buffer
	code := run(&out, modelDir, dataDir, "", discardLogger())

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), model.RegressorFile+" did not load")
	assert.Contains(t, out.String(), "skipped: not all artifacts loaded")
}

func TestRun_FaultTypeMissingFromEncoder(t *testing.T) {
	modelDir, dataDir := writeBundle(t)
	enc, err := model.NewLabelEncoder([]string{"Leak", "Motor Failure", "Sensor Fault"})
	require.NoError(t, err)
	require.NoError(t, model.WriteJSON(filepath.Join(modelDir, model.FaultEncoderFile), enc))

	var out bytes.Buffer
	code := run(&out, modelDir, dataDir, "", discardLogger())

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), `"Short Circuit"`)
}
