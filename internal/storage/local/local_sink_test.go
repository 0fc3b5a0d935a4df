package local_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docdesk/internal/port"
	"docdesk/internal/storage/local"
)

func TestLocalSink_SavesVerbatim(t *testing.T) {
	dir := t.TempDir()
	sink, err := local.NewLocalSink(dir)
	require.NoError(t, err)

	body := []byte("<ENVELOPE>\r\n</ENVELOPE>")
	out, err := sink.Save(context.Background(), port.SaveInput{Filename: "batch_b1_tally.xml", Content: body})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "batch_b1_tally.xml"), out.Location)

	got, err := os.ReadFile(out.Location)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestLocalSink_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	sink, err := local.NewLocalSink(dir)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := sink.Save(ctx, port.SaveInput{Filename: "job.csv", Content: []byte("a")})
	require.NoError(t, err)
	second, err := sink.Save(ctx, port.SaveInput{Filename: "job.csv", Content: []byte("b")})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "job.csv"), first.Location)
	assert.Equal(t, filepath.Join(dir, "job (1).csv"), second.Location)
}

func TestLocalSink_StaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	sink, err := local.NewLocalSink(filepath.Join(dir, "nested"))
	require.NoError(t, err)

	out, err := sink.Save(context.Background(), port.SaveInput{Filename: `..\..\evil.txt`, Content: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nested", "evil.txt"), out.Location)

	out, err = sink.Save(context.Background(), port.SaveInput{Filename: "", Content: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nested", "download"), out.Location)
}
