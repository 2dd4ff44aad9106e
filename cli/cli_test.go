package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbnb-cleaner/services"
	"airbnb-cleaner/storage"
	"airbnb-cleaner/utils"
)

var fullArgs = []string{
	"--input_artifact", "sample.csv:latest",
	"--output_artifact", "clean_sample.csv",
	"--output_type", "clean_sample",
	"--output_description", "Data with outliers and null values removed",
	"--min_price", "10",
	"--max_price", "350",
}

func execute(t *testing.T, args []string) (Options, bool, error) {
	t.Helper()
	var got Options
	called := false
	cmd := NewRootCommand(func(_ context.Context, opts Options) error {
		called = true
		got = opts
		return nil
	})
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())
	return got, called, err
}

func TestRootCommandParsesFlags(t *testing.T) {
	opts, called, err := execute(t, append(fullArgs, "--config", "cfg.yaml", "--work_dir", "/tmp/work"))
	require.NoError(t, err)
	require.True(t, called)

	assert.Equal(t, "cfg.yaml", opts.ConfigPath)
	assert.Equal(t, services.Params{
		InputArtifact:     "sample.csv:latest",
		OutputArtifact:    "clean_sample.csv",
		OutputType:        "clean_sample",
		OutputDescription: "Data with outliers and null values removed",
		MinPrice:          10,
		MaxPrice:          350,
		WorkDir:           "/tmp/work",
		OutputFileName:    services.DefaultOutputFileName,
	}, opts.Params)
}

func TestRootCommandRequiresFlags(t *testing.T) {
	for i := 0; i < len(fullArgs); i += 2 {
		flag := fullArgs[i]
		t.Run(flag, func(t *testing.T) {
			args := append(append([]string{}, fullArgs[:i]...), fullArgs[i+2:]...)
			_, called, err := execute(t, args)
			require.Error(t, err)
			assert.False(t, called)
			assert.Contains(t, err.Error(), flag[2:])
		})
	}
}

func TestRootCommandRejectsBadPrice(t *testing.T) {
	args := append([]string{}, fullArgs...)
	args[9] = "cheap"
	_, called, err := execute(t, args)
	require.Error(t, err)
	assert.False(t, called)
}

func TestRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	root := filepath.Join(dir, "artifacts")

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf("artifacts:\n  root: %s\n", root)), 0o644))

	reg, err := storage.OpenRegistry(ctx, storage.DialectSQLite, filepath.Join(root, "registry.db"))
	require.NoError(t, err)
	store, err := storage.NewFileStore(root, reg, utils.NewNopLogger())
	require.NoError(t, err)
	src := filepath.Join(dir, "sample.csv")
	require.NoError(t, os.WriteFile(src, []byte(
		"price,longitude,latitude,last_review\n"+
			"50,-73.9,40.7,2019-05-21\n"+
			"500,-73.9,40.7,2019-05-21\n"), 0o644))
	_, err = store.Publish(ctx, src, "sample.csv", "raw_data", "raw")
	require.NoError(t, err)
	require.NoError(t, reg.Close())

	var out bytes.Buffer
	opts := Options{ConfigPath: cfgPath, Params: services.Params{
		InputArtifact:     "sample.csv:latest",
		OutputArtifact:    "clean_sample.csv",
		OutputType:        "clean_sample",
		OutputDescription: "cleaned",
		MinPrice:          10,
		MaxPrice:          350,
	}}
	require.NoError(t, Run(ctx, opts, &out))
	assert.Contains(t, out.String(), "clean_sample.csv:v1")

	blob, err := os.ReadFile(filepath.Join(root, "clean_sample.csv", "v1", services.DefaultOutputFileName))
	require.NoError(t, err)
	assert.Equal(t, "price,longitude,latitude,last_review\n50,-73.9,40.7,2019-05-21\n", string(blob))
}

func TestRunUnknownArtifact(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf("artifacts:\n  root: %s\n", dir)), 0o644))

	err := Run(context.Background(), Options{ConfigPath: cfgPath, Params: services.Params{
		InputArtifact:  "nothing.csv",
		OutputArtifact: "out.csv",
		OutputType:     "clean_sample",
	}}, &bytes.Buffer{})

	var nf *storage.ArtifactNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nothing.csv", nf.Ref)
}
