package registry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/memory"

	cwerrors "github.com/alan/commit-wizard/internal/errors"
	"github.com/alan/commit-wizard/internal/release"
)

const testReference = "ghcr.io/alan/commit-wizard"

func writeFiles(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{"CHANGELOG.md": "## 1.2.0\n", "commit-wizard.tar.gz": "archive"}
	var paths []string
	for name, body := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
		paths = append(paths, p)
	}
	return paths
}

func newContext(env map[string]string) *release.Context {
	rc := release.NewContext(zerolog.Nop())
	rc.Env = func(key string) string { return env[key] }
	rc.NextRelease = release.NextRelease{Version: semver.MustParse("1.2.0"), Tag: "v1.2.0"}
	return rc
}

func TestCapabilitiesWithoutReference(t *testing.T) {
	assert.Equal(t, release.Capability(0), New(Options{}).Capabilities())
	assert.True(t, New(Options{Reference: testReference}).Capabilities().Has(release.CanPublish))
}

func TestVerifyConditions(t *testing.T) {
	files := writeFiles(t)

	tests := []struct {
		name    string
		opts    Options
		env     map[string]string
		wantErr bool
	}{
		{name: "ok", opts: Options{Reference: testReference, Files: files}},
		{name: "with credentials", opts: Options{Reference: testReference, Files: files},
			env: map[string]string{EnvUsername: "alan", EnvPassword: "secret"}},
		{name: "invalid reference", opts: Options{Reference: "not a reference", Files: files}, wantErr: true},
		{name: "tagged reference", opts: Options{Reference: testReference + ":v1", Files: files}, wantErr: true},
		{name: "no files", opts: Options{Reference: testReference}, wantErr: true},
		{name: "missing file", opts: Options{Reference: testReference, Files: []string{"/does/not/exist"}}, wantErr: true},
		{name: "partial credentials", opts: Options{Reference: testReference, Files: files},
			env: map[string]string{EnvUsername: "alan"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.opts).VerifyConditions(context.Background(), newContext(tt.env))
			if tt.wantErr {
				assert.ErrorIs(t, err, cwerrors.ErrPrecondition)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	files := writeFiles(t)
	target := New(Options{Reference: testReference, Files: files, Storage: store})
	rc := newContext(nil)
	require.NoError(t, target.VerifyConditions(ctx, rc))

	pub, err := target.Publish(ctx, rc)
	require.NoError(t, err)
	require.NotNil(t, pub)
	assert.Equal(t, testReference+":1.2.0", pub.Name)

	desc, err := store.Resolve(ctx, "1.2.0")
	require.NoError(t, err)
	latest, err := store.Resolve(ctx, LatestTag)
	require.NoError(t, err)
	assert.Equal(t, desc.Digest, latest.Digest)
	assert.Equal(t, testReference+"@"+desc.Digest.String(), pub.URL)

	raw, err := content.FetchAll(ctx, store, desc)
	require.NoError(t, err)
	var manifest ocispec.Manifest
	require.NoError(t, json.Unmarshal(raw, &manifest))
	assert.Equal(t, ArtifactType, manifest.ArtifactType)
	assert.Equal(t, "1.2.0", manifest.Annotations[ocispec.AnnotationVersion])
	require.Len(t, manifest.Layers, len(files))
	for _, layer := range manifest.Layers {
		assert.Equal(t, LayerMediaType, layer.MediaType)
		assert.NotEmpty(t, layer.Annotations[ocispec.AnnotationTitle])
		exists, err := store.Exists(ctx, layer)
		require.NoError(t, err)
		assert.True(t, exists)
	}

	_, err = target.Publish(ctx, rc)
	require.NoError(t, err, "republishing existing blobs succeeds")
}

func TestAddChannel(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	target := New(Options{Reference: testReference, Files: writeFiles(t), Storage: store})
	rc := newContext(nil)

	pub, err := target.AddChannel(ctx, rc)
	require.NoError(t, err)
	assert.Nil(t, pub, "no channel means nothing to tag")

	_, err = target.Publish(ctx, rc)
	require.NoError(t, err)

	rc.NextRelease.Channel = "next"
	pub, err = target.AddChannel(ctx, rc)
	require.NoError(t, err)
	assert.Equal(t, testReference+":next", pub.Name)

	version, err := store.Resolve(ctx, "1.2.0")
	require.NoError(t, err)
	channel, err := store.Resolve(ctx, "next")
	require.NoError(t, err)
	assert.Equal(t, version.Digest, channel.Digest)
}

func TestAddChannelUnknownVersion(t *testing.T) {
	target := New(Options{Reference: testReference, Storage: memory.New()})
	rc := newContext(nil)
	rc.NextRelease.Channel = "next"

	_, err := target.AddChannel(context.Background(), rc)
	assert.ErrorIs(t, err, cwerrors.ErrRemoteAPI)
}
