// Package registry publishes release files as an OCI artifact.
package registry

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	orasregistry "oras.land/oras-go/v2/registry"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"

	"github.com/alan/commit-wizard/internal/digest"
	cwerrors "github.com/alan/commit-wizard/internal/errors"
	"github.com/alan/commit-wizard/internal/release"
)

// Name is the target name used in configuration.
const Name = "registry"

// Media and artifact types of the pushed artifact.
const (
	ArtifactType   = "application/vnd.commit-wizard.release.v1"
	LayerMediaType = "application/vnd.commit-wizard.release.file.v1"
)

// LatestTag always points at the newest release manifest.
const LatestTag = "latest"

// Credential environment variables.
const (
	EnvUsername = "REGISTRY_USERNAME"
	EnvPassword = "REGISTRY_PASSWORD"
)

// Options configure the registry target.
type Options struct {
	// Reference is the repository, e.g. ghcr.io/alan/commit-wizard. An empty
	// reference disables the target.
	Reference string
	Files     []string
	PlainHTTP bool
	// HTTPClient carries the request timeout; defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Storage replaces the remote repository, e.g. with an in-memory store.
	Storage oras.Target
}

// Target implements verifyConditions, publish and addChannel.
type Target struct {
	release.Base
	opts  Options
	ref   orasregistry.Reference
	store oras.Target
}

// New creates a registry target.
func New(opts Options) *Target {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &Target{opts: opts, store: opts.Storage}
}

// Name returns "registry".
func (t *Target) Name() string { return Name }

// Capabilities is empty when no reference is configured.
func (t *Target) Capabilities() release.Capability {
	if t.opts.Reference == "" {
		return 0
	}
	return release.CanVerifyConditions | release.CanPublish | release.CanAddChannel
}

// VerifyConditions checks the reference, the files and the credentials.
func (t *Target) VerifyConditions(_ context.Context, rc *release.Context) error {
	ref, err := orasregistry.ParseReference(t.opts.Reference)
	if err != nil {
		return cwerrors.NewPreconditionError(Name, fmt.Sprintf("invalid reference %q: %v", t.opts.Reference, err))
	}
	if ref.Reference != "" {
		return cwerrors.NewPreconditionError(Name, fmt.Sprintf("reference %q must not carry a tag or digest", t.opts.Reference))
	}
	t.ref = ref

	if len(t.opts.Files) == 0 {
		return cwerrors.NewPreconditionError(Name, "registry.files is empty")
	}
	for _, f := range t.opts.Files {
		if _, err := os.Stat(f); err != nil {
			return cwerrors.NewPreconditionError(Name, fmt.Sprintf("file %s: %v", f, err))
		}
	}

	user, pass := rc.Getenv(EnvUsername), rc.Getenv(EnvPassword)
	if (user == "") != (pass == "") {
		return cwerrors.NewPreconditionError(Name, EnvUsername+" and "+EnvPassword+" must be set together")
	}
	return nil
}

// Publish pushes every file as a layer, packs the manifest and tags it with
// the version and LatestTag.
func (t *Target) Publish(ctx context.Context, rc *release.Context) (*release.Publication, error) {
	log := rc.LoggerFor(release.PhasePublish, Name)
	store, err := t.storage(rc)
	if err != nil {
		return nil, err
	}
	version := rc.NextRelease.Version.String()

	layers := make([]ocispec.Descriptor, 0, len(t.opts.Files))
	for _, path := range t.opts.Files {
		desc, err := t.pushFile(ctx, store, path)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("file", path).Str("digest", desc.Digest.String()).Int64("size", desc.Size).Msg("layer pushed")
		layers = append(layers, desc)
	}

	manifest, err := oras.PackManifest(ctx, store, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers: layers,
		ManifestAnnotations: map[string]string{ocispec.AnnotationVersion: version},
	})
	if err != nil {
		return nil, t.remoteError("pack manifest", err)
	}

	for _, tag := range []string{version, LatestTag} {
		if err := store.Tag(ctx, manifest, tag); err != nil {
			return nil, t.remoteError("tag "+tag, err)
		}
	}
	log.Info().Str("reference", t.opts.Reference+":"+version).Str("digest", manifest.Digest.String()).Msg("artifact published")

	return &release.Publication{
		Name: t.opts.Reference + ":" + version,
		URL:  t.opts.Reference + "@" + manifest.Digest.String(),
	}, nil
}

// AddChannel tags the version manifest with the channel name.
func (t *Target) AddChannel(ctx context.Context, rc *release.Context) (*release.Publication, error) {
	channel := rc.NextRelease.Channel
	if channel == "" {
		return nil, nil
	}
	store, err := t.storage(rc)
	if err != nil {
		return nil, err
	}

	version := rc.NextRelease.Version.String()
	desc, err := store.Resolve(ctx, version)
	if err != nil {
		return nil, t.remoteError("resolve "+version, err)
	}
	if err := store.Tag(ctx, desc, channel); err != nil {
		return nil, t.remoteError("tag "+channel, err)
	}
	log := rc.LoggerFor(release.PhaseAddChannel, Name)
	log.Info().Str("channel", channel).Str("version", version).Msg("channel tagged")
	return &release.Publication{Name: t.opts.Reference + ":" + channel}, nil
}

// pushFile streams path into store unless the blob already exists.
func (t *Target) pushFile(ctx context.Context, store oras.Target, path string) (ocispec.Descriptor, error) {
	desc, err := digest.Descriptor(path, LayerMediaType)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	desc.Annotations = map[string]string{ocispec.AnnotationTitle: filepath.Base(path)}

	exists, err := store.Exists(ctx, desc)
	if err != nil {
		return ocispec.Descriptor{}, t.remoteError("check blob", err)
	}
	if exists {
		return desc, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return ocispec.Descriptor{}, &cwerrors.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	if err := store.Push(ctx, desc, f); err != nil {
		return ocispec.Descriptor{}, t.remoteError("push "+filepath.Base(path), err)
	}
	return desc, nil
}

// storage returns the configured store or connects to the remote repository.
func (t *Target) storage(rc *release.Context) (oras.Target, error) {
	if t.store != nil {
		return t.store, nil
	}
	if t.ref.Registry == "" {
		ref, err := orasregistry.ParseReference(t.opts.Reference)
		if err != nil {
			return nil, cwerrors.NewPreconditionError(Name, err.Error())
		}
		t.ref = ref
	}

	repo, err := remote.NewRepository(t.ref.String())
	if err != nil {
		return nil, cwerrors.NewPreconditionError(Name, err.Error())
	}
	repo.PlainHTTP = t.opts.PlainHTTP

	client := &auth.Client{Client: t.opts.HTTPClient, Cache: auth.NewCache()}
	if user := rc.Getenv(EnvUsername); user != "" {
		client.Credential = auth.StaticCredential(t.ref.Registry, auth.Credential{
			Username: user,
			Password: rc.Getenv(EnvPassword),
		})
	}
	repo.Client = client

	t.store = repo
	return repo, nil
}

func (t *Target) remoteError(op string, err error) error {
	return &cwerrors.RemoteAPIError{Service: "registry", Op: op, Err: err}
}
