// Package digest computes SHA-256 content digests of local and remote
// artifacts without holding them in memory.
package digest

import (
	"context"
	"io"
	"net/http"
	"os"

	godigest "github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	cwerrors "github.com/alan/commit-wizard/internal/errors"
)

// ChunkSize is the read buffer used while hashing.
const ChunkSize = 32 * 1024

// Algorithm is the digest algorithm used for every artifact.
const Algorithm = godigest.SHA256

// Sum streams r into a digester and returns the resulting digest together
// with the number of bytes read.
func Sum(r io.Reader) (godigest.Digest, int64, error) {
	d := Algorithm.Digester()
	buf := make([]byte, ChunkSize)
	n, err := io.CopyBuffer(d.Hash(), r, buf)
	if err != nil {
		return "", n, err
	}
	return d.Digest(), n, nil
}

// Digest returns the lowercase hex SHA-256 of everything read from r.
func Digest(r io.Reader) (string, error) {
	d, _, err := Sum(r)
	if err != nil {
		return "", &cwerrors.IOError{Op: "read", Path: "stream", Err: err}
	}
	return d.Encoded(), nil
}

// File returns the hex digest of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &cwerrors.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	d, _, err := Sum(f)
	if err != nil {
		return "", &cwerrors.IOError{Op: "read", Path: path, Err: err}
	}
	return d.Encoded(), nil
}

// Fetch downloads url with client and returns the hex digest of the body. A
// non-2xx response is an *errors.IOError carrying the status code.
func Fetch(ctx context.Context, client *http.Client, url string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &cwerrors.IOError{Op: "fetch", Path: url, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &cwerrors.IOError{Op: "fetch", Path: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &cwerrors.IOError{Op: "fetch", Path: url, Status: resp.StatusCode}
	}

	d, _, err := Sum(resp.Body)
	if err != nil {
		return "", &cwerrors.IOError{Op: "fetch", Path: url, Err: err}
	}
	return d.Encoded(), nil
}

// Descriptor describes the file at path as an OCI content descriptor with the
// given media type.
func Descriptor(path, mediaType string) (ocispec.Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return ocispec.Descriptor{}, &cwerrors.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	d, size, err := Sum(f)
	if err != nil {
		return ocispec.Descriptor{}, &cwerrors.IOError{Op: "read", Path: path, Err: err}
	}
	return ocispec.Descriptor{
		MediaType: mediaType,
		Digest:    d,
		Size:      size,
	}, nil
}
