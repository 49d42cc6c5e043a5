package installer

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radlab-launcher/internal/config"
	"radlab-launcher/internal/manifest"
)

type archiveEntry struct {
	name string
	body string
	mode int64
	dir  bool
	link string
}

var sdkEntries = []archiveEntry{
	{name: "google-cloud-sdk/", dir: true, mode: 0755},
	{name: "google-cloud-sdk/install.sh", body: "#!/bin/sh\n", mode: 0755},
	{name: "google-cloud-sdk/bin/", dir: true, mode: 0755},
	{name: "google-cloud-sdk/bin/gcloud", body: "#!/bin/sh\n", mode: 0755},
	{name: "google-cloud-sdk/bin/gcloud-crc32c", body: "#!/bin/sh\n", mode: 0755},
	{name: "google-cloud-sdk/bin/kubectl", body: "#!/bin/sh\n", mode: 0755},
	{name: "google-cloud-sdk/bin/README", body: "docs\n", mode: 0644},
	{name: "google-cloud-sdk/bin/k", link: "kubectl"},
}

func tarGz(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: e.mode, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		switch {
		case e.dir:
			hdr.Typeflag, hdr.Size = tar.TypeDir, 0
		case e.link != "":
			hdr.Typeflag, hdr.Linkname, hdr.Size = tar.TypeSymlink, e.link, 0
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func zipOf(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, e := range entries {
		if e.link != "" {
			continue
		}
		hdr := &zip.FileHeader{Name: e.name, Method: zip.Deflate}
		mode := os.FileMode(e.mode)
		if e.dir {
			mode |= os.ModeDir
		}
		hdr.SetMode(mode)
		w, err := zw.CreateHeader(hdr)
		require.NoError(t, err)
		if !e.dir {
			_, err = w.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func serve(t *testing.T, path string, body []byte) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + path
}

func TestInstallCloudSDKArchive(t *testing.T) {
	cfg := newWorkspace(t)
	cfg.CloudSDK.Method = config.MethodArchive
	cfg.CloudSDK.URL = serve(t, "/sdk/google-cloud-sdk.tar.gz", tarGz(t, sdkEntries))
	fx := &fakeExec{}
	in := newTestInstaller(t, cfg, fx)

	artifacts, err := in.InstallCloudSDK(context.Background())
	require.NoError(t, err)

	sdkRoot := filepath.Join(cfg.InstallDir, "google-cloud-sdk")
	gcloud := filepath.Join(sdkRoot, "bin", "gcloud")
	assert.Equal(t, [][]string{
		{"/bin/sh", filepath.Join(sdkRoot, "install.sh"), "--quiet"},
		{gcloud, "components", "install", "kubectl", "--quiet"},
	}, fx.calls)

	assert.Equal(t, []manifest.Artifact{
		{Kind: manifest.KindFile, Path: filepath.Join(cfg.InstallDir, "downloads", "google-cloud-sdk.tar.gz")},
		{Kind: manifest.KindDir, Path: sdkRoot},
		{Kind: manifest.KindFile, Path: filepath.Join(cfg.BinDir, "gcloud")},
		{Kind: manifest.KindFile, Path: filepath.Join(cfg.BinDir, "kubectl")},
	}, artifacts)

	target, err := os.Readlink(filepath.Join(cfg.BinDir, "kubectl"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(sdkRoot, "bin", "kubectl"), target)

	link, err := os.Readlink(filepath.Join(sdkRoot, "bin", "k"))
	require.NoError(t, err)
	assert.Equal(t, "kubectl", link)
}

func TestInstallCloudSDKArchiveTwiceReplacesLinks(t *testing.T) {
	cfg := newWorkspace(t)
	cfg.CloudSDK.Method = config.MethodArchive
	cfg.CloudSDK.URL = serve(t, "/google-cloud-sdk.tar.gz", tarGz(t, sdkEntries))
	in := newTestInstaller(t, cfg, &fakeExec{})

	first, err := in.InstallCloudSDK(context.Background())
	require.NoError(t, err)
	second, err := in.InstallCloudSDK(context.Background())
	require.NoError(t, err)

	// The second run found the first run's links and recorded them as replaced.
	require.Len(t, second, 4)
	for _, a := range second[2:] {
		assert.Equal(t, manifest.KindBackup, a.Kind, a.Path)
	}

	// Rolling back the second run only puts the first run's links back.
	require.NoError(t, in.Remove(context.Background(), second[2:]))
	target, err := os.Readlink(filepath.Join(cfg.BinDir, "gcloud"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.InstallDir, "google-cloud-sdk", "bin", "gcloud"), target)

	require.NoError(t, in.Remove(context.Background(), first[2:]))
	assert.NoFileExists(t, filepath.Join(cfg.BinDir, "gcloud"))
	_, err = os.Lstat(filepath.Join(cfg.BinDir, "kubectl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestInstallCloudSDKArchiveDownloadFailure(t *testing.T) {
	cfg := newWorkspace(t)
	cfg.CloudSDK.Method = config.MethodArchive
	present := serve(t, "/present.tar.gz", nil)
	cfg.CloudSDK.URL = strings.TrimSuffix(present, "/present.tar.gz") + "/missing.tar.gz"
	fx := &fakeExec{}

	artifacts, err := newTestInstaller(t, cfg, fx).InstallCloudSDK(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP status 404")
	assert.Empty(t, artifacts)
	assert.Empty(t, fx.calls)
}

func TestInstallCloudSDKArchiveMissingComponent(t *testing.T) {
	cfg := newWorkspace(t)
	cfg.CloudSDK.Method = config.MethodArchive
	cfg.CloudSDK.Components = []string{"kubectl", "skaffold"}
	cfg.CloudSDK.URL = serve(t, "/google-cloud-sdk.zip", zipOf(t, sdkEntries))

	artifacts, err := newTestInstaller(t, cfg, &fakeExec{}).InstallCloudSDK(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skaffold")
	assert.Contains(t, artifacts, manifest.Artifact{Kind: manifest.KindDir, Path: filepath.Join(cfg.InstallDir, "google-cloud-sdk")})
}

func TestExtractArchiveRejectsEscapingEntries(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.tar.gz")
	require.NoError(t, os.WriteFile(archive, tarGz(t, []archiveEntry{
		{name: "../outside.txt", body: "x", mode: 0644},
	}), 0644))

	_, err := ExtractArchive(archive, filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes")
	assert.NoFileExists(t, filepath.Join(dir, "outside.txt"))

	archive = filepath.Join(dir, "evil-link.tar.gz")
	require.NoError(t, os.WriteFile(archive, tarGz(t, []archiveEntry{
		{name: "sdk/bin/passwd", link: "/etc/passwd"},
	}), 0644))
	_, err = ExtractArchive(archive, filepath.Join(dir, "out2"))
	assert.Error(t, err)

	// Each link looks in-tree on its own; together they point at dest's parent.
	archive = filepath.Join(dir, "link-chain.tar.gz")
	require.NoError(t, os.WriteFile(archive, tarGz(t, []archiveEntry{
		{name: "a", link: "."},
		{name: "a/b", link: ".."},
		{name: "a/b/evil", body: "x", mode: 0644},
	}), 0644))
	_, err = ExtractArchive(archive, filepath.Join(dir, "out3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolves outside")
	assert.NoFileExists(t, filepath.Join(dir, "evil"))

	// A regular file entry must not be written through a link planted earlier.
	outside := filepath.Join(dir, "victim")
	require.NoError(t, os.MkdirAll(outside, 0755))
	archive = filepath.Join(dir, "write-through.tar.gz")
	require.NoError(t, os.WriteFile(archive, tarGz(t, []archiveEntry{
		{name: "sdk/", dir: true, mode: 0755},
		{name: "sdk/up", link: "."},
		{name: "sdk/up/../../victim/owned", body: "x", mode: 0644},
	}), 0644))
	_, err = ExtractArchive(archive, filepath.Join(dir, "out4"))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(outside, "owned"))
}

func TestExtractArchiveFollowsInTreeLinks(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "sdk.tar.gz")
	require.NoError(t, os.WriteFile(archive, tarGz(t, []archiveEntry{
		{name: "sdk/", dir: true, mode: 0755},
		{name: "sdk/lib/", dir: true, mode: 0755},
		{name: "sdk/current", link: "lib"},
		{name: "sdk/current/tool", body: "#!/bin/sh\n", mode: 0755},
		{name: "sdk/bin/tool", link: "../current/tool"},
	}), 0644))

	root, err := ExtractArchive(archive, filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "lib", "tool"))
	data, err := os.ReadFile(filepath.Join(root, "bin", "tool"))
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\n", string(data))
}

func TestExtractArchiveZipAndUnsupported(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "sdk.zip")
	require.NoError(t, os.WriteFile(archive, zipOf(t, sdkEntries), 0644))

	root, err := ExtractArchive(archive, filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "google-cloud-sdk"), root)
	assert.FileExists(t, filepath.Join(root, "bin", "kubectl"))

	found, err := findExecutables(filepath.Join(root, "bin"), "gcloud")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "bin", "gcloud"),
		filepath.Join(root, "bin", "gcloud-crc32c"),
	}, found)

	_, err = ExtractArchive(filepath.Join(dir, "sdk.rar"), filepath.Join(dir, "out"))
	assert.ErrorContains(t, err, "unsupported archive format")
}
