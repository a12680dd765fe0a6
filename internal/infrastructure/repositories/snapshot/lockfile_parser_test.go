//go:build unit

package snapshot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
	"github.com/rios0rios0/bumplog/internal/infrastructure/repositories/snapshot"
)

func TestParserFor(t *testing.T) {
	t.Parallel()

	t.Run("should pick a parser for every known lockfile", func(t *testing.T) {
		t.Parallel()

		for _, lockfile := range []string{
			"Pipfile.lock",
			"requirements.txt",
			"deploy/requirements-dev.txt",
			"go.mod",
			"package-lock.json",
			"npm-shrinkwrap.json",
			".terraform.lock.hcl",
			"infra/main.tf",
		} {
			// when
			parser, err := snapshot.ParserFor(lockfile)

			// then
			require.NoError(t, err, lockfile)
			assert.NotNil(t, parser, lockfile)
		}
	})

	t.Run("should reject an unknown lockfile", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := snapshot.ParserFor("Cargo.lock")

		// then
		require.ErrorIs(t, err, entities.ErrUnsupportedLockfile)
	})
}

func TestParsePipfileLock(t *testing.T) {
	t.Parallel()

	t.Run("should read the default section", func(t *testing.T) {
		t.Parallel()

		// given
		content := []byte(`{
  "_meta": {"hash": {"sha256": "abc"}},
  "default": {
    "Django": {"hashes": ["sha256:1"], "version": "==4.2.1"},
    "zope.interface": {"version": "==6.0"},
    "invenio-app": {"git": "https://github.com/inveniosoftware/invenio-app.git", "ref": "f3a1c2d"},
    "editable-pkg": {"editable": true, "path": "."}
  },
  "develop": {
    "pytest": {"version": "==7.4.0"}
  }
}`)

		// when
		versions, err := snapshot.ParsePipfileLock(content)

		// then
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"django":         "4.2.1",
			"zope-interface": "6.0",
			"git+https://github.com/inveniosoftware/invenio-app.git": "f3a1c2d",
		}, versions)
	})

	t.Run("should fail on malformed content", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := snapshot.ParsePipfileLock([]byte("{not json"))

		// then
		require.Error(t, err)
	})
}

func TestParseRequirements(t *testing.T) {
	t.Parallel()

	// given
	content := []byte(`# generated by pip-compile
--index-url https://pypi.org/simple
-r base.txt

Django==4.2.1 \
    --hash=sha256:abc
requests[socks]==2.31.0  # via -r requirements.in
importlib_metadata==6.8.0 ; python_version < "3.10"
flask>=2.0
invenio-app @ git+https://github.com/inveniosoftware/invenio-app.git@v1.0.2
local-pkg @ file:///srv/local-pkg
`)

	// when
	versions, err := snapshot.ParseRequirements(content)

	// then
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"django":             "4.2.1",
		"requests":           "2.31.0",
		"importlib-metadata": "6.8.0",
		"git+https://github.com/inveniosoftware/invenio-app.git": "v1.0.2",
	}, versions)
}

func TestCanonicalizePythonName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected string
	}{
		{name: "Django", expected: "django"},
		{name: "zope.interface", expected: "zope-interface"},
		{name: "typing__extensions", expected: "typing-extensions"},
		{name: "  Foo-._Bar ", expected: "foo-bar"},
	}

	for _, tt := range tests {
		t.Run("should canonicalize "+tt.name, func(t *testing.T) {
			t.Parallel()

			// when
			canonical := snapshot.CanonicalizePythonName(tt.name)

			// then
			assert.Equal(t, tt.expected, canonical)
		})
	}
}

func TestParsePackageLock(t *testing.T) {
	t.Parallel()

	t.Run("should read top-level packages of a v3 lockfile", func(t *testing.T) {
		t.Parallel()

		// given
		content := []byte(`{
  "name": "app",
  "lockfileVersion": 3,
  "packages": {
    "": {"name": "app", "version": "1.0.0"},
    "node_modules/react": {"version": "18.2.0"},
    "node_modules/@babel/core": {"version": "7.23.0"},
    "node_modules/react/node_modules/loose-envify": {"version": "1.4.0"},
    "node_modules/workspace-pkg": {"resolved": "packages/ws", "link": true}
  }
}`)

		// when
		versions, err := snapshot.ParsePackageLock(content)

		// then
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"react":       "18.2.0",
			"@babel/core": "7.23.0",
		}, versions)
	})

	t.Run("should fall back to the dependencies of a v1 lockfile", func(t *testing.T) {
		t.Parallel()

		// given
		content := []byte(`{
  "lockfileVersion": 1,
  "dependencies": {
    "lodash": {"version": "4.17.21"},
    "left-pad": {"version": "1.3.0"}
  }
}`)

		// when
		versions, err := snapshot.ParsePackageLock(content)

		// then
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"lodash": "4.17.21", "left-pad": "1.3.0"}, versions)
	})
}

func TestParseGoMod(t *testing.T) {
	t.Parallel()

	t.Run("should read direct and indirect requirements", func(t *testing.T) {
		t.Parallel()

		// given
		content := []byte(`module example.com/app

go 1.22

require (
	github.com/spf13/cobra v1.10.2
	golang.org/x/mod v0.34.0 // indirect
)

replace github.com/spf13/cobra => ../cobra
`)

		// when
		versions, err := snapshot.ParseGoMod(content)

		// then
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"github.com/spf13/cobra": "v1.10.2",
			"golang.org/x/mod":       "v0.34.0",
		}, versions)
	})

	t.Run("should fail on a malformed go.mod", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := snapshot.ParseGoMod([]byte("module example.com/app\n\nrequire github.com/spf13/cobra\n"))

		// then
		require.Error(t, err)
	})
}
