//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
)

func TestNewCommitRecord(t *testing.T) {
	t.Parallel()

	t.Run("should split summary and body without co-author trailers", func(t *testing.T) {
		t.Parallel()

		// given
		message := "Fixed the ORM regression\n\n- first item\n* second item\n\nCo-authored-by: Jane <jane@example.com>\n"

		// when
		record := entities.NewCommitRecord("django", message, "")

		// then
		assert.Equal(t, "django", record.Package)
		assert.Equal(t, "Fixed the ORM regression", record.Summary)
		assert.Equal(t, []string{"first item", "second item"}, record.Body)
		assert.False(t, record.Warning)
	})

	t.Run("should rewrite bare references with the repository name", func(t *testing.T) {
		t.Parallel()

		// given
		message := "Fixed pagination (#123)"

		// when
		record := entities.NewCommitRecord("invenio-app", message, "inveniosoftware/invenio-app")

		// then
		assert.Equal(t, "Fixed pagination (inveniosoftware/invenio-app#123)", record.Summary)
		assert.Equal(t, "inveniosoftware/invenio-app#123", record.Reference)
	})

	t.Run("should leave qualified references and words with hashes alone", func(t *testing.T) {
		t.Parallel()

		// given
		message := "Merge other/repo#7 and issue#9"

		// when
		record := entities.NewCommitRecord("pkg", message, "owner/pkg")

		// then
		assert.Equal(t, "Merge other/repo#7 and issue#9", record.Summary)
		assert.Equal(t, "other/repo#7", record.Reference)
	})
}

func TestNewUnavailableRecord(t *testing.T) {
	t.Parallel()

	t.Run("should build a warning with the reason", func(t *testing.T) {
		t.Parallel()

		// when
		record := entities.NewUnavailableRecord("requests", "rate limit exceeded")

		// then
		assert.True(t, record.Warning)
		assert.Equal(t, "history unavailable: rate limit exceeded", record.Summary)
		assert.Empty(t, record.Body)
	})
}

func TestExtractReference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{name: "should find a bare reference at the start", text: "#12 fixed", expected: "#12"},
		{name: "should find a reference in parentheses", text: "fix (#34)", expected: "#34"},
		{name: "should find a qualified reference", text: "see acme/tool#5", expected: "acme/tool#5"},
		{name: "should return empty without reference", text: "plain message", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// when
			result := entities.ExtractReference(tt.text)

			// then
			assert.Equal(t, tt.expected, result)
		})
	}
}
