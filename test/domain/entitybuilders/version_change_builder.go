//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/bumplog/internal/domain/entities"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// VersionChangeBuilder helps create test version changes with a fluent interface.
type VersionChangeBuilder struct {
	*testkit.BaseBuilder
	pkg        string
	oldVersion string
	newVersion string
}

// NewVersionChangeBuilder creates a new version change builder with sensible defaults.
func NewVersionChangeBuilder() *VersionChangeBuilder {
	return &VersionChangeBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		pkg:         "test-package",
		oldVersion:  "1.0.0",
		newVersion:  "1.1.0",
	}
}

// WithPackage sets the package name.
func (b *VersionChangeBuilder) WithPackage(pkg string) *VersionChangeBuilder {
	b.pkg = pkg
	return b
}

// WithOldVersion sets the version before the change.
func (b *VersionChangeBuilder) WithOldVersion(version string) *VersionChangeBuilder {
	b.oldVersion = version
	return b
}

// WithNewVersion sets the version after the change.
func (b *VersionChangeBuilder) WithNewVersion(version string) *VersionChangeBuilder {
	b.newVersion = version
	return b
}

// AsAddition makes the package absent before the change.
func (b *VersionChangeBuilder) AsAddition() *VersionChangeBuilder {
	b.oldVersion = entities.AbsentVersion
	return b
}

// AsRemoval makes the package absent after the change.
func (b *VersionChangeBuilder) AsRemoval() *VersionChangeBuilder {
	b.newVersion = entities.AbsentVersion
	return b
}

// Build creates the version change (satisfies testkit.Builder interface).
func (b *VersionChangeBuilder) Build() interface{} {
	return b.BuildVersionChange()
}

// BuildVersionChange creates the version change with a concrete return type.
func (b *VersionChangeBuilder) BuildVersionChange() entities.VersionChange {
	return entities.VersionChange{
		Package:    b.pkg,
		OldVersion: b.oldVersion,
		NewVersion: b.newVersion,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *VersionChangeBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.pkg = "test-package"
	b.oldVersion = "1.0.0"
	b.newVersion = "1.1.0"
	return b
}

// Clone creates a deep copy of the VersionChangeBuilder.
func (b *VersionChangeBuilder) Clone() testkit.Builder {
	return &VersionChangeBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		pkg:         b.pkg,
		oldVersion:  b.oldVersion,
		newVersion:  b.newVersion,
	}
}
