package project

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDerivesFields(t *testing.T) {
	p := New("/home/dev/myproject/")

	assert.Equal(t, "/home/dev/myproject", p.Path)
	assert.Equal(t, "myproject", p.Name)
	assert.True(t, strings.HasPrefix(p.CollectionID, "col_"))
	assert.Len(t, p.CollectionID, 4+16)
}

func TestCollectionIDStable(t *testing.T) {
	assert.Equal(t, CollectionID("/a/b"), CollectionID("/a/b"))
	// Clean-equivalent paths share a collection.
	assert.Equal(t, CollectionID("/a/b"), CollectionID("/a/b/"))
	assert.Equal(t, CollectionID("/a/b"), CollectionID("/a/./b"))
}

func TestCollectionIDDistinct(t *testing.T) {
	assert.NotEqual(t, CollectionID("/a/b"), CollectionID("/a/c"))
}
