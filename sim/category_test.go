package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCategoryDefinition_RejectsEmptyAndDuplicates(t *testing.T) {
	_, err := NewCategoryDefinition("empty", nil)
	assert.Error(t, err)

	_, err = NewCategoryDefinition("dup", []Category{{Code: 1, Name: "a"}, {Code: 1, Name: "b"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"a"`)
	assert.Contains(t, err.Error(), `"b"`)
}

func TestCategoryDefinition_Lookups(t *testing.T) {
	cd := testCategories(t)

	assert.Equal(t, "lithology", cd.DefinitionName())
	assert.Equal(t, 3, cd.Count())
	assert.Equal(t, 20, cd.Code(1))
	assert.Equal(t, "coal", cd.Name(2))
	assert.Equal(t, 2, cd.Index(30))
	assert.Equal(t, -1, cd.Index(99), "unknown code has no index")
	assert.True(t, cd.CodeExists(10))
	assert.False(t, cd.CodeExists(testNDV))

	code, ok := cd.CodeByName("shale")
	assert.True(t, ok)
	assert.Equal(t, 20, code)
	_, ok = cd.CodeByName("granite")
	assert.False(t, ok)
}
