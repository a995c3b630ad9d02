package tagspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmpty(t *testing.T) {
	tag, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, Tag{}, tag)
}

func TestParseFilterAny(t *testing.T) {
	tag, err := Parse("filter, any")
	require.NoError(t, err)
	assert.True(t, tag.Filter)
	assert.True(t, tag.Any)
	assert.False(t, tag.Key)
}

func TestParseUnknownOption(t *testing.T) {
	_, err := Parse("bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown rowdb tag option")
}

func TestValidateRejectsKeyAndFilter(t *testing.T) {
	tag := Tag{Key: true, Filter: true}
	require.Error(t, tag.Validate())
}

func TestValidateRejectsKeyAndAny(t *testing.T) {
	tag := Tag{Key: true, Any: true}
	require.Error(t, tag.Validate())
}

func TestValidateRejectsSkipWithOthers(t *testing.T) {
	tag := Tag{Skip: true, Filter: true}
	require.Error(t, tag.Validate())
}

func TestValidateAcceptsPlainFilter(t *testing.T) {
	tag := Tag{Filter: true}
	require.NoError(t, tag.Validate())
}

func TestParseDirective(t *testing.T) {
	d, err := ParseDirective("name=EmployeeDB validator=validateEmployee")
	require.NoError(t, err)
	assert.Equal(t, "EmployeeDB", d.Name)
	assert.Equal(t, "validateEmployee", d.Validator)
}

func TestParseDirectiveUnknownKey(t *testing.T) {
	_, err := ParseDirective("bogus=1")
	require.Error(t, err)
}

func TestParseDirectiveMalformed(t *testing.T) {
	_, err := ParseDirective("name")
	require.Error(t, err)
}
