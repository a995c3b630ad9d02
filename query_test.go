package rowdb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rowdb"
)

func TestQueryResetClearsPredicates(t *testing.T) {
	db, err := rowdb.New[Employee]()
	require.NoError(t, err)
	require.NoError(t, db.Append(Employee{ID: 1, Name: "Ada", IsManager: true}))
	require.NoError(t, db.Append(Employee{ID: 2, Name: "Bea", IsManager: false}))

	q := db.Query().Bool("IsManager", true)
	res, ok := q.Execute()
	require.True(t, ok)
	assert.Equal(t, 1, res.CountOnes())

	q.Reset()
	res, ok = q.Execute()
	require.True(t, ok)
	assert.Equal(t, 2, res.CountOnes(), "a reset query with no predicates matches every row")
}

// TestQuerySetterOrderCommutes mirrors distilled spec Q5: permuting the
// setter calls must not change the result.
func TestQuerySetterOrderCommutes(t *testing.T) {
	db, err := rowdb.New[Employee]()
	require.NoError(t, err)
	require.NoError(t, db.Append(Employee{ID: 1, Name: "Ada", IsManager: true, Department: "Eng"}))
	require.NoError(t, db.Append(Employee{ID: 2, Name: "Bea", IsManager: true, Department: "Sales"}))
	require.NoError(t, db.Append(Employee{ID: 3, Name: "Cid", IsManager: false, Department: "Eng"}))

	resA, okA := db.Query().Bool("IsManager", true).Map("Department", Department("Eng")).Execute()
	resB, okB := db.Query().Map("Department", Department("Eng")).Bool("IsManager", true).Execute()

	require.Equal(t, okA, okB)
	require.True(t, okA)
	assert.Equal(t, resA.CountOnes(), resB.CountOnes())
	rowA, _ := resA.First()
	rowB, _ := resB.First()
	assert.Equal(t, rowA.ID, rowB.ID)
}

func TestQueryNoMatchesReturnsFalse(t *testing.T) {
	db, err := rowdb.New[Employee]()
	require.NoError(t, err)
	require.NoError(t, db.Append(Employee{ID: 1, Name: "Ada", IsManager: false}))

	_, ok := db.Query().Bool("IsManager", true).Execute()
	assert.False(t, ok)
}

func TestQueryUnknownFieldPanics(t *testing.T) {
	db, err := rowdb.New[Employee]()
	require.NoError(t, err)

	assert.Panics(t, func() { db.Query().Bool("NoSuchField", true) })
	assert.Panics(t, func() { db.Query().Map("NoSuchField", Department("Eng")) })
}
