package rowdb_test

import (
	"testing"

	"rowdb"
)

// FuzzAppendAndQuery is the Go-native replacement for the corpus's
// cargo-fuzz harness: it hammers Append and Query with arbitrary inputs and
// checks the invariants that must hold regardless of content (distilled
// spec I6, Q4) rather than any specific expected value.
func FuzzAppendAndQuery(f *testing.F) {
	f.Add(uint32(1), "Ada", true, "Eng")
	f.Add(uint32(1), "Ada", false, "Sales")
	f.Add(uint32(0), "", false, "any")

	f.Fuzz(func(t *testing.T, id uint32, name string, isManager bool, dept string) {
		db, err := rowdb.New[Employee]()
		if err != nil {
			t.Fatal(err)
		}

		before := db.Len()
		appendErr := db.Append(Employee{ID: id, Name: name, IsManager: isManager, Department: Department(dept)})
		after := db.Len()

		if appendErr == nil {
			if after != before+1 {
				t.Fatalf("successful append did not grow Len by exactly one: %d -> %d", before, after)
			}
		} else if after != before {
			t.Fatalf("failed append mutated Len: %d -> %d", before, after)
		}

		res, ok := db.Query().Bool("IsManager", isManager).Execute()
		if !ok {
			return
		}
		if res.CountOnes() > db.Len() {
			t.Fatalf("result has more matches (%d) than rows exist (%d)", res.CountOnes(), db.Len())
		}
		row, found := res.First()
		if !found {
			t.Fatalf("Execute reported ok=true but First found nothing")
		}
		if row.IsManager != isManager {
			t.Fatalf("matched row does not satisfy the predicate it matched under")
		}
	})
}
