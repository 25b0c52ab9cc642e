package selection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/tabledef/internal/schema"
	"github.com/kadirbelkuyu/tabledef/internal/selection"
)

func table(name, remark string, columns ...string) schema.TableDefinition {
	def := schema.TableDefinition{Name: name, Remark: remark}
	for _, col := range columns {
		def.Columns = append(def.Columns, schema.ColumnDefinition{Name: col, Type: "int"})
	}
	return def
}

func TestAddPutsNewestFirstAndReplacesByName(t *testing.T) {
	set := selection.NewSet()
	set.Add(table("User", "", "Id"))
	set.Add(table("Order", "", "Id"))
	set.Add(table("User", "updated", "Id", "Name"))

	assert.Equal(t, []string{"User", "Order"}, set.Names())

	user, ok := set.Get("User")
	require.True(t, ok)
	assert.Equal(t, "updated", user.Remark)
	assert.Len(t, user.Columns, 2)
}

func TestIdentityIsCaseSensitive(t *testing.T) {
	set := selection.NewSet()
	set.Add(table("user", ""))
	set.Add(table("User", ""))

	assert.Equal(t, 2, set.Len())
	_, ok := set.Get("USER")
	assert.False(t, ok)

	found, ok := set.Find("USER")
	require.True(t, ok)
	assert.Equal(t, "User", found.Name, "most recent entry wins a case-insensitive lookup")
}

func TestRemove(t *testing.T) {
	set := selection.NewSet()
	set.Add(table("A", ""))
	set.Add(table("B", ""))
	set.Add(table("C", ""))

	assert.Equal(t, 2, set.Remove("A", "C", "Missing"))
	assert.Equal(t, []string{"B"}, set.Names())
	assert.Equal(t, 0, set.Remove("Missing"))
}

func TestReplaceAllKeepsOrderAndDropsDuplicates(t *testing.T) {
	set := selection.NewSet()
	set.Add(table("Old", ""))

	set.ReplaceAll([]schema.TableDefinition{table("B", "1"), table("A", "2"), table("B", "3")})
	assert.Equal(t, []string{"B", "A"}, set.Names())
	assert.Equal(t, []schema.SelectionEntry{{TableName: "B", Remark: "1"}, {TableName: "A", Remark: "2"}}, set.Entries())
}

func TestStoredDefinitionsAreCopies(t *testing.T) {
	set := selection.NewSet()
	def := table("User", "r", "Id")
	set.Add(def)

	def.Columns[0].Name = "mutated"
	out := set.Tables()
	out[0].Columns[0].Name = "also mutated"

	got, _ := set.Get("User")
	assert.Equal(t, "Id", got.Columns[0].Name)
}

func TestOnChangeNotifications(t *testing.T) {
	set := selection.NewSet()

	var changes []selection.Change
	set.OnChange(func(c selection.Change) { changes = append(changes, c) })

	set.Add(table("A", ""))
	set.Remove("nope")
	set.Remove("A")
	set.ReplaceAll([]schema.TableDefinition{table("B", ""), table("C", "")})
	set.Clear()
	set.Clear()

	require.Len(t, changes, 4)
	assert.Equal(t, selection.ChangeAdded, changes[0].Kind)
	assert.Equal(t, selection.ChangeRemoved, changes[1].Kind)
	assert.Equal(t, []string{"A"}, changes[1].Names)
	assert.Equal(t, selection.ChangeReplaced, changes[2].Kind)
	assert.Equal(t, 2, changes[2].Len)
	assert.Equal(t, selection.ChangeCleared, changes[3].Kind)
	assert.Equal(t, 0, changes[3].Len)
}

func TestOnChangeUnsubscribe(t *testing.T) {
	set := selection.NewSet()

	var first, second int
	stop := set.OnChange(func(selection.Change) { first++ })
	set.OnChange(func(selection.Change) { second++ })

	set.Add(table("A", ""))
	stop()
	stop()
	set.Add(table("B", ""))

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}
