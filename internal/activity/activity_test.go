package activity

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stockcount/pkg/types"
)

func item(code string) types.InventoryItem {
	return types.InventoryItem{ID: "id-" + code, Code: code}
}

func TestLog_NewestFirst(t *testing.T) {
	l := New(10)
	l.Add(item("A"), ChangeRecorded)
	l.AddAll([]types.InventoryItem{item("B"), item("C")}, ChangeImported)

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "C", entries[0].Item.Code)
	assert.Equal(t, "B", entries[1].Item.Code)
	assert.Equal(t, "A", entries[2].Item.Code)
	assert.Equal(t, ChangeImported, entries[0].Change)
	assert.Equal(t, entries[0].Timestamp, entries[1].Timestamp, "a batch shares one timestamp")
	assert.NotEqual(t, entries[0].ID, entries[1].ID)

	codes := []string{}
	for _, it := range l.Items() {
		codes = append(codes, it.Code)
	}
	assert.Equal(t, []string{"C", "B", "A"}, codes)
}

func TestLog_Capacity(t *testing.T) {
	l := New(3)
	for i := 0; i < 5; i++ {
		l.Add(item(fmt.Sprint(i)), ChangeRecorded)
	}

	assert.Equal(t, 3, l.Len())
	entries := l.Entries()
	assert.Equal(t, "4", entries[0].Item.Code)
	assert.Equal(t, "2", entries[2].Item.Code)
}

func TestLog_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New(0).capacity)
}

func TestLog_EntriesIsACopy(t *testing.T) {
	l := New(5)
	l.Add(item("A"), ChangeAdded)
	entries := l.Entries()
	entries[0].Change = "mutated"
	assert.Equal(t, ChangeAdded, l.Entries()[0].Change)
}

func TestLog_Clear(t *testing.T) {
	l := New(5)
	l.Add(item("A"), ChangeAdded)
	l.Clear()
	assert.Zero(t, l.Len())
	assert.Empty(t, l.Entries())
}

func TestLog_Timestamp(t *testing.T) {
	l := New(5)
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	e := l.Add(item("A"), ChangeAdded)
	assert.Equal(t, fixed, e.Timestamp)
}

func TestLog_Concurrent(t *testing.T) {
	l := New(1000)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				l.Add(item("X"), ChangeRecorded)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 200, l.Len())
}
