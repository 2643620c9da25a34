package reload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/unkn0wn-root/menucache/internal/model"
)

type fakeStore struct {
	mu    sync.Mutex
	calls int
	last  []model.MenuTree
	err   error
}

func (s *fakeStore) ReplaceAll(_ context.Context, menus []model.MenuTree) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.calls++
	s.last = menus
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeCache struct {
	mu      sync.Mutex
	flushes int
	fail    int // fail this many Flush calls before succeeding
}

func (c *fakeCache) Flush(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail > 0 {
		c.fail--
		return errors.New("cache unavailable")
	}
	c.flushes++
	return nil
}

func writeWorkbook(t *testing.T, path string, rows [][]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &r))
	}
	require.NoError(t, f.SaveAs(path))
}

var sample = [][]any{
	{1, "Lunch", "midday"},
	{nil, 1, "Soups", "hot"},
	{nil, nil, nil, "Borscht", "beet", 12.5},
	{nil, nil, nil, "Shchi", "cabbage", 9},
	{nil, 2, "Salads", "cold"},
	{nil, nil, nil, "Olivier", "classic", "7.25"},
	{2, "Dinner", "evening"},
}

func TestParseRows(t *testing.T) {
	rows := [][]string{
		{"1", "Lunch", "midday"},
		{"", "1", "Soups", "hot"},
		{"", "", "", "Borscht", "beet", "12.5"},
		{},
		{"", "", "", "Shchi", "cabbage", "9"},
		{"2", "Dinner", "evening"},
	}
	menus, err := ParseRows(rows)
	require.NoError(t, err)
	require.Len(t, menus, 2)
	assert.Equal(t, "Lunch", menus[0].Title)
	require.Len(t, menus[0].Submenus, 1)
	assert.Equal(t, "Soups", menus[0].Submenus[0].Title)
	assert.Equal(t, "hot", menus[0].Submenus[0].Description)
	dishes := menus[0].Submenus[0].Dishes
	require.Len(t, dishes, 2)
	assert.Equal(t, "12.50", dishes[0].Price)
	assert.Equal(t, "9.00", dishes[1].Price)
	assert.Empty(t, menus[1].Submenus)
}

func TestParseRowsRejectsOrphans(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
	}{
		{"submenu first", [][]string{{"", "1", "Soups", "hot"}}},
		{"dish without submenu", [][]string{{"1", "Lunch", "x"}, {"", "", "", "Borscht", "beet", "1"}}},
		{"bad price", [][]string{{"1", "Lunch", "x"}, {"", "1", "Soups", "hot"}, {"", "", "", "Borscht", "beet", "free"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRows(tt.rows)
			assert.Error(t, err)
		})
	}
}

func TestReadWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Menu.xlsx")
	writeWorkbook(t, path, sample)

	menus, err := ReadWorkbook(path)
	require.NoError(t, err)
	require.Len(t, menus, 2)
	require.Len(t, menus[0].Submenus, 2)
	assert.Len(t, menus[0].Submenus[0].Dishes, 2)
	assert.Equal(t, "7.25", menus[0].Submenus[1].Dishes[0].Price)
}

func TestRunOnceSkipsUnchangedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Menu.xlsx")
	writeWorkbook(t, path, sample)

	st, c := &fakeStore{}, &fakeCache{}
	j, err := New(st, c, Options{File: path, HashFile: filepath.Join(dir, "hash")})
	require.NoError(t, err)
	ctx := context.Background()

	changed, err := j.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, st.last, 2)
	assert.Equal(t, 1, c.flushes)

	changed, err = j.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, st.count())
	assert.Equal(t, 1, c.flushes)

	writeWorkbook(t, path, sample[:3])
	changed, err = j.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, st.last, 1)
	assert.Equal(t, 2, c.flushes)
}

func TestRunOnceMissingFile(t *testing.T) {
	dir := t.TempDir()
	j, err := New(&fakeStore{}, &fakeCache{}, Options{File: filepath.Join(dir, "none.xlsx")})
	require.NoError(t, err)
	changed, err := j.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestFailedReplaceKeepsDigest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Menu.xlsx")
	hash := filepath.Join(dir, "hash")
	writeWorkbook(t, path, sample)

	st, c := &fakeStore{err: errors.New("tx aborted")}, &fakeCache{}
	j, err := New(st, c, Options{File: path, HashFile: hash})
	require.NoError(t, err)

	_, err = j.RunOnce(context.Background())
	require.Error(t, err)
	_, statErr := os.Stat(hash)
	assert.True(t, os.IsNotExist(statErr))
	assert.Zero(t, c.flushes)
}

func TestFailedFlushIsRetried(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Menu.xlsx")
	hash := filepath.Join(dir, "hash")
	writeWorkbook(t, path, sample)

	st, c := &fakeStore{}, &fakeCache{fail: 1}
	j, err := New(st, c, Options{File: path, HashFile: hash})
	require.NoError(t, err)
	ctx := context.Background()

	changed, err := j.RunOnce(ctx)
	require.Error(t, err)
	assert.True(t, changed)
	assert.Zero(t, c.flushes)
	_, statErr := os.Stat(hash)
	assert.True(t, os.IsNotExist(statErr), "digest must not be recorded before the flush")

	changed, err = j.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, c.flushes)

	changed, err = j.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, c.flushes)
}

func TestRunReloadsOnTick(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Menu.xlsx")

	st := &fakeStore{}
	j, err := New(st, &fakeCache{}, Options{File: path, Interval: 10 * time.Millisecond, Watch: true})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	writeWorkbook(t, path, sample)
	assert.Eventually(t, func() bool { return st.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
