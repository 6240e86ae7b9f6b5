package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/hxbridge"
	"github.com/pthm/hxbridge/internal/config"
	"github.com/pthm/hxbridge/widgets"
)

func demoHarness(t *testing.T, src *widgets.MemorySource) *hxbridge.Harness {
	t.Helper()
	ctx := context.Background()
	h := hxbridge.NewHarness()
	h.Surface.Add(widgets.Behaviors()...)
	require.NoError(t, demoSetup(src)(ctx, h.Panel))
	require.NoError(t, h.Load(ctx))
	return h
}

func inventoryRows(t *testing.T, h *hxbridge.Harness) (*hxbridge.Instance, int) {
	t.Helper()
	inst, ok := h.Surface.Registry().Lookup(widgets.TableType, "inventory")
	require.True(t, ok)
	return inst, inst.Context.(*widgets.TableInstance).Rows
}

func TestDemoPanelFilters(t *testing.T) {
	ctx := context.Background()
	h := demoHarness(t, inventory())

	_, rows := inventoryRows(t, h)
	assert.Equal(t, 4, rows)

	_, err := h.Surface.Fire("#hx-selector-category select", "change", map[string]string{"value": "vegetable"})
	require.NoError(t, err)
	h.Sync(ctx)

	inst, rows := inventoryRows(t, h)
	assert.Equal(t, 2, rows)
	assert.Equal(t, "Leek", inst.Find(`tr[data-row="0"] td`).Eq(1).Text())
}

func TestDemoPanelRefreshAndSelect(t *testing.T) {
	ctx := context.Background()
	h := demoHarness(t, inventory())
	h.ResetSent()

	_, err := h.Surface.Fire("#hx-button-refresh button", "click", nil)
	require.NoError(t, err)
	h.Sync(ctx)

	_, err = h.Surface.Fire(`#hx-data-table-inventory tr[data-row="1"]`, "click", nil)
	require.NoError(t, err)
	h.Sync(ctx)

	assert.Equal(t, []string{"4 items", "selected Pear"}, notices(t, h))
}

func notices(t *testing.T, h *hxbridge.Harness) []string {
	t.Helper()
	var out []string
	for _, m := range h.HostSent() {
		if m.Command == hxbridge.CommandNotice {
			var n hxbridge.Notice
			require.NoError(t, m.Decode(&n))
			out = append(out, n.Message)
		}
	}
	return out
}

func TestDemoPanelSourceFailure(t *testing.T) {
	ctx := context.Background()
	src := inventory()
	h := demoHarness(t, src)

	h.ResetSent()
	src.Fail(errors.New("warehouse offline"))
	_, err := h.Surface.Fire("#hx-button-refresh button", "click", nil)
	require.NoError(t, err)
	h.Sync(ctx)

	inst, rows := inventoryRows(t, h)
	assert.Equal(t, 4, rows)
	assert.Equal(t, "warehouse offline", inst.Root().AttrOr("data-error", ""))
	assert.Equal(t, []string{"Inventory unavailable"}, notices(t, h))
}

func TestFilterFor(t *testing.T) {
	assert.Nil(t, filterFor(allCategories))
	assert.Equal(t, map[string]string{"category": "fruit"}, filterFor("fruit"))
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:8080", baseURL("127.0.0.1:8080"))
	assert.Equal(t, "https://example.com", baseURL("https://example.com/"))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "hxbridge version dev\n", out)
}

func TestVetCommand(t *testing.T) {
	_, err := execute(t, "vet", "../../widgets")
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/b.go", []byte("package b\n\ntype B struct{}\n\nfunc (B) ComponentType() string { return \"b\" }\n"), 0o644))
	out, err := execute(t, "vet", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 contract problem(s)")
	assert.Contains(t, out, "no OnComponentUpdate")
}

func TestInitCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	initFlags.force = false

	out, err := execute(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+config.DefaultPath)

	_, err = execute(t, "init")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "already exists"))

	_, err = execute(t, "init", "--force")
	require.NoError(t, err)

	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), *cfg)
}
