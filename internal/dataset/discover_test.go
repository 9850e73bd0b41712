package dataset

import (
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDiscoverShardsBasic(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "shard-000000.tar"))
	mustWrite(t, filepath.Join(dir, "nested", "shard-000001.tar"))
	mustWrite(t, filepath.Join(dir, "ignore.txt"))

	roots, err := DiscoverShards(dir)
	if err != nil {
		t.Fatalf("DiscoverShards error: %v", err)
	}
	want := []string{
		filepath.Join(dir, "nested", "shard-000001.tar"),
		filepath.Join(dir, "shard-000000.tar"),
	}
	if !reflect.DeepEqual(roots[dir], want) {
		t.Fatalf("shards=%v want %v", roots[dir], want)
	}
}

func TestDiscoverShardsMissingRoot(t *testing.T) {
	if _, err := DiscoverShards(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestInterleaveDeterministic(t *testing.T) {
	roots := map[string][]string{
		"/rootA": {"/rootA/shard-000000.tar", "/rootA/shard-000002.tar"},
		"/rootB": {"/rootB/shard-000001.tar"},
		"/rootC": nil,
	}
	order1 := Interleave(roots, rand.New(rand.NewSource(7)))
	order2 := Interleave(roots, rand.New(rand.NewSource(7)))
	if !reflect.DeepEqual(order1, order2) {
		t.Fatalf("interleave not deterministic: %v vs %v", order1, order2)
	}
	if len(order1) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(order1))
	}
	if filepath.Dir(order1[0]) == filepath.Dir(order1[1]) {
		t.Fatalf("expected alternating roots, got %v", order1)
	}
}

func TestInterleaveWithoutRNGKeepsOrder(t *testing.T) {
	roots := map[string][]string{
		"/b": {"/b/1", "/b/2", "/b/3"},
		"/a": {"/a/1"},
	}
	got := Interleave(roots, nil)
	want := []string{"/a/1", "/b/1", "/b/2", "/b/3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order=%v want %v", got, want)
	}
}

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
