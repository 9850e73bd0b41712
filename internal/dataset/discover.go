package dataset

import (
	"io/fs"
	"math/rand"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/pkg/errors"
)

var shardRegexp = regexp.MustCompile(`^shard-[0-9]{6,}\.tar$`)

// DiscoverShards walks each root and returns its shard TAR files, sorted.
func DiscoverShards(roots ...string) (map[string][]string, error) {
	result := make(map[string][]string, len(roots))
	for _, root := range roots {
		var shards []string
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && shardRegexp.MatchString(d.Name()) {
				shards = append(shards, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "discover shards under %s", root)
		}
		sort.Strings(shards)
		result[root] = shards
	}
	return result, nil
}

// Interleave flattens per-root shard lists into one visiting order that
// alternates between roots. Roots are visited in sorted order; shards within
// a root are shuffled when rng is non-nil.
func Interleave(roots map[string][]string, rng *rand.Rand) []string {
	names := make([]string, 0, len(roots))
	queues := make(map[string][]string, len(roots))
	for root, shards := range roots {
		if len(shards) == 0 {
			continue
		}
		names = append(names, root)
		q := append([]string(nil), shards...)
		if rng != nil {
			rng.Shuffle(len(q), func(i, j int) { q[i], q[j] = q[j], q[i] })
		}
		queues[root] = q
	}
	sort.Strings(names)

	var order []string
	for advanced := true; advanced; {
		advanced = false
		for _, root := range names {
			q := queues[root]
			if len(q) == 0 {
				continue
			}
			order = append(order, q[0])
			queues[root] = q[1:]
			advanced = true
		}
	}
	return order
}
