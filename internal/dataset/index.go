package dataset

import (
	"bufio"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Sample is one labeled image. Path is set for samples listed in an index
// file; Data is set for samples read out of a tar shard.
type Sample struct {
	Key   string
	Path  string
	Data  []byte
	Label int
}

// ErrEmptyIndex is returned when an index file lists no images.
var ErrEmptyIndex = errors.New("dataset: index has no entries")

// IndexPath returns the index file for split under dataDir, e.g. <dataDir>/val.txt.
func IndexPath(dataDir, split string) string {
	return filepath.Join(dataDir, split+".txt")
}

// ReadIndex loads the image list for split. Each non-empty line of the index
// holds a path relative to <dataDir>/<split> followed by an integer class
// label. Any malformed line fails the whole read.
func ReadIndex(dataDir, split string) ([]Sample, error) {
	path := IndexPath(dataDir, split)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open index")
	}
	defer f.Close()

	imageDir := filepath.Join(dataDir, split)
	var samples []Sample
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, errors.Errorf("%s:%d: want \"<file> <label>\", got %q", path, lineNo, line)
		}
		label, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d: label", path, lineNo)
		}
		if label < 0 {
			return nil, errors.Errorf("%s:%d: negative label %d", path, lineNo, label)
		}
		samples = append(samples, Sample{
			Key:   strings.TrimSuffix(fields[0], filepath.Ext(fields[0])),
			Path:  filepath.Join(imageDir, fields[0]),
			Label: label,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if len(samples) == 0 {
		return nil, errors.Wrap(ErrEmptyIndex, path)
	}
	return samples, nil
}

// Shuffle permutes samples in place with rng.
func Shuffle(samples []Sample, rng *rand.Rand) {
	rng.Shuffle(len(samples), func(i, j int) {
		samples[i], samples[j] = samples[j], samples[i]
	})
}
