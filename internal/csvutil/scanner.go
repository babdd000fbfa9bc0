package csvutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// NormalizedSuffix marks files written by normalize.
const NormalizedSuffix = "-normalized.csv"

// ScanInventories lists the inventory CSVs directly inside dir, sorted by
// name. Earlier normalize output is left out so it is not offered as input.
func ScanInventories(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("looking for inventories in %s: %w", dir, err)
	}

	var inventories []string
	for _, e := range entries {
		name := e.Name()
		switch {
		case !e.Type().IsRegular():
		case !strings.EqualFold(filepath.Ext(name), ".csv"):
		case strings.HasSuffix(strings.ToLower(name), NormalizedSuffix):
		default:
			inventories = append(inventories, filepath.Join(dir, name))
		}
	}
	sort.Strings(inventories)
	return inventories, nil
}
