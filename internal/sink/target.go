package sink

import (
	"fmt"
	"os"
	"strings"

	"epgmerge/internal/config"
	"epgmerge/internal/services"
)

const gzipSuffix = ".gz"

// Target is the resolved destination pair for a merge run.
type Target struct {
	XMLPath string
	GzPath  string
}

// ResolveTarget derives the (uncompressed, compressed) path pair from the
// requested output path: a trailing ".gz" names the compressed member and the
// uncompressed sibling drops the suffix; any other name gains the suffix.
func ResolveTarget(path string) Target {
	if strings.HasSuffix(path, gzipSuffix) {
		return Target{
			XMLPath: strings.TrimSuffix(path, gzipSuffix),
			GzPath:  path,
		}
	}
	return Target{
		XMLPath: path,
		GzPath:  path + gzipSuffix,
	}
}

// Check enforces the overwrite gate for the members the given output mode
// will write. It must run before any byte reaches storage.
func (t Target) Check(mode string, overwrite bool) error {
	if overwrite {
		return nil
	}
	paths := []string{t.GzPath}
	if mode == config.OutputModeBoth {
		paths = append(paths, t.XMLPath)
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return services.Wrap(services.ErrDestinationExists, "sink", "check",
				fmt.Sprintf("%s already exists (use --overwrite to replace)", path), nil)
		} else if !os.IsNotExist(err) {
			return services.Wrap(services.ErrIO, "sink", "check", path, err)
		}
	}
	return nil
}
