package media

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolver locates artifact files produced by the extraction engine inside a
// download directory. The engine may change the final extension or filename
// during format negotiation, so the exact expected path is only a fast path
// and a prefix scan is the fallback.
type Resolver struct {
	Dir string
}

// Resolve returns the name of the artifact for the given job, expected
// filename stem and extension (including the dot), and whether it was found.
// It checks `<jobID>_<stem><ext>` first, then scans the directory for any file
// named `<jobID>_*<ext>` and returns the first match. It never fails: a
// missing artifact is ("", false), and video and audio can be resolved
// independently in any order.
func (r *Resolver) Resolve(jobID, stem, ext string) (string, bool) {
	exact := jobID + "_" + stem + ext
	if _, err := os.Stat(filepath.Join(r.Dir, exact)); err == nil {
		return exact, true
	}

	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, jobID+"_") && strings.HasSuffix(name, ext) {
			return name, true
		}
	}
	return "", false
}

// RemoveJobFiles deletes every file in dir whose name is prefixed by the job
// id. Calling it for an id with no files (or calling it twice) is a no-op.
func RemoveJobFiles(dir, jobID string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), jobID+"_") {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}
	return nil
}
