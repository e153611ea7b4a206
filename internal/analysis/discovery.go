package analysis

import (
	"cmp"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/tphakala/hubheight/internal/logger"
	"github.com/tphakala/hubheight/internal/shadow"
)

// Job is one turbine's label file
type Job struct {
	Site    string
	Turbine int
	Path    string // path of the label file inside the label FS
}

// DiscoverLabels lists the label files directly inside fsys, skipping
// excluded sites and files whose name carries no site and turbine. Jobs are
// sorted by site, then turbine.
func DiscoverLabels(fsys fs.FS, exclude []string, log logger.Logger) ([]Job, error) {
	log = getLogger(log)

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, referenceError(err, "labels", "")
	}

	excluded := make(map[string]bool, len(exclude))
	for _, s := range exclude {
		excluded[strings.ToLower(strings.TrimSpace(s))] = true
	}

	var jobs []Job
	seen := make(map[Job]bool)
	loggedExcluded := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		site, turbine, err := shadow.ParseLabelName(e.Name())
		if err != nil {
			log.Warn("Skipping label file", logger.String("file", e.Name()), logger.Error(err))
			continue
		}
		if excluded[strings.ToLower(site)] {
			if !loggedExcluded[site] {
				log.Info("Skipping excluded site", logger.String("site", site))
				loggedExcluded[site] = true
			}
			continue
		}

		job := Job{Site: site, Turbine: turbine, Path: path.Clean(e.Name())}
		key := Job{Site: site, Turbine: turbine}
		if seen[key] {
			log.Warn("Duplicate label file for turbine, keeping the first",
				logger.String("site", site),
				logger.Int("turbine", turbine),
				logger.String("file", e.Name()))
			continue
		}
		seen[key] = true
		jobs = append(jobs, job)
	}

	slices.SortFunc(jobs, func(a, b Job) int {
		return cmp.Or(cmp.Compare(a.Site, b.Site), cmp.Compare(a.Turbine, b.Turbine))
	})
	return jobs, nil
}

// groupBySite splits sorted jobs into one batch per site
func groupBySite(jobs []Job) [][]Job {
	var groups [][]Job
	for i := 0; i < len(jobs); {
		j := i + 1
		for j < len(jobs) && jobs[j].Site == jobs[i].Site {
			j++
		}
		groups = append(groups, jobs[i:j])
		i = j
	}
	return groups
}
