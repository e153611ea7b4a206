package analysis

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/hubheight/internal/errors"
	"github.com/tphakala/hubheight/internal/logger"
)

func TestDiscoverLabels(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"becerril_10.txt":     {Data: []byte("")},
		"becerril_2_png.txt":  {Data: []byte("")},
		"becerril_2.txt":      {Data: []byte("")},
		"el_perdon_7.txt":     {Data: []byte("")},
		"ourol_1.txt":         {Data: []byte("")},
		"ourol_2.txt":         {Data: []byte("")},
		"readme.txt":          {Data: []byte("")},
		".hidden_1.txt":       {Data: []byte("")},
		"nested/becerril_3.t": {Data: []byte("")},
	}

	var buf bytes.Buffer
	log := logger.NewSlogLogger(&buf, logger.LogLevelDebug, nil)

	jobs, err := DiscoverLabels(fsys, []string{" OUROL "}, log)
	require.NoError(t, err)
	assert.Equal(t, []Job{
		{Site: "becerril", Turbine: 2, Path: "becerril_2.txt"},
		{Site: "becerril", Turbine: 10, Path: "becerril_10.txt"},
		{Site: "el_perdon", Turbine: 7, Path: "el_perdon_7.txt"},
	}, jobs)

	out := buf.String()
	assert.Contains(t, out, "Duplicate label file for turbine")
	assert.Contains(t, out, "readme.txt")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("Skipping excluded site")), "logged once per site")
}

func TestDiscoverLabelsMissingDir(t *testing.T) {
	t.Parallel()

	_, err := DiscoverLabels(os.DirFS(filepath.Join(t.TempDir(), "absent")), nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryReferenceData))
}

func TestGroupBySite(t *testing.T) {
	t.Parallel()

	jobs := []Job{
		{Site: "a", Turbine: 1},
		{Site: "a", Turbine: 2},
		{Site: "b", Turbine: 1},
		{Site: "c", Turbine: 4},
		{Site: "c", Turbine: 5},
	}
	groups := groupBySite(jobs)
	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 2)
	assert.Len(t, groups[1], 1)
	assert.Equal(t, "c", groups[2][1].Site)
	assert.Empty(t, groupBySite(nil))
}
