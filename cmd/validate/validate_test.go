package validate

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/hubheight/internal/conf"
	"github.com/tphakala/hubheight/internal/validation"
)

const sitePredictions = `site,actual_hub_height,estimated_hub_height,hub_height_diff,valid_estimates,missing_labels,multiple_labels,azimuth_mismatch,unmeasurable,num_turbines
a,80,81.2,1.2,3,0,0,0,0,3
b,78,77.3,-0.7,2,1,0,0,0,3
c,90,90.4,0.4,5,0,0,0,0,5
d,100,102.1,2.1,1,0,1,0,0,2
e,60,58.5,-1.5,4,0,0,0,0,4
f,85,85.3,0.3,2,0,0,0,0,2
g,,,,0,2,0,0,0,2
`

func TestRun(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test_site_predictions.csv")
	require.NoError(t, os.WriteFile(path, []byte(sitePredictions), 0o600))

	var out bytes.Buffer
	err := run(&out, path, conf.ValidationSettings{LowerBound: -5, UpperBound: 5, Alpha: 0.05})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Sites: 6\n")
	assert.Contains(t, out.String(), "P-value: 0.000\n")
	assert.Contains(t, out.String(), "Within [-5, 5] m at alpha 0.05: true\n")
	assert.Contains(t, out.String(), "Shapiro-Wilk: W=")
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	vs := conf.ValidationSettings{LowerBound: -5, UpperBound: 5, Alpha: 0.05}

	err := run(&bytes.Buffer{}, filepath.Join(t.TempDir(), "absent.csv"), vs)
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "one.csv")
	require.NoError(t, os.WriteFile(path, []byte("site,hub_height_diff\na,1.0\n"), 0o600))
	err = run(&bytes.Buffer{}, path, vs)
	require.ErrorIs(t, err, validation.ErrInsufficientSamples)
}
