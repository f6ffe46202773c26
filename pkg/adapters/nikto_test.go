package adapters

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanhub/pkg/findings"
	"scanhub/pkg/scanerr"
	"scanhub/pkg/target"
)

func niktoTestAdapter() *NiktoAdapter {
	return NewNiktoAdapter(ToolConfig{
		Name:           "nikto",
		Command:        "nikto",
		Args:           []string{"-h", TargetToken, "-nointeractive"},
		FatalExitCodes: []int{127},
	})
}

func TestNiktoBuildInvocation(t *testing.T) {
	a := niktoTestAdapter()
	spec := a.BuildInvocation(target.ValidatedTarget{Host: "10.0.0.5", Kind: target.KindIPv4})

	assert.Equal(t, "nikto", spec.Command)
	assert.Equal(t, []string{"-h", "10.0.0.5", "-nointeractive"}, spec.Args)
}

func TestNiktoParse_AdvisoryLines(t *testing.T) {
	a := niktoTestAdapter()
	out := []byte(`- Nikto v2.5.0
- Target IP:          10.0.0.5
+ /admin/: Admin login page found.
+ /icons/README: Apache default file found.
+ Server leaks inodes via ETags.
- 7962 requests: 0 error(s) and 3 item(s) reported
`)

	fnds, err := a.Parse(out, 1)
	require.NoError(t, err)
	require.Len(t, fnds, 3)

	assert.Equal(t, "/admin/", fnds[0].Misconfig.Endpoint)
	assert.Equal(t, "Admin login page found.", fnds[0].Misconfig.Description)

	assert.Equal(t, "/icons/README", fnds[1].Misconfig.Endpoint)
	assert.Equal(t, "Apache default file found.", fnds[1].Misconfig.Description)

	// Advisory naming no path defaults to "/".
	assert.Equal(t, "/", fnds[2].Misconfig.Endpoint)
	assert.Equal(t, "Server leaks inodes via ETags.", fnds[2].Misconfig.Description)

	for _, f := range fnds {
		assert.Equal(t, findings.KindMisconfig, f.Kind)
		assert.Nil(t, f.Port)
		assert.Nil(t, f.WebVuln)
	}
}

func TestNiktoParse_EndpointWithoutColonSeparator(t *testing.T) {
	a := niktoTestAdapter()

	fnds, err := a.Parse([]byte("+ /backup.zip Archive file found\n"), 0)
	require.NoError(t, err)
	require.Len(t, fnds, 1)
	assert.Equal(t, "/backup.zip", fnds[0].Misconfig.Endpoint)
	assert.Equal(t, "Archive file found", fnds[0].Misconfig.Description)
}

func TestNiktoParse_BannerOnlyYieldsNoFindings(t *testing.T) {
	a := niktoTestAdapter()
	out := []byte(`- Nikto v2.5.0
- 0 host(s) tested
`)

	fnds, err := a.Parse(out, 0)
	require.NoError(t, err)
	assert.Empty(t, fnds)
}

func TestNiktoParse_WholesaleGarbage(t *testing.T) {
	a := niktoTestAdapter()

	_, err := a.Parse([]byte("xml? <no>\nrandom noise\n"), 0)
	assert.True(t, errors.Is(err, scanerr.ErrParse))
}

func TestNiktoParse_FatalExitCode(t *testing.T) {
	a := niktoTestAdapter()

	_, err := a.Parse(nil, 127)
	assert.True(t, errors.Is(err, scanerr.ErrToolExecution))
}
