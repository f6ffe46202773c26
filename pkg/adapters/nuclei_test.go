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

func nucleiTestAdapter() *NucleiAdapter {
	return NewNucleiAdapter(ToolConfig{
		Name:           "nuclei",
		Command:        "nuclei",
		Args:           []string{"-u", TargetToken, "-jsonl", "-silent"},
		FatalExitCodes: []int{127},
	})
}

func TestNucleiBuildInvocation(t *testing.T) {
	a := nucleiTestAdapter()
	spec := a.BuildInvocation(target.ValidatedTarget{Host: "example.com", Kind: target.KindHostname})

	assert.Equal(t, "nuclei", spec.Command)
	assert.Equal(t, []string{"-u", "example.com", "-jsonl", "-silent"}, spec.Args)
}

func TestNucleiParse_Records(t *testing.T) {
	a := nucleiTestAdapter()
	out := []byte(`{"template-id":"ssl-issuer","info":{"name":"SSL Certificate Issuer","severity":"high","description":"Self-signed cert"},"matched-at":"https://example.com:443"}
{"template-id":"http-missing-hsts","info":{"name":"Missing HSTS Header","severity":"medium"},"host":"example.com","url":"https://example.com"}
`)

	fnds, err := a.Parse(out, 0)
	require.NoError(t, err)
	require.Len(t, fnds, 2)

	assert.Equal(t, "SSL Certificate Issuer", fnds[0].WebVuln.Title)
	assert.Equal(t, findings.SeverityHigh, fnds[0].WebVuln.Severity)
	assert.Equal(t, "https://example.com:443", fnds[0].WebVuln.URL)
	assert.Equal(t, "Self-signed cert", fnds[0].WebVuln.Description)

	assert.Equal(t, findings.SeverityMedium, fnds[1].WebVuln.Severity)
	assert.Equal(t, "https://example.com", fnds[1].WebVuln.URL)

	for _, f := range fnds {
		assert.Equal(t, findings.KindWebVuln, f.Kind)
		assert.Nil(t, f.Port)
	}
}

func TestNucleiParse_MissingSeverityDefaultsLow(t *testing.T) {
	a := nucleiTestAdapter()
	out := []byte(`{"template-id":"tech-detect","info":{"name":"Tech Detect"},"host":"example.com"}` + "\n")

	fnds, err := a.Parse(out, 0)
	require.NoError(t, err)
	require.Len(t, fnds, 1)
	assert.Equal(t, findings.SeverityLow, fnds[0].WebVuln.Severity)
}

func TestNucleiParse_TitleFallsBackToTemplateID(t *testing.T) {
	a := nucleiTestAdapter()
	out := []byte(`{"template-id":"exposed-panel","info":{"severity":"critical"},"host":"example.com"}` + "\n")

	fnds, err := a.Parse(out, 0)
	require.NoError(t, err)
	require.Len(t, fnds, 1)
	assert.Equal(t, "exposed-panel", fnds[0].WebVuln.Title)
}

func TestNucleiParse_TruncatedTrailingLineSkipped(t *testing.T) {
	a := nucleiTestAdapter()
	// Tool killed mid-write: last record cut off.
	out := []byte(`{"template-id":"a","info":{"name":"A","severity":"low"},"host":"example.com"}
{"template-id":"b","info":{"name":"B","sever`)

	fnds, err := a.Parse(out, 0)
	require.NoError(t, err)
	assert.Len(t, fnds, 1)
}

func TestNucleiParse_WholesaleGarbage(t *testing.T) {
	a := nucleiTestAdapter()

	_, err := a.Parse([]byte("not json\nalso not json\n"), 0)
	assert.True(t, errors.Is(err, scanerr.ErrParse))
}

func TestNucleiParse_ExitOneWithFindingsSucceeds(t *testing.T) {
	a := nucleiTestAdapter()
	out := []byte(`{"template-id":"a","info":{"name":"A","severity":"low"},"host":"example.com"}` + "\n")

	fnds, err := a.Parse(out, 1)
	require.NoError(t, err)
	assert.Len(t, fnds, 1)
}

func TestNucleiParse_FatalExitCode(t *testing.T) {
	a := nucleiTestAdapter()

	_, err := a.Parse(nil, 127)
	assert.True(t, errors.Is(err, scanerr.ErrToolExecution))
}
