package storage

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "attributions/abc/report.md", ObjectKey("abc", "report", ".md"))
	assert.Equal(t, "attributions/abc/", AttributionPrefix("abc"))
}

func TestRewriteHost(t *testing.T) {
	u, err := url.Parse("http://minio:9000/bucket/attributions/abc/report.md?X-Amz-Signature=s")
	require.NoError(t, err)

	assert.Equal(t, u.String(), rewriteHost(u, ""))
	assert.Equal(t,
		"https://files.example.com/bucket/attributions/abc/report.md?X-Amz-Signature=s",
		rewriteHost(u, "https://files.example.com"),
	)
}
