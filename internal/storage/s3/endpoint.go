package s3

import (
	"net/url"
	"strings"
)

// NonVersionedHostSuffix identifies Cloudflare R2, which speaks the S3 API
// but does not return or accept object version ids.
const NonVersionedHostSuffix = ".r2.cloudflarestorage.com"

// IsNonVersionedEndpoint reports whether endpoint belongs to a provider
// without object versioning. An empty or unparseable endpoint is treated as
// versioned.
func IsNonVersionedEndpoint(endpoint string) bool {
	if endpoint == "" {
		return false
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}

	return strings.HasSuffix(strings.ToLower(u.Hostname()), NonVersionedHostSuffix)
}
