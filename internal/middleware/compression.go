package middleware

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// compressMinSize is the minimum response size in bytes to compress.
// Small JSON replies are not worth the CPU on low-end field devices.
const compressMinSize = 1024

// Compression applies gzip compression to responses. Rural deployments
// often sit behind 2G/3G links, so shrinking report and list payloads
// matters more than the compression cost.
func Compression(next http.Handler) http.Handler {
	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(compressMinSize),
	)
	if err != nil {
		return gzhttp.GzipHandler(next)
	}
	return wrapper(next)
}
