// Package all registers every built-in manifest backend with the manifest
// factory. Import it for side effects from binaries that pick a backend by
// config:
//
//	import _ "vcfilter/internal/manifest/all"
package all

import (
	_ "vcfilter/internal/manifest/postgres"
	_ "vcfilter/internal/manifest/sqlite"
)
