// Package images holds the artwork shown by the daemon.
package images

import _ "embed"

// SplashSvg is drawn on the first tile while the daemon starts.
//
//go:embed splash.svg
var SplashSvg []byte
