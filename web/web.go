// Package web holds the embedded HTML templates.
//
// Embedding (instead of the ParseFiles-from-a-directory approach) means the
// binary and the tests render the same markup no matter what the working
// directory is; there is no template path to misconfigure.
package web

import "embed"

//go:embed templates/*.html
var Templates embed.FS
