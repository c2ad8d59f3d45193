// A small daemon which keeps the artwork of the currently playing MPD track
// rendered on a local display and available over HTTP.
//
// This file is only here to make installing with go get easier. The actual
// main function lives in the src package.
package main

import (
	"embed"

	"github.com/mpdart/mpdart/src"
)

// sqlFilesFS is the migrations directory which contains the SQL migrations
// for sql-migrate and the initial schema of the sync journal. If the embedded
// directory name changes, remember to change it in src.Main too.
//
//go:embed sqls
var sqlFilesFS embed.FS

func main() {
	src.Main(sqlFilesFS)
}
