package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/booklore-app/booklore/pkg/bookmeta"
	"github.com/booklore-app/booklore/pkg/cbx"
	"github.com/booklore-app/booklore/pkg/epub"
	"github.com/booklore-app/booklore/pkg/fingerprint"
	"github.com/booklore-app/booklore/pkg/pdf"
	"github.com/jessevdk/go-flags"
	"github.com/robinjoseph08/golib/logger"
)

func main() {
	log := logger.New()

	var opts struct {
		Hash bool `long:"hash" description:"Also print the file's content hash"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	if len(args) != 1 {
		fmt.Println("go run ./cmd/scripts/debug/parse-book <path/to/file>")
		os.Exit(1)
	}
	path := args[0]

	var parsed *bookmeta.Parsed
	switch strings.ToLower(filepath.Ext(path)) {
	case ".epub":
		parsed, err = epub.Parse(path)
	case ".pdf":
		parsed, err = pdf.Parse(path)
	case ".cbz", ".cbr", ".cb7":
		parsed, err = cbx.Parse(path)
	default:
		log.Fatal("unsupported file extension")
	}
	if err != nil {
		log.Err(err).Fatal("parse error")
	}

	fmt.Println(parsed.String())

	if opts.Hash {
		hash, err := fingerprint.File(path)
		if err != nil {
			log.Err(err).Fatal("hash error")
		}
		fmt.Printf("Hash:      %s\n", hash)
	}
}
