package main

import (
	"embed"
	"io/fs"

	"github.com/soar/nsogc-bridge/internal/log"
)

// frontend holds the live view page served at "/".
//
//go:embed frontend
var frontend embed.FS

func getFrontendFS() fs.FS {
	sub, err := fs.Sub(frontend, "frontend")
	if err != nil {
		log.FatalF("Embedded front end: %v", err)
	}
	return sub
}
