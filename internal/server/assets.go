package server

import (
	"bytes"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

type asset struct {
	mediatype string
	data      []byte
}

// assets serves the front end from memory, minified once at startup.
type assets struct {
	files   map[string]asset
	modTime time.Time
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	return m
}

func loadAssets(fsys fs.FS) (*assets, error) {
	m := newMinifier()
	a := &assets{files: make(map[string]asset), modTime: time.Now()}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		mediatype := mime.TypeByExtension(path.Ext(p))
		if mediatype == "" {
			mediatype = http.DetectContentType(raw)
		}
		data := raw
		base, _, _ := strings.Cut(mediatype, ";")
		if out, merr := m.Bytes(base, raw); merr == nil {
			data = out
		} else if merr != minify.ErrNotExist {
			return fmt.Errorf("minify %s: %w", p, merr)
		}
		a.files["/"+p] = asset{mediatype: mediatype, data: data}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *assets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := path.Clean(r.URL.Path)
	if strings.HasSuffix(p, "/") {
		p += "index.html"
	}
	f, ok := a.files[p]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", f.mediatype)
	http.ServeContent(w, r, p, a.modTime, bytes.NewReader(f.data))
}
