package handler

import (
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/smart-referral-api/internal/application/media"
)

const multipartMemory = 32 << 20

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// openFiles opens every uploaded part except those under skip. The form
// field name is the media category; a trailing "[]" is dropped. The
// returned closer must be called once the readers are consumed.
func openFiles(form *multipart.Form, skip ...string) ([]media.File, func(), error) {
	var (
		files   []media.File
		handles []multipart.File
	)
	closeAll := func() {
		for _, h := range handles {
			_ = h.Close()
		}
	}
	for field, headers := range form.File {
		if contains(skip, field) {
			continue
		}
		category := strings.TrimSuffix(field, "[]")
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				closeAll()
				return nil, func() {}, err
			}
			handles = append(handles, f)
			files = append(files, media.File{
				Category:    category,
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Body:        f,
			})
		}
	}
	return files, closeAll, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
