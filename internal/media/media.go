// Package media stores uploaded files (avatars, cover images, thumbnails,
// videos) and hands back a public URL plus a key to delete them by.
//
// Two backends implement Store: LocalStore writes under a directory the
// server exposes at /media, S3Store writes to an S3-compatible bucket.
package media

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
)

// Kind groups stored objects; it is the first segment of every key.
type Kind string

const (
	KindAvatar    Kind = "avatar"
	KindCover     Kind = "cover"
	KindThumbnail Kind = "thumbnail"
	KindVideo     Kind = "video"
)

// ErrInvalidKey is returned for keys that would escape the store's root.
var ErrInvalidKey = errors.New("media: invalid key")

// Object is one upload on its way to a Store.
type Object struct {
	Kind        Kind
	Filename    string // client-supplied name; only its extension is kept
	ContentType string
	Size        int64
	// Body must be seekable: uploads are inspected before they are stored.
	Body io.ReadSeeker
}

// Asset is a stored object.
type Asset struct {
	URL string
	Key string
}

type Store interface {
	Put(ctx context.Context, obj Object) (Asset, error)
	// Delete removes the object; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// NewKey builds "<kind>/<xid><ext>" from the client's filename.
func NewKey(kind Kind, filename string) string {
	return string(kind) + "/" + xid.New().String() + cleanExt(filename)
}

// cleanExt keeps a short, lowercase, alphanumeric extension or nothing.
func cleanExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}

// validKey rejects empty, absolute and parent-relative keys.
func validKey(key string) bool {
	return key != "" && filepath.IsLocal(key) && path.Clean(key) == key
}

// joinURL appends key to base with exactly one slash between them.
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
