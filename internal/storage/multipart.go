package storage

import (
	"io"
	"mime/multipart"
)

// multipartUpload adapts a multipart form file to the Upload capability.
type multipartUpload struct {
	header *multipart.FileHeader
}

// FromMultipart wraps a multipart form file header as an Upload. A nil
// header yields a nil Upload so Accept reports ErrNoFile.
func FromMultipart(header *multipart.FileHeader) Upload {
	if header == nil {
		return nil
	}
	return multipartUpload{header: header}
}

func (u multipartUpload) Name() string { return u.header.Filename }

func (u multipartUpload) Size() int64 { return u.header.Size }

func (u multipartUpload) Open() (io.ReadCloser, error) {
	file, err := u.header.Open()
	if err != nil {
		return nil, err
	}
	return file, nil
}
