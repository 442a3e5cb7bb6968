package images

import "errors"

var (
	errNoPath   = errors.New("image has no file path")
	errTooLarge = errors.New("image is empty or exceeds the size limit")
	errNotImage = errors.New("file is not an image")
)
