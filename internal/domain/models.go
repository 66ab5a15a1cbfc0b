package domain

// Format identifies an encoded image format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// Ext returns the file extension used for the format.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return ".png"
}

// PageImage represents a single exported document page
type PageImage struct {
	PageNumber int    `json:"page_number"`
	ImagePath  string `json:"image_path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

// ImageRef is a raster image object referenced by a page.
type ImageRef struct {
	Name   string `json:"name"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// EncodingAttempt records one encoding tried by a size-bounded search.
// Quality is 0 for the initial lossless PNG attempt.
type EncodingAttempt struct {
	Format  Format `json:"format"`
	Quality int    `json:"quality,omitempty"`
	Size    int    `json:"size"`
}
