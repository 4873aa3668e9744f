package domain

import (
	"regexp"
)

// ImageReference is a locator for an image as it appears in the portfolio document.
type ImageReference string

// Form identifies which of the known Drive URL shapes a reference uses.
type Form int

const (
	FormUnrecognized Form = iota
	FormThumbnail
	FormExport
)

func (f Form) String() string {
	switch f {
	case FormThumbnail:
		return "thumbnail"
	case FormExport:
		return "export"
	default:
		return "unrecognized"
	}
}

const (
	driveHost = "https://drive.google.com/"

	// GridSizeHint is the size used for grid thumbnails.
	GridSizeHint = "w400"
)

var (
	// thumbnail?id=<id>[&sz=<size>]
	thumbnailFormRegex = regexp.MustCompile(`^(.*?)thumbnail\?id=([A-Za-z0-9_-]+)(?:&sz=[A-Za-z0-9]+)?(.*)$`)
	// uc?export=view&id=<id>
	exportFormRegex = regexp.MustCompile(`^(.*?)uc\?export=view&id=([A-Za-z0-9_-]+)(.*)$`)

	driveIDRegexes = []*regexp.Regexp{
		regexp.MustCompile(`drive\.google\.com/open\?id=([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`drive\.google\.com/file/d/([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`drive\.google\.com/uc\?id=([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`drive\.google\.com/uc\?export=view&id=([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`drive\.google\.com/thumbnail\?id=([A-Za-z0-9_-]+)`),
	}
)

// Classify reports the form of ref. The thumbnail form is checked first.
func Classify(ref ImageReference) Form {
	s := string(ref)
	if thumbnailFormRegex.MatchString(s) {
		return FormThumbnail
	}
	if exportFormRegex.MatchString(s) {
		return FormExport
	}
	return FormUnrecognized
}

// Rewrite maps a reference to the other known form, keeping the embedded identifier.
// Thumbnail references lose their size suffix; export references gain "&sz=<sizeHint>".
// The second return value is false for unrecognized references.
func Rewrite(ref ImageReference, sizeHint string) (ImageReference, bool) {
	s := string(ref)
	if m := thumbnailFormRegex.FindStringSubmatch(s); m != nil {
		return ImageReference(m[1] + "uc?export=view&id=" + m[2] + m[3]), true
	}
	if m := exportFormRegex.FindStringSubmatch(s); m != nil {
		return ImageReference(m[1] + "thumbnail?id=" + m[2] + m[3] + "&sz=" + sizeHint), true
	}
	return ref, false
}

// ExtractDriveID pulls the file identifier out of any of the Drive link shapes people paste
// into the submission form.
func ExtractDriveID(url string) (string, bool) {
	for _, re := range driveIDRegexes {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// ExportURL builds the export form for a Drive file.
func ExportURL(id string) ImageReference {
	return ImageReference(driveHost + "uc?export=view&id=" + id)
}

// ThumbnailURL builds the thumbnail form for a Drive file at the given size.
func ThumbnailURL(id string, size string) ImageReference {
	return ImageReference(driveHost + "thumbnail?id=" + id + "&sz=" + size)
}

// NormalizeExport converts any Drive link to the export form.
// Links without a recognisable identifier are returned unchanged.
func NormalizeExport(url string) ImageReference {
	id, ok := ExtractDriveID(url)
	if !ok {
		return ImageReference(url)
	}
	return ExportURL(id)
}

// NormalizeThumbnail converts any Drive link to the thumbnail form at the given size.
func NormalizeThumbnail(url string, size string) ImageReference {
	id, ok := ExtractDriveID(url)
	if !ok {
		return ImageReference(url)
	}
	return ThumbnailURL(id, size)
}
