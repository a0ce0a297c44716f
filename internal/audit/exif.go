package audit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// Severity ranks how much an image tag discloses.
type Severity int

const (
	// SeverityLow covers timestamps and software names.
	SeverityLow Severity = iota
	// SeverityMedium covers device models and host names.
	SeverityMedium
	// SeverityHigh covers serial numbers and author names.
	SeverityHigh
	// SeverityCritical covers GPS positions.
	SeverityCritical
)

// String returns the severity in upper case.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MetadataFinding is one disclosing EXIF tag found in an image.
type MetadataFinding struct {
	// Image is the image path relative to the site root.
	Image string
	// Category groups related tags: gps, camera, serial, software, author, datetime, computer.
	Category string
	Tag      string
	Value    string
	Severity Severity
}

// String formats the finding as "[SEVERITY] image Tag: value".
func (f MetadataFinding) String() string {
	return fmt.Sprintf("[%s] %s %s: %s", f.Severity, f.Image, f.Tag, f.Value)
}

// tagCategories maps EXIF tag names to a category and severity.
var tagCategories = map[string]struct {
	category string
	severity Severity
}{
	"GPSLatitude":        {"gps", SeverityCritical},
	"GPSLongitude":       {"gps", SeverityCritical},
	"GPSLatitudeRef":     {"gps", SeverityCritical},
	"GPSLongitudeRef":    {"gps", SeverityCritical},
	"Make":               {"camera", SeverityMedium},
	"Model":              {"camera", SeverityMedium},
	"SerialNumber":       {"serial", SeverityHigh},
	"CameraSerialNumber": {"serial", SeverityHigh},
	"BodySerialNumber":   {"serial", SeverityHigh},
	"LensSerialNumber":   {"serial", SeverityHigh},
	"Software":           {"software", SeverityLow},
	"ProcessingSoftware": {"software", SeverityLow},
	"Artist":             {"author", SeverityHigh},
	"Author":             {"author", SeverityHigh},
	"Copyright":          {"author", SeverityHigh},
	"XPAuthor":           {"author", SeverityHigh},
	"DateTimeOriginal":   {"datetime", SeverityLow},
	"DateTimeDigitized":  {"datetime", SeverityLow},
	"DateTime":           {"datetime", SeverityLow},
	"HostComputer":       {"computer", SeverityMedium},
}

// DefaultMaxImageSize is the largest image read by the EXIF audit.
const DefaultMaxImageSize = 10 * 1024 * 1024

// HasEXIFExtension reports whether name is a JPEG or TIFF file by extension.
func HasEXIFExtension(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg", ".tif", ".tiff":
		return true
	default:
		return false
	}
}

// AuditImageFile reads the image at filePath and returns its disclosing
// EXIF tags. name is used as the finding's Image field. Images without
// EXIF data yield no findings and no error.
func AuditImageFile(filePath, name string, maxSize int64) ([]MetadataFinding, error) {
	f, err := os.Open(filePath) //nolint:gosec // path comes from a page reference inside the site root
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("%s: %w", name, ErrImageTooLarge)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return AuditImageData(data, name)
}

// AuditImageData extracts EXIF tags from raw image bytes.
func AuditImageData(data []byte, name string) ([]MetadataFinding, error) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return nil, nil
		}
		return nil, err
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil, err
	}

	findings := make([]MetadataFinding, 0)
	for _, entry := range entries {
		c, ok := tagCategories[entry.TagName]
		if !ok {
			continue
		}
		findings = append(findings, MetadataFinding{
			Image:    name,
			Category: c.category,
			Tag:      entry.TagName,
			Value:    strings.TrimSpace(entry.Formatted),
			Severity: c.severity,
		})
	}
	return findings, nil
}
