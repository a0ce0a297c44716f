// Package audit inspects a site without modifying it.
//
// It extracts the local resources each page references (images, scripts,
// stylesheets and links), reports references whose target file does not
// exist, and reads EXIF metadata from referenced JPEG and TIFF images so
// that GPS positions, camera serial numbers or author names are not
// published by accident. The check command runs it next to a dry run of
// the standardizer.
package audit
