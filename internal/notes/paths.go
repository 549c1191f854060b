package notes

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// MediaPrefix is the storage namespace for note images.
const MediaPrefix = "media/"

// UploadPath returns the storage key for a file uploaded at the given time:
// media/<unix-millis>-<base filename>.
func UploadPath(uploadedAt time.Time, filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	return fmt.Sprintf("%s%d-%s", MediaPrefix, uploadedAt.UnixMilli(), name)
}
