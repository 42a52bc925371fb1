// Package version checks GitHub for newer plst4 releases.
package version

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/metafates/gache"
	"github.com/plst4-cli/plst4/filesystem"
	"github.com/plst4-cli/plst4/network"
	"github.com/plst4-cli/plst4/util"
	"github.com/plst4-cli/plst4/where"
)

// ReleasesURL is the GitHub API endpoint of the latest release.
const ReleasesURL = "https://api.github.com/repos/plst4-cli/plst4/releases/latest"

var versionCacher = gache.New[string](&gache.Options{
	Path:       filepath.Join(where.Cache(), "version.json"),
	Lifetime:   time.Hour * 24 * 2,
	FileSystem: &filesystem.GacheFs{},
})

// Latest returns the newest released version, cached for two days.
func Latest() (string, error) {
	ver, expired, err := versionCacher.Get()
	if err != nil {
		return "", err
	}
	if !expired && ver != "" {
		return ver, nil
	}

	resp, err := network.Client.Get(ReleasesURL)
	if err != nil {
		return "", err
	}
	defer util.Ignore(resp.Body.Close)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("releases: unexpected status %s", resp.Status)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}
	if release.TagName == "" {
		return "", errors.New("empty tag name")
	}

	ver = strings.TrimPrefix(release.TagName, "v")
	_ = versionCacher.Set(ver)
	return ver, nil
}
