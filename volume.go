// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pna

import (
	"fmt"
	"io"
	"os"

	"github.com/luci/luci-go/common/errors"
)

// FileVolumeOpener returns a VolumeOpener that formats pattern with the
// volume's archive number (a %d verb, e.g. "backup.%03d.pna") and opens the
// result with flag and perm.
func FileVolumeOpener(pattern string, flag int, perm os.FileMode) VolumeOpener {
	return func(archiveNumber uint32) (io.WriteCloser, error) {
		path := fmt.Sprintf(pattern, archiveNumber)
		f, err := os.OpenFile(path, flag, perm)
		if err != nil {
			return nil, errors.Annotate(err).Reason("opening volume file %(path)q").D("path", path).Err()
		}
		return f, nil
	}
}

// FileVolumeLocator returns a WithVolumeLocator callback that formats
// pattern the same way FileVolumeOpener does and opens the result for
// reading. currentPath is ignored; every volume's name is derived solely
// from its archive number.
func FileVolumeLocator(pattern string) func(currentPath string, archiveNumber uint32) (io.ReadCloser, error) {
	return func(currentPath string, archiveNumber uint32) (io.ReadCloser, error) {
		path := fmt.Sprintf(pattern, archiveNumber)
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Annotate(err).Reason("opening volume file %(path)q").D("path", path).Err()
		}
		return f, nil
	}
}
