// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	_ "embed"

	"github.com/z5labs/closer/example/pgarchive/app"
)

//go:embed config.yaml
var configBytes []byte

func main() {
	app.Run(bytes.NewReader(configBytes))
}
