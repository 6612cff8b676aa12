//go:build !rp2040 && !rp2350

package main

import (
	"io"
	"os"
)

const deviceID = "sim"

func consoleWriter() io.Writer { return os.Stdout }
