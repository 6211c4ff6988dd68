package main

import (
	"fmt"
	"os"

	"github.com/danmuck/carrierctl/internal/observability"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	logger := observability.InitLogger("carrierctl", "")

	var err error
	switch os.Args[1] {
	case "encode":
		err = runEncode(os.Args[2:])
	case "decode":
		err = runDecode(os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:])
	case "run":
		err = runExecute(logger, os.Args[2:])
	case "selfmod":
		err = runSelfMod(logger, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "carrierctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: carrierctl <command> [flags]

commands:
  encode    store a payload file inside a carrier envelope
  decode    recover the payload bytes from a carrier envelope
  inspect   hex-dump a payload file or carrier envelope
  run       decode an envelope, load it executable, and invoke it
  selfmod   run a payload, patch the same region, and invoke it again`)
}
