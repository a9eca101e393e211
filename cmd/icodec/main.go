// Command icodec converts images between the registered formats.
//
//	icodec encode -f avif -o out -opt quality=80 -opt tune=ssim in.png ...
//	icodec decode -o out in.avif ...
//	icodec list
//
// Build with -tags icodec_native to link the cgo backends.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"

	"github.com/cocosip/go-icodec/codec"
)

var errUsage = errors.New("usage: icodec <encode|decode|list> [flags] [files...]")

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Prefix:          "icodec",
	})
	if err := run(os.Args[1:], os.Stdout, logger); err != nil {
		logger.Error("failed", "err", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer, logger *log.Logger) error {
	if len(args) == 0 {
		return errUsage
	}
	codec.SetLogger(slog.New(logger))
	defer codec.SetLogger(nil)

	switch args[0] {
	case "encode":
		return runEncode(args[1:], logger)
	case "decode":
		return runDecode(args[1:], logger)
	case "list":
		return runList(stdout)
	}
	return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
}

func runList(w io.Writer) error {
	for _, c := range codec.List() {
		if _, err := fmt.Fprintf(w, "%-8s %-12s .%s\n", c.Name(), c.MIMEType(), c.Extension()); err != nil {
			return err
		}
	}
	return nil
}
