// Command schema writes JSON schema of the PDS submission, used by the form frontend and editors
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/go-pkgz/lgr"
	"github.com/umputun/go-flags"

	"github.com/cabwad/hris/app/pds"
)

type options struct {
	Out    string `short:"o" long:"out" default:"pds-schema.json" description:"output file, - for stdout"`
	Indent int    `long:"indent" default:"2" description:"indent width, 0 for compact output"`
	Check  bool   `long:"check" description:"fail if the output file differs from the generated schema"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	log.Setup(log.Msec, log.LevelBraces)
	if err := run(opts, os.Stdout); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func run(opts options, stdout io.Writer) error {
	data, err := render(opts.Indent)
	if err != nil {
		return err
	}

	switch {
	case opts.Out == "-":
		_, err = stdout.Write(data)
		return err
	case opts.Check:
		existing, err := os.ReadFile(opts.Out)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", opts.Out, err)
		}
		if !bytes.Equal(existing, data) {
			return fmt.Errorf("%s is out of date, regenerate it", opts.Out)
		}
		log.Printf("[INFO] %s is up to date", opts.Out)
		return nil
	}

	if err := os.WriteFile(opts.Out, data, 0o644); err != nil { //nolint:gosec // schema file is public
		return fmt.Errorf("failed to write schema file: %w", err)
	}
	log.Printf("[INFO] schema written to %s, %d bytes", opts.Out, len(data))
	return nil
}

// render marshals the schema with trailing newline
func render(indent int) ([]byte, error) {
	var data []byte
	var err error
	if indent > 0 {
		data, err = json.MarshalIndent(pds.Schema(), "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(pds.Schema())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}
