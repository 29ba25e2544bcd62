// schemactl is the schema gate: it lints schema files, prints resolved
// message definitions, and checks whether one schema version may replace
// another. Wired into builds so an incompatible change fails before anything
// ships.
package main

import (
	"flag"
	"fmt"
	"os"

	logs "github.com/inchori/raftify/internal/logging"
	"github.com/inchori/raftify/internal/schema"
)

type options struct {
	mode       string
	schemaPath string
	oldPath    string
	newPath    string
	message    string
}

func main() {
	logs.ConfigureRuntime()
	opts := parseFlags()
	switch opts.mode {
	case "lint":
		if err := runLint(opts); err != nil {
			fatalf("%v", err)
		}
	case "resolve":
		if err := runResolve(opts); err != nil {
			fatalf("%v", err)
		}
	case "check":
		if err := runCheck(opts); err != nil {
			fatalf("%v", err)
		}
	default:
		fatalf("unknown mode %q (supported: lint, resolve, check)", opts.mode)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.mode, "mode", "lint", "mode: lint | resolve | check")
	flag.StringVar(&opts.schemaPath, "schema", "", "schema file (lint, resolve)")
	flag.StringVar(&opts.oldPath, "old", "", "published schema file (check)")
	flag.StringVar(&opts.newPath, "new", "", "candidate schema file (check)")
	flag.StringVar(&opts.message, "message", "", "message name (resolve)")
	flag.Parse()
	return opts
}

func runLint(opts options) error {
	if opts.schemaPath == "" {
		return fmt.Errorf("lint requires -schema")
	}
	s, err := schema.LoadFile(opts.schemaPath)
	if err != nil {
		return err
	}
	fmt.Printf("ok: %s %s (messages=%d methods=%d)\n",
		s.Name, s.Version, len(s.Messages), len(s.Methods))
	return nil
}

func runResolve(opts options) error {
	if opts.schemaPath == "" || opts.message == "" {
		return fmt.Errorf("resolve requires -schema and -message")
	}
	s, err := schema.LoadFile(opts.schemaPath)
	if err != nil {
		return err
	}
	def, err := s.Resolve(opts.message)
	if err != nil {
		return err
	}
	fmt.Printf("message %s\n", def.Name)
	for _, f := range def.Fields {
		line := fmt.Sprintf("  %d %s %s", f.Tag, f.Name, f.Kind)
		if f.Kind == schema.KindMessage {
			line += fmt.Sprintf("<%s>", f.MessageType)
		}
		if f.Repeated {
			line += " repeated"
		}
		if f.Optional {
			line += " optional"
		}
		fmt.Println(line)
	}
	return nil
}

func runCheck(opts options) error {
	if opts.oldPath == "" || opts.newPath == "" {
		return fmt.Errorf("check requires -old and -new")
	}
	oldSchema, err := schema.LoadFile(opts.oldPath)
	if err != nil {
		return err
	}
	newSchema, err := schema.LoadFile(opts.newPath)
	if err != nil {
		return err
	}
	if err := schema.Compatible(oldSchema, newSchema); err != nil {
		return err
	}
	fmt.Printf("compatible: %s -> %s\n", oldSchema.Version, newSchema.Version)
	return nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "schemactl: "+format+"\n", args...)
	os.Exit(1)
}
