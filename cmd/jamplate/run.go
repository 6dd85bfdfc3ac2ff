package main

import (
	"fmt"
	"os"

	"github.com/jamplate/jamplate/internal/cache"
	"github.com/jamplate/jamplate/internal/document"
	"github.com/jamplate/jamplate/internal/environment"
)

// RunCmd renders a single document's console output to stdout.
type RunCmd struct {
	Path    string `arg:"" help:"Path to the document to render." type:"existingfile"`
	NoCache bool   `help:"Disable the content-addressed compile cache."`
}

func (c *RunCmd) Run() error {
	content, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.Path, err)
	}

	bundle, err := bundleFor(CLI.Dialect)
	if err != nil {
		return err
	}
	var compileCache *cache.Cache
	if !c.NoCache {
		compileCache = cache.New()
	}
	env := environment.New(bundle, compileCache)

	doc := document.New(c.Path, string(content))
	if _, err := env.Compile(doc); err != nil {
		return fmt.Errorf("compile %s: %w", c.Path, err)
	}
	output, err := env.Execute(c.Path)
	if err != nil {
		return fmt.Errorf("execute %s: %w", c.Path, err)
	}
	fmt.Print(output)
	return nil
}
