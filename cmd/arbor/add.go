package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/vanderheijden86/arbor/internal/datasource"
)

// pathSep joins labels in the parent picker and the --parent flag.
const pathSep = " / "

// runAdd appends one item to an outline file, prompting for whatever the
// flags leave out. A missing file is created.
func runAdd(args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("arbor add", flag.ContinueOnError)
	flags.SetOutput(stderr)
	label := flags.String("label", "", "Label of the new item (prompted when empty)")
	parent := flags.String("parent", "", `Parent path, labels joined by " / " (empty for a top-level item)`)
	note := flags.String("note", "", "Markdown note for the new item")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: arbor add [options] <outline>")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return errors.New("add needs exactly one outline")
	}
	path := flags.Arg(0)

	o, err := datasource.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		o, err = datasource.Outline{}, nil
	}
	if err != nil {
		return err
	}

	if strings.TrimSpace(*label) == "" {
		if err := promptNode(o, label, parent); err != nil {
			return err
		}
	}

	n := datasource.Node{Label: strings.TrimSpace(*label), Note: *note}
	if err := o.Append(splitPath(*parent), n); err != nil {
		return err
	}
	if err := datasource.Save(path, o); err != nil {
		return err
	}

	where := "the top level"
	if *parent != "" {
		where = *parent
	}
	fmt.Fprintf(stdout, "Added %q under %s\n", n.Label, where)
	return nil
}

// promptNode asks for a label and picks the parent among the existing items.
func promptNode(o datasource.Outline, label, parent *string) error {
	options := []huh.Option[string]{huh.NewOption("(top level)", "")}
	for _, p := range datasource.Paths(o.Nodes) {
		s := strings.Join(p, pathSep)
		options = append(options, huh.NewOption(s, s))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Label").
				Value(label).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("label is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Parent").
				Options(options...).
				Value(parent),
		),
	)
	return form.Run()
}

func splitPath(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, pathSep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
