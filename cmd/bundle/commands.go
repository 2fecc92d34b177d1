package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	gobundle "github.com/albertocavalcante/go-bundle"
)

func newResolveCmd(o *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a bundle and print the selected packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := o.indexPath()
			if err != nil {
				return err
			}
			result, err := o.resolve(cmd, path)
			if err != nil {
				return err
			}
			switch output {
			case "json":
				return writeJSON(cmd.OutOrStdout(), result)
			case "text":
				writeResult(cmd.OutOrStdout(), result)
				return nil
			default:
				return fmt.Errorf("invalid --output %q: want text or json", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text or json")
	return cmd
}

func newGraphCmd(o *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the contract graph of a resolved bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := o.indexPath()
			if err != nil {
				return err
			}
			result, err := o.resolve(cmd, path)
			if err != nil {
				return err
			}
			g := result.Graph()
			w := cmd.OutOrStdout()
			switch format {
			case "dot":
				_, err = io.WriteString(w, g.ToDOT())
			case "text":
				_, err = io.WriteString(w, g.ToText())
			case "json":
				var data []byte
				if data, err = g.ToJSON(); err == nil {
					_, err = fmt.Fprintln(w, string(data))
				}
			default:
				err = fmt.Errorf("invalid --format %q: want dot, json or text", format)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Graph format: dot, json or text")
	return cmd
}

func newExplainCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "explain NAME",
		Short: "Explain how the package for NAME was selected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := o.indexPath()
			if err != nil {
				return err
			}
			result, err := o.resolve(cmd, path)
			if err != nil {
				return err
			}
			text, err := result.Graph().ToExplainText(args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), text)
			return err
		},
	}
}

func newDiffCmd(o *options) *cobra.Command {
	var (
		against string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare the bundles resolved from two index files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := o.indexPath()
			if err != nil {
				return err
			}
			if against == "" {
				return fmt.Errorf("--against is required")
			}
			before, err := o.resolve(cmd, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			after, err := o.resolve(cmd, against)
			if err != nil {
				return fmt.Errorf("%s: %w", against, err)
			}
			diff := gobundle.DiffBundles(before, after)
			if output == "json" {
				return writeJSON(cmd.OutOrStdout(), diff)
			}
			writeDiff(cmd.OutOrStdout(), diff)
			return nil
		},
	}
	cmd.Flags().StringVar(&against, "against", "", "Index file to compare with --index")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text or json")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeResult(w io.Writer, r *gobundle.Result) {
	for _, p := range r.Packages {
		line := fmt.Sprintf("%s %s", p.Name, p.Ref())
		var notes []string
		if p.Trigger {
			notes = append(notes, "trigger")
		}
		if p.Yanked {
			notes = append(notes, "yanked")
		}
		if len(notes) > 0 {
			line += " (" + strings.Join(notes, ", ") + ")"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "\n%d packages, %d downgrades, %d rounds\n",
		r.Summary.Total, r.Summary.Downgrades, r.Summary.Rounds)
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

func writeDiff(w io.Writer, d *gobundle.BundleDiff) {
	if d.IsEmpty() {
		fmt.Fprintln(w, "no changes")
		return
	}
	for _, c := range d.Added {
		fmt.Fprintf(w, "+ %s %s\n", c.Name, c.Package)
	}
	for _, c := range d.Removed {
		fmt.Fprintf(w, "- %s %s\n", c.Name, c.Package)
	}
	for _, u := range d.Upgraded {
		fmt.Fprintf(w, "↑ %s %s -> %s\n", u.Name, u.Old, u.New)
	}
	for _, u := range d.Downgraded {
		fmt.Fprintf(w, "↓ %s %s -> %s\n", u.Name, u.Old, u.New)
	}
	for _, u := range d.Replaced {
		fmt.Fprintf(w, "~ %s %s -> %s\n", u.Name, u.Old, u.New)
	}
	for _, c := range d.Contracts {
		fmt.Fprintf(w, "contract %s: %q -> %q\n", c.Name, c.Old, c.New)
	}
}
