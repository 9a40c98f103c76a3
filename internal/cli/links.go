package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/corpusql/internal/compiler"
	"github.com/roach88/corpusql/internal/links"
)

// LinksOptions holds flags for the links command.
type LinksOptions struct {
	*RootOptions
	QueryFlags
}

// LinkEntry is one registered link as printed by the links command.
type LinkEntry struct {
	Hash    string     `json:"hash"`
	Link    links.Link `json:"link"`
	Feature string     `json:"feature"` // example output feature
}

// NewLinksCommand creates the links command.
func NewLinksCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LinksOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "links",
		Short: "List the links of a link profile",
		Long: `List the links registered in a link profile together with their hashes.

A linked output feature is written <hash>.<foreign feature>; the listing
shows one for the target feature of each link.

Examples:
  corpusql links --schemas ./corpora --links links.yaml
  corpusql links --profile demo --link-profile lab --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyProfile(cmd, opts.RootOptions)
			return runLinks(opts, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Schemas, "schemas", "", "directory of CUE resource files")
	f.StringVar(&opts.Links, "links", "", "link registry file (YAML)")
	f.StringVar(&opts.LinkProfile, "link-profile", "default", "profile inside the link registry")

	return cmd
}

func runLinks(opts *LinksOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	entries, err := listLinks(opts.Schemas, opts.Links, opts.LinkProfile)
	if err != nil {
		return outputCommandError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintf(formatter.Writer, "no links in profile %q\n", opts.LinkProfile)
		return nil
	}
	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = []any{
			e.Hash,
			e.Link.SourceSchema + "." + e.Link.SourceFeature,
			e.Link.TargetSchema + "." + e.Link.TargetFeature,
			string(e.Link.Join),
			e.Feature,
		}
	}
	return formatter.Table([]string{"HASH", "SOURCE", "TARGET", "JOIN", "FEATURE"}, rows)
}

func listLinks(schemasDir, linksFile, profile string) ([]LinkEntry, error) {
	if schemasDir == "" {
		return nil, commandError(ErrCodeNotFound, "--schemas is required", nil)
	}
	if linksFile == "" {
		return nil, commandError(ErrCodeNotFound, "--links is required", nil)
	}
	loaded, loadErrs := LoadSchemas(schemasDir, LoadModeFailFast)
	if len(loadErrs) > 0 {
		return nil, commandError(loadErrorCode(loadErrs[0]), "loading schemas", loadErrs[0])
	}
	schemas, err := compiler.BuildSchemas(loaded.Resources)
	if err != nil {
		return nil, commandError(ErrCodeGeneric, "building schemas", err)
	}
	reg, err := links.LoadFile(linksFile, profile, schemas)
	if err != nil {
		return nil, commandError(ErrCodeLinks, "loading links", err)
	}

	entries := make([]LinkEntry, 0, len(reg.Links()))
	for _, l := range reg.Links() {
		entries = append(entries, LinkEntry{
			Hash:    l.Hash(),
			Link:    l,
			Feature: l.Feature(l.TargetFeature),
		})
	}
	return entries, nil
}
