// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"gpudrv-cli/internal/registry"
)

// listEntry is the JSON form of one row of `gpudrv list --json`.
type listEntry struct {
	Name          string `json:"name"`
	Path          string `json:"path,omitempty"`
	Active        bool   `json:"active"`
	System        bool   `json:"system"`
	Size          int64  `json:"size,omitempty"`
	Description   string `json:"description,omitempty"`
	Version       string `json:"version,omitempty"`
	VulkanVersion string `json:"vulkan_version,omitempty"`
	Vendor        string `json:"vendor,omitempty"`
	Author        string `json:"author,omitempty"`
	MinAPI        int    `json:"min_api,omitempty"`
	Library       string `json:"library,omitempty"`
}

func newListCommand(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the system driver and stored driver packages",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(runList(cmd, app, asJSON))
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the listing as JSON")
	return cmd
}

func runList(cmd *cobra.Command, app *App, asJSON bool) error {
	s, err := app.openSession(cmd.Context())
	if err != nil {
		return err
	}
	packages, err := s.activator.Registry().List()
	if err != nil {
		return err
	}

	// The system driver is active whenever no package library is published.
	entries := []listEntry{toListEntry(registry.SystemDriver(), s.state.ActivePath() == "")}
	for _, pkg := range packages {
		entries = append(entries, toListEntry(pkg, s.activator.IsActive(pkg.Path)))
	}

	if asJSON {
		enc := json.NewEncoder(app.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	renderList(app.stdout, entries, packages, app.verbose)
	return nil
}

func toListEntry(pkg registry.Package, active bool) listEntry {
	e := listEntry{
		Name:   pkg.Name,
		Path:   pkg.Path,
		Active: active,
		System: pkg.IsSystemDriver(),
		Size:   pkg.Size,
	}
	if d := pkg.Descriptor; d != nil {
		e.Description = d.Description()
		e.Version = d.Version()
		e.VulkanVersion = d.VulkanVersion()
		e.Vendor = d.Vendor()
		e.Author = d.Author()
		e.MinAPI = d.MinAPI()
		e.Library = d.LibraryName()
	}
	return e
}

func renderList(w io.Writer, entries []listEntry, packages []registry.Package, verbose bool) {
	for i, e := range entries {
		marker := SubtitleStyle.Render("○")
		if e.Active {
			marker = SuccessStyle.Render("●")
		}
		fmt.Fprintf(w, "%s %s", marker, TitleStyle.Render(e.Name))

		if e.System {
			fmt.Fprintln(w)
			fmt.Fprintln(w, listDetailStyle.Render("Driver provided by the device"))
			continue
		}

		pkg := packages[i-1]
		if label := pkg.Descriptor.VulkanLabel(); label != "" {
			fmt.Fprintf(w, " %s", KeyStyle.Render(label))
		}
		fmt.Fprintln(w)
		if info := pkg.Descriptor.InfoLine(); info != "" {
			fmt.Fprintln(w, listDetailStyle.Render(info))
		}
		if e.Description != "" {
			fmt.Fprintln(w, listDetailStyle.Render(e.Description))
		}
		detail := pkg.FormattedSize()
		if verbose {
			detail += "  " + e.Path
		}
		fmt.Fprintln(w, listDetailStyle.Render(detail))
	}
}
