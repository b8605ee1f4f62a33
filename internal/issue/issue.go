// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	PackageNotFoundId
	InvalidDescriptorId
	UnsupportedAPILevelId
	LibraryUnresolvedId
	NotAnArchiveId
	DownloadFailedId
	PermissionDeniedId
	StateCorruptId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Markdown returns the page source with a trailing "See also" list.
func (i *Issue) Markdown() string {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range slices.Concat(i.docLinks, i.extLinks) {
			sb.WriteString("- <" + string(link) + ">\n")
		}
	}
	return sb.String()
}

// Render renders the page for a terminal using a glamour style
// ("dark", "light", "notty", "auto" or a path to a style file).
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load the configuration!

The configuration file could not be read or does not match the schema.

## Things you can try:
- Print the effective configuration:
~~~
$ gpudrv config show
~~~
- Find the file that was loaded:
~~~
$ gpudrv config path
~~~
- Check the GPUDRV_* environment variables; they override the file.
- Recreate a default file after moving the broken one away:
~~~
$ gpudrv config init
~~~`,
	}

	packageNotFoundIssue = &Issue{
		id: PackageNotFoundId,
		mdMsg: `
# Driver package not found!

No stored package matches the name or path you gave.

## Things you can try:
- List the stored packages and use the name or file name shown:
~~~
$ gpudrv list
~~~
- Use ` + "`system`" + ` to switch back to the default driver:
~~~
$ gpudrv use system
~~~`,
	}

	invalidDescriptorIssue = &Issue{
		id: InvalidDescriptorId,
		mdMsg: `
# The archive is not a valid driver package!

Every driver package needs a ` + "`meta.json`" + ` with a non-empty ` + "`name`" + ` and a
non-empty ` + "`libraryName`" + ` (or ` + "`library_name`" + `) naming the driver library.

## Example meta.json:
~~~json
{
  "schemaVersion": 1,
  "name": "Turnip",
  "description": "Mesa Turnip driver",
  "author": "Mesa",
  "packageVersion": "1",
  "vendor": "Mesa",
  "driverVersion": "Vulkan 1.3.289",
  "minApi": 28,
  "libraryName": "libvulkan_freedreno.so"
}
~~~

## Things you can try:
- Inspect what the archive contains:
~~~
$ gpudrv inspect driver.zip
~~~`,
	}

	unsupportedAPILevelIssue = &Issue{
		id: UnsupportedAPILevelId,
		mdMsg: `
# The driver needs a newer platform!

The package declares a ` + "`minApi`" + ` above the current platform API level.

## Things you can try:
- Pick a driver build made for your platform.
- If the level was detected wrongly, pin it in the config:
~~~cue
platform_api_level: 34
~~~`,
	}

	libraryUnresolvedIssue = &Issue{
		id: LibraryUnresolvedId,
		mdMsg: `
# No driver library found in the package!

The archive was extracted but no file matches its ` + "`libraryName`" + `, and no ` + "`.so`" + ` file sits at the top of the archive.

## Things you can try:
- Check the ` + "`libraryName`" + ` field in ` + "`meta.json`" + `.
- Make sure the library is at the archive root, not inside a folder.`,
	}

	notAnArchiveIssue = &Issue{
		id: NotAnArchiveId,
		mdMsg: `
# The source is not a ZIP archive!

The content was rejected before anything was copied.

## Things you can try:
- Download links often serve an HTML page; use the direct file link.
- Repack the driver as a ` + "`.zip`" + ` file.`,
	}

	downloadFailedIssue = &Issue{
		id: DownloadFailedId,
		mdMsg: `
# Download failed!

The driver could not be fetched after several attempts.

## Things you can try:
- Check the URL in a browser.
- Check your network connection and proxy settings.
- Download the file manually and install it from disk:
~~~
$ gpudrv install ./driver.zip
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

gpudrv could not write to its data directory.

## Things you can try:
- Check where the data lives:
~~~
$ gpudrv status
~~~
- Fix the directory ownership, or point ` + "`data_dir`" + ` at a directory you own.`,
	}

	stateCorruptIssue = &Issue{
		id: StateCorruptId,
		mdMsg: `
# The published driver state is unreadable!

The state file that records the active driver could not be parsed.

## Things you can try:
- Reset to the default driver, which rewrites the state:
~~~
$ gpudrv reset
~~~
- If that fails, delete ` + "`state.toml`" + ` in the data directory.`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		packageNotFoundIssue.Id():     packageNotFoundIssue,
		invalidDescriptorIssue.Id():   invalidDescriptorIssue,
		unsupportedAPILevelIssue.Id(): unsupportedAPILevelIssue,
		libraryUnresolvedIssue.Id():   libraryUnresolvedIssue,
		notAnArchiveIssue.Id():        notAnArchiveIssue,
		downloadFailedIssue.Id():      downloadFailedIssue,
		permissionDeniedIssue.Id():    permissionDeniedIssue,
		stateCorruptIssue.Id():        stateCorruptIssue,
	}
)

// Values returns every catalog page ordered by Id.
func Values() []*Issue {
	values := slices.Collect(maps.Values(issues))
	slices.SortFunc(values, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
