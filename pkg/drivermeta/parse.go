// SPDX-License-Identifier: MPL-2.0

package drivermeta

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// versionPattern matches dotted-numeric versions such as "1.3.231" or "1.2.0 core".
	versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+.*$`)

	// vulkanPrefix strips everything up to and including the last "vulkan".
	vulkanPrefix = regexp.MustCompile(`(?i).*vulkan\s*`)

	errNotString  = errors.New("expected a string value")
	errNotInteger = errors.New("expected an integer value")
)

type (
	// rule binds a descriptor field to its JSON keys in priority order.
	// The first key present in the document is applied; the rest are ignored.
	rule struct {
		keys []string
		// skip, when set, disables the rule for the descriptor built so far.
		skip  func(d *Descriptor) bool
		apply func(d *Descriptor, value any) error
	}

	object map[string]any
)

// rules is evaluated top to bottom. Aliases for an existing field are added
// to its keys slice; later rules may depend on fields set by earlier ones.
var rules = []rule{
	{keys: []string{"name"}, apply: setString(func(d *Descriptor, s string) { d.name = s })},
	{keys: []string{"library_name", "libraryName"}, apply: setString(func(d *Descriptor, s string) { d.libraryName = s })},
	{keys: []string{"min_api", "minApi"}, apply: setInt(func(d *Descriptor, n int) { d.minAPI = n })},
	{keys: []string{"description"}, apply: setString(func(d *Descriptor, s string) { d.description = s })},
	{keys: []string{"version"}, apply: setString(func(d *Descriptor, s string) { d.version = s })},
	{keys: []string{"driverVersion"}, apply: setString(applyDriverVersion)},
	{
		keys:  []string{"vulkan_version", "vulkanVersion", "vulkan", "api_version", "apiVersion", "vulkanApiVersion"},
		skip:  hasVulkanVersion,
		apply: setString(func(d *Descriptor, s string) { d.vulkanVersion = s }),
	},
	{keys: []string{"author"}, apply: setString(func(d *Descriptor, s string) { d.author = s })},
	{keys: []string{"vendor"}, apply: setString(func(d *Descriptor, s string) { d.vendor = s })},
}

// Parse decodes descriptor bytes. Malformed input yields the zero Descriptor.
func Parse(data []byte) Descriptor {
	d, _ := ParseWithDiagnostic(data)
	return d
}

// ParseWithDiagnostic decodes descriptor bytes and reports why parsing failed.
// The returned Descriptor is the zero value whenever the diagnostic is non-nil.
// A well-formed document missing required keys is not a parse failure; check
// Descriptor.IsValid for that.
func ParseWithDiagnostic(data []byte) (Descriptor, *Diagnostic) {
	doc, diag := decodeObject(data)
	if diag != nil {
		return Descriptor{}, diag
	}

	var d Descriptor
	for _, r := range rules {
		if r.skip != nil && r.skip(&d) {
			continue
		}
		key, value, ok := doc.first(r.keys)
		if !ok {
			continue
		}
		if err := r.apply(&d, value); err != nil {
			return Descriptor{}, &Diagnostic{Kind: DiagnosticFieldType, Key: key, Cause: err}
		}
	}

	if d.vulkanVersion == "" && versionPattern.MatchString(d.version) {
		d.vulkanVersion = d.version
	}

	return d, nil
}

func decodeObject(data []byte) (object, *Diagnostic) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &Diagnostic{Kind: DiagnosticMalformedJSON, Cause: err}
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, &Diagnostic{Kind: DiagnosticNotObject, Cause: fmt.Errorf("got %T", raw)}
	}
	return object(m), nil
}

func (o object) first(keys []string) (key string, value any, ok bool) {
	for _, k := range keys {
		if v, present := o[k]; present {
			return k, v, true
		}
	}
	return "", nil, false
}

// applyDriverVersion overrides the version and derives the Vulkan version from it.
func applyDriverVersion(d *Descriptor, s string) {
	d.version = s

	if strings.Contains(strings.ToLower(s), "vulkan") {
		if rest := strings.TrimSpace(vulkanPrefix.ReplaceAllString(s, "")); rest != "" {
			d.vulkanVersion = rest
		} else {
			d.vulkanVersion = s
		}
		return
	}
	if versionPattern.MatchString(s) {
		d.vulkanVersion = s
	}
}

func hasVulkanVersion(d *Descriptor) bool { return d.vulkanVersion != "" }

func setString(set func(d *Descriptor, s string)) func(*Descriptor, any) error {
	return func(d *Descriptor, value any) error {
		s, err := stringValue(value)
		if err != nil {
			return err
		}
		set(d, s)
		return nil
	}
}

func setInt(set func(d *Descriptor, n int)) func(*Descriptor, any) error {
	return func(d *Descriptor, value any) error {
		n, err := intValue(value)
		if err != nil {
			return err
		}
		set(d, n)
		return nil
	}
}

// stringValue renders any JSON value as text. Scalars read as their literal
// text, null as "null", and arrays or objects as compact JSON.
func stringValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "null", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case []any, map[string]any:
		text, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("%w: %w", errNotString, err)
		}
		return string(text), nil
	default:
		return "", fmt.Errorf("%w, got %T", errNotString, value)
	}
}

// intValue accepts numbers and numeric strings, truncating fractions.
func intValue(value any) (int, error) {
	var text string
	switch v := value.(type) {
	case json.Number:
		text = v.String()
	case string:
		text = strings.TrimSpace(v)
	default:
		return 0, fmt.Errorf("%w, got %T", errNotInteger, value)
	}

	if n, err := strconv.Atoi(text); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("%w: %q", errNotInteger, text)
	}
	return int(f), nil
}
