// Package template manages email templates with variable substitution.
// Templates are plain-text or HTML files; {{variable}} placeholders are
// filled from a value map, with HTML values escaped in .html templates.
package template

import (
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Variable represents a template placeholder found in a template.
type Variable struct {
	Name     string `json:"name"`
	Default  string `json:"default,omitempty"`
	Required bool   `json:"required,omitempty"`
}

// Template represents an email template with metadata.
type Template struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Path        string     `json:"path"`
	Variables   []Variable `json:"variables"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// IsHTML reports whether the template renders to HTML.
func (t *Template) IsHTML() bool {
	return isHTMLPath(t.Path)
}

// ApplyResult holds the outcome of applying variables to a template.
type ApplyResult struct {
	Body             string   `json:"body"`
	VariablesApplied int      `json:"variablesApplied"`
	VariablesMissing int      `json:"variablesMissing"`
	MissingNames     []string `json:"missingNames,omitempty"`
}

// varPattern matches {{variableName}} with optional whitespace inside braces.
var varPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_.]*)\s*\}\}`)

// ExtractVariables scans a template file and returns all unique variables
// found, sorted by name.
func ExtractVariables(path string) ([]Variable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	return ExtractVariablesFromText(string(data)), nil
}

// ExtractVariablesFromText scans template text for variables.
func ExtractVariablesFromText(text string) []Variable {
	seen := make(map[string]bool)
	var vars []Variable
	for _, m := range varPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			vars = append(vars, Variable{Name: m[1], Required: true})
		}
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return vars
}

// Apply reads a template file and substitutes the given values.
func Apply(templatePath string, values map[string]string) (*ApplyResult, error) {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("could not read template %s: %w", templatePath, err)
	}
	return ApplyToText(string(data), values, isHTMLPath(templatePath)), nil
}

// ApplyToText substitutes values into template text. Unknown placeholders
// are left in place and reported as missing. When escapeHTML is set, value
// text is escaped so lead-provided strings cannot inject markup.
func ApplyToText(text string, values map[string]string, escapeHTML bool) *ApplyResult {
	missing := make(map[string]bool)
	applied := 0

	body := varPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := varPattern.FindStringSubmatch(match)[1]
		value, ok := values[name]
		if !ok {
			missing[name] = true
			return match
		}
		applied++
		if escapeHTML {
			return html.EscapeString(value)
		}
		return value
	})

	missingNames := make([]string, 0, len(missing))
	for name := range missing {
		missingNames = append(missingNames, name)
	}
	sort.Strings(missingNames)

	return &ApplyResult{
		Body:             body,
		VariablesApplied: applied,
		VariablesMissing: len(missingNames),
		MissingNames:     missingNames,
	}
}

func isHTMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// Library manages a collection of templates stored on disk.
type Library struct {
	Dir       string     `json:"dir"`
	Templates []Template `json:"templates"`
}

// LoadLibrary reads the template library metadata from dir, creating an
// empty library if none exists yet.
func LoadLibrary(dir string) (*Library, error) {
	lib := &Library{Dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, "library.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return lib, nil
		}
		return nil, fmt.Errorf("could not read template library: %w", err)
	}
	if err := json.Unmarshal(data, lib); err != nil {
		return nil, fmt.Errorf("corrupt template library metadata: %w", err)
	}
	lib.Dir = dir
	return lib, nil
}

// Save writes the library metadata back to disk.
func (lib *Library) Save() error {
	if err := os.MkdirAll(lib.Dir, 0755); err != nil {
		return fmt.Errorf("could not create template directory: %w", err)
	}
	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(lib.Dir, "library.json"), data, 0644)
}

// Add copies a template file into the library and records its variables.
func (lib *Library) Add(name, description, srcPath string) (*Template, error) {
	if _, err := lib.Get(name); err == nil {
		return nil, fmt.Errorf("a template named %q already exists — remove it first or pick another name", name)
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", srcPath, err)
	}

	if err := os.MkdirAll(lib.Dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create template directory: %w", err)
	}
	destPath := filepath.Join(lib.Dir, name+filepath.Ext(srcPath))
	if err := os.WriteFile(destPath, data, 0644); err != nil {
		return nil, fmt.Errorf("could not copy template: %w", err)
	}

	now := time.Now()
	tmpl := Template{
		Name:        name,
		Description: description,
		Path:        destPath,
		Variables:   ExtractVariablesFromText(string(data)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	lib.Templates = append(lib.Templates, tmpl)
	if err := lib.Save(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// Remove deletes a template from the library.
func (lib *Library) Remove(name string) error {
	for i, t := range lib.Templates {
		if t.Name == name {
			os.Remove(t.Path)
			lib.Templates = append(lib.Templates[:i], lib.Templates[i+1:]...)
			return lib.Save()
		}
	}
	return fmt.Errorf("no template named %q — run: sheetkit draft templates", name)
}

// Get returns a template by name.
func (lib *Library) Get(name string) (*Template, error) {
	for i := range lib.Templates {
		if lib.Templates[i].Name == name {
			return &lib.Templates[i], nil
		}
	}
	return nil, fmt.Errorf("no template named %q — run: sheetkit draft templates", name)
}

// List returns all templates sorted by name.
func (lib *Library) List() []Template {
	out := make([]Template, len(lib.Templates))
	copy(out, lib.Templates)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DefaultLibraryDir returns the standard template directory.
func DefaultLibraryDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "templates"
	}
	return filepath.Join(home, ".sheetkit", "templates")
}
