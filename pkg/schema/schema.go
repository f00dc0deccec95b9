// Package schema reads the semantic data schema shared across the network.
//
// The schema file maps variable names to ontology classes and, for
// categorical variables, to the classes of their permitted values.
// Class references come in two spellings, a prefixed form ("ncit:C16352")
// and a full URI; PrefixMap, Expand and Compact convert between them.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// matches declarations like `PREFIX roo: <http://www.cancerdata.org/roo/>`.
var prefixPattern = regexp.MustCompile(`PREFIX (\w+): <([^>]+)>`)

// NCItURI is assumed for the "ncit" prefix even when the schema
// does not declare it.
const NCItURI = "http://ncicb.nci.nih.gov/xml/owl/EVS/Thesaurus.owl#"

// Schema is the parsed content of the data schema file.
type Schema struct {
	// Prefixes holds SPARQL-style PREFIX declarations, verbatim.
	Prefixes string `json:"prefixes"`

	// VariableInfo maps a variable name to its class bindings.
	VariableInfo map[string]VariableInfo `json:"variable_info"`
}

// VariableInfo binds one variable to its ontology class.
type VariableInfo struct {
	Class                string           `json:"class"`
	ValueMapping         *ValueMapping    `json:"value_mapping,omitempty"`
	SchemaReconstruction []Reconstruction `json:"schema_reconstruction,omitempty"`
}

// Reconstruction is one level of a variable's placement in the
// semantic model. Class levels carry the category the variable
// belongs to as their aesthetic label.
type Reconstruction struct {
	Type           string `json:"type"`
	AestheticLabel string `json:"aesthetic_label,omitempty"`
	Placement      string `json:"placement,omitempty"`
}

// ValueMapping enumerates the permitted values of a categorical variable.
type ValueMapping struct {
	Terms map[string]Term `json:"terms"`
}

// Term is one permitted value, bound to its ontology class.
type Term struct {
	TargetClass string `json:"target_class"`
}

// Load reads and parses the schema file at path.
//
// Only .json files are accepted.
func Load(path string) (Schema, error) {
	if !strings.HasSuffix(path, ".json") {
		return Schema{}, fmt.Errorf("schema file should be a .json file: %s", path)
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	s := Schema{}
	if err := json.Unmarshal(buf, &s); err != nil {
		return Schema{}, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}
	return s, nil
}

// PrefixMap parses the PREFIX declarations into a prefix-to-URI map.
//
// The "ncit" prefix is always present, defaulted to NCItURI
// unless the schema declares it otherwise.
func (s Schema) PrefixMap() map[string]string {
	m := map[string]string{"ncit": NCItURI}
	for _, match := range prefixPattern.FindAllStringSubmatch(s.Prefixes, -1) {
		m[match[1]] = match[2]
	}
	return m
}

// Expand rewrites a prefixed class reference into its full URI form.
//
// A reference with no known prefix is returned unchanged.
func (s Schema) Expand(class string) string {
	for prefix, uri := range s.PrefixMap() {
		if strings.Contains(class, prefix+":") {
			return strings.ReplaceAll(class, prefix+":", uri)
		}
	}
	return class
}

// Compact rewrites a full URI class reference back into its prefixed form.
//
// A reference under no known URI is returned unchanged.
func (s Schema) Compact(class string) string {
	for prefix, uri := range s.PrefixMap() {
		if strings.Contains(class, uri) {
			return strings.ReplaceAll(class, uri, prefix+":")
		}
	}
	return class
}

// CategoryOf lists the categories a variable belongs to, read from the
// class levels of its schema reconstruction.
//
// Levels beyond maxDepth, non-class levels, unlabelled levels and
// levels placed "after" the variable do not carry a category.
// Categories are normalised as by NormalizeCategory.
func (s Schema) CategoryOf(variable string, maxDepth int) []string {
	info, ok := s.VariableInfo[variable]
	if !ok {
		return nil
	}

	categories := []string{}
	for level, rec := range info.SchemaReconstruction {
		if level >= maxDepth {
			break
		}
		if rec.Type != "class" || rec.AestheticLabel == "" || rec.Placement == "after" {
			continue
		}
		categories = append(categories, NormalizeCategory(rec.AestheticLabel))
	}
	return categories
}

// NormalizeCategory renders a category name comparable:
// lowercased, underscores replaced with spaces.
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.ReplaceAll(category, "_", " "))
}

// VariableNames lists the schema's variable names, sorted.
func (s Schema) VariableNames() []string {
	names := make([]string, 0, len(s.VariableInfo))
	for name := range s.VariableInfo {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// questionnaire names are acronyms, so they are fully uppercased
// instead of titlecased.
var namesToCapitalise = []string{"eortc", "hads"}

// DisplayName renders a variable name for human eyes:
// underscores become spaces and words are titlecased,
// except acronym-bearing names which are uppercased whole.
func DisplayName(variable string) string {
	spaced := strings.ReplaceAll(variable, "_", " ")
	for _, name := range namesToCapitalise {
		if strings.Contains(variable, name) {
			return strings.ToUpper(spaced)
		}
	}
	return Title(spaced)
}

// Title titlecases each word of a display string.
func Title(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
