package output

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/ejagojo/shipsafe/internal/gitx"
	"github.com/ejagojo/shipsafe/internal/scanner"
)

const sarifSchemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"

// writeSARIF writes findings in SARIF format
func writeSARIF(w io.Writer, results *scanner.Results, opts Options) error {
	report, err := generateSARIF(results, opts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func generateSARIF(results *scanner.Results, opts Options) (map[string]interface{}, error) {
	driver := map[string]interface{}{
		"name":           "shipsafe",
		"informationUri": "https://github.com/ejagojo/shipsafe",
		"rules":          []map[string]interface{}{},
	}
	if opts.Version != "" {
		driver["version"] = opts.Version
	}

	run := map[string]interface{}{
		"tool":    map[string]interface{}{"driver": driver},
		"results": []map[string]interface{}{},
	}

	// Create SARIF report structure
	report := map[string]interface{}{
		"version": "2.1.0",
		"$schema": sarifSchemaURI,
		"runs":    []map[string]interface{}{run},
	}

	paths := SortedPaths(results)

	// Add rules, in order of first appearance
	ruleIndex := make(map[string]int)
	for _, path := range paths {
		for _, f := range results.Files[path] {
			if _, ok := ruleIndex[f.Rule]; ok {
				continue
			}
			ruleIndex[f.Rule] = len(ruleIndex)
			driver["rules"] = append(driver["rules"].([]map[string]interface{}), map[string]interface{}{
				"id":               f.Rule,
				"name":             f.Rule,
				"shortDescription": map[string]interface{}{"text": f.Rule},
				"fullDescription":  map[string]interface{}{"text": f.Rationale},
				"defaultConfiguration": map[string]interface{}{
					"level": "error",
				},
			})
		}
	}

	// Add results
	for _, path := range paths {
		uri := filepath.ToSlash(RelativePath(results.Root, path))
		for _, f := range results.Files[path] {
			result := map[string]interface{}{
				"ruleId":    f.Rule,
				"ruleIndex": ruleIndex[f.Rule],
				"level":     levelFor(opts, path),
				"message": map[string]interface{}{
					"text": fmt.Sprintf("Potential %s found: %s. %s", f.Rule, f.Masked, f.Rationale),
				},
				"locations": []map[string]interface{}{
					{
						"physicalLocation": map[string]interface{}{
							"artifactLocation": map[string]interface{}{
								"uri": uri,
							},
							"region": map[string]interface{}{
								"startLine": f.Line,
							},
						},
					},
				},
			}
			if s, ok := gitStatus(opts, path); ok {
				result["properties"] = map[string]interface{}{"git": string(s)}
			}
			run["results"] = append(run["results"].([]map[string]interface{}), result)
		}
	}

	return report, nil
}

// levelFor downgrades findings in files git has never seen.
func levelFor(opts Options, path string) string {
	if s, ok := gitStatus(opts, path); ok && s == gitx.Untracked {
		return "warning"
	}
	return "error"
}
