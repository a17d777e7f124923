package taxonomy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"labelclean/internal/pipeline"
)

// Reference file base names. Each may exist as .json or .yaml in the
// reference directory; JSON wins when both are present.
const (
	fileNutrients  = "ingredient_quality_map"
	fileHarmful    = "harmful_additives"
	fileNonHarmful = "non_harmful_additives"
	fileAllergens  = "allergens"
	fileBanned     = "banned_recalled_ingredients"
	filePassive    = "passive_inactive_ingredients"
	fileBotanical  = "botanical_ingredients"
)

// bannedListNames enumerates the arrays inside the banned/recalled file, in
// the order they are registered. Legacy list names are kept so older
// reference snapshots still load.
var bannedListNames = []string{
	"permanently_banned",
	"sarms_prohibited",
	"high_risk_ingredients",
	"illegal_spiking_agents",
	"wada_prohibited_2024",
	"state_regional_bans",
	"manufacturing_violations",
	"banned_ingredients",
	"recalled_ingredients",
}

// Per-file record shapes. Each taxonomy keeps its own decoder struct so a
// field rename in one file cannot silently change how another file parses.

type nutrientFormRecord struct {
	Aliases        []string `json:"aliases" yaml:"aliases"`
	Natural        bool     `json:"natural" yaml:"natural"`
	BioScore       float64  `json:"bio_score" yaml:"bio_score"`
	ContextInclude []string `json:"context_include" yaml:"context_include"`
	ContextExclude []string `json:"context_exclude" yaml:"context_exclude"`
}

type nutrientRecord struct {
	StandardName string                        `json:"standard_name" yaml:"standard_name"`
	Forms        map[string]nutrientFormRecord `json:"forms" yaml:"forms"`
}

type harmfulFile struct {
	HarmfulAdditives []struct {
		StandardName string   `json:"standard_name" yaml:"standard_name"`
		Aliases      []string `json:"aliases" yaml:"aliases"`
		Category     string   `json:"category" yaml:"category"`
		RiskLevel    string   `json:"risk_level" yaml:"risk_level"`
	} `json:"harmful_additives" yaml:"harmful_additives"`
}

type nonHarmfulFile struct {
	NonHarmfulAdditives []struct {
		StandardName    string   `json:"standard_name" yaml:"standard_name"`
		Aliases         []string `json:"aliases" yaml:"aliases"`
		Category        string   `json:"category" yaml:"category"`
		AdditiveType    string   `json:"additive_type" yaml:"additive_type"`
		CleanLabelScore int      `json:"clean_label_score" yaml:"clean_label_score"`
	} `json:"non_harmful_additives" yaml:"non_harmful_additives"`
}

type allergenFile struct {
	CommonAllergens []struct {
		StandardName  string   `json:"standard_name" yaml:"standard_name"`
		Aliases       []string `json:"aliases" yaml:"aliases"`
		SeverityLevel string   `json:"severity_level" yaml:"severity_level"`
	} `json:"common_allergens" yaml:"common_allergens"`
}

type bannedRecord struct {
	StandardName string   `json:"standard_name" yaml:"standard_name"`
	Aliases      []string `json:"aliases" yaml:"aliases"`
}

type passiveFile struct {
	PassiveInactiveIngredients []struct {
		StandardName string   `json:"standard_name" yaml:"standard_name"`
		Aliases      []string `json:"aliases" yaml:"aliases"`
		Category     string   `json:"category" yaml:"category"`
	} `json:"passive_inactive_ingredients" yaml:"passive_inactive_ingredients"`
}

type botanicalFile struct {
	BotanicalIngredients []struct {
		StandardName string   `json:"standard_name" yaml:"standard_name"`
		Aliases      []string `json:"aliases" yaml:"aliases"`
	} `json:"botanical_ingredients" yaml:"botanical_ingredients"`
}

// LoadSet reads every reference taxonomy from dir. All seven files must be
// present; a missing or malformed file aborts the run.
func LoadSet(dir string) (*Set, error) {
	set := &Set{}

	var nutrients map[string]nutrientRecord
	if err := decodeReference(dir, fileNutrients, &nutrients); err != nil {
		return nil, err
	}
	// JSON objects carry no order, so sort keys to keep first-registration
	// collision handling deterministic across runs.
	names := make([]string, 0, len(nutrients))
	for name := range nutrients {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rec := nutrients[name]
		canonical := rec.StandardName
		if canonical == "" {
			canonical = name
		}
		entry := Entry{Kind: KindNutrient, CanonicalName: canonical}
		if name != canonical {
			entry.Aliases = []string{name}
		}
		formNames := make([]string, 0, len(rec.Forms))
		for formName := range rec.Forms {
			formNames = append(formNames, formName)
		}
		sort.Strings(formNames)
		for _, formName := range formNames {
			form := rec.Forms[formName]
			entry.Forms = append(entry.Forms, Form{
				Name:           formName,
				Aliases:        form.Aliases,
				Natural:        form.Natural,
				BioScore:       form.BioScore,
				ContextInclude: form.ContextInclude,
				ContextExclude: form.ContextExclude,
			})
		}
		set.Nutrients = append(set.Nutrients, entry)
	}

	var harmful harmfulFile
	if err := decodeReference(dir, fileHarmful, &harmful); err != nil {
		return nil, err
	}
	for _, rec := range harmful.HarmfulAdditives {
		set.Harmful = append(set.Harmful, Entry{
			Kind:          KindHarmful,
			CanonicalName: rec.StandardName,
			Aliases:       rec.Aliases,
			Category:      rec.Category,
			RiskLevel:     rec.RiskLevel,
		})
	}

	var nonHarmful nonHarmfulFile
	if err := decodeReference(dir, fileNonHarmful, &nonHarmful); err != nil {
		return nil, err
	}
	for _, rec := range nonHarmful.NonHarmfulAdditives {
		set.NonHarmful = append(set.NonHarmful, Entry{
			Kind:            KindNonHarmful,
			CanonicalName:   rec.StandardName,
			Aliases:         rec.Aliases,
			Category:        rec.Category,
			AdditiveType:    rec.AdditiveType,
			CleanLabelScore: rec.CleanLabelScore,
		})
	}

	var allergens allergenFile
	if err := decodeReference(dir, fileAllergens, &allergens); err != nil {
		return nil, err
	}
	for _, rec := range allergens.CommonAllergens {
		set.Allergens = append(set.Allergens, Entry{
			Kind:          KindAllergen,
			CanonicalName: rec.StandardName,
			Aliases:       rec.Aliases,
			Severity:      rec.SeverityLevel,
		})
	}

	var banned map[string]json.RawMessage
	bannedPath, bannedYAML, err := referencePath(dir, fileBanned)
	if err != nil {
		return nil, err
	}
	if bannedYAML {
		var lists map[string][]bannedRecord
		if err := decodeFile(bannedPath, true, &lists); err != nil {
			return nil, err
		}
		for _, listName := range bannedListNames {
			for _, rec := range lists[listName] {
				set.Banned = append(set.Banned, Entry{
					Kind:          KindBanned,
					CanonicalName: rec.StandardName,
					Aliases:       rec.Aliases,
					ListName:      listName,
				})
			}
		}
	} else {
		if err := decodeFile(bannedPath, false, &banned); err != nil {
			return nil, err
		}
		for _, listName := range bannedListNames {
			raw, ok := banned[listName]
			if !ok {
				continue
			}
			var records []bannedRecord
			if err := json.Unmarshal(raw, &records); err != nil {
				return nil, pipeline.Wrap(pipeline.ErrReferenceData, "taxonomy", "decode",
					fmt.Sprintf("%s list %q", bannedPath, listName), err)
			}
			for _, rec := range records {
				set.Banned = append(set.Banned, Entry{
					Kind:          KindBanned,
					CanonicalName: rec.StandardName,
					Aliases:       rec.Aliases,
					ListName:      listName,
				})
			}
		}
	}

	var passive passiveFile
	if err := decodeReference(dir, filePassive, &passive); err != nil {
		return nil, err
	}
	for _, rec := range passive.PassiveInactiveIngredients {
		set.Passive = append(set.Passive, Entry{
			Kind:          KindPassive,
			CanonicalName: rec.StandardName,
			Aliases:       rec.Aliases,
			Category:      rec.Category,
		})
	}

	var botanical botanicalFile
	if err := decodeReference(dir, fileBotanical, &botanical); err != nil {
		return nil, err
	}
	for _, rec := range botanical.BotanicalIngredients {
		set.Botanical = append(set.Botanical, Entry{
			Kind:          KindBotanical,
			CanonicalName: rec.StandardName,
			Aliases:       rec.Aliases,
		})
	}

	return set, nil
}

// referencePath resolves a base name to an existing .json or .yaml file and
// reports whether the YAML decoder should be used.
func referencePath(dir, base string) (string, bool, error) {
	jsonPath := filepath.Join(dir, base+".json")
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, false, nil
	}
	for _, ext := range []string{".yaml", ".yml"} {
		yamlPath := filepath.Join(dir, base+ext)
		if _, err := os.Stat(yamlPath); err == nil {
			return yamlPath, true, nil
		}
	}
	return "", false, pipeline.Wrap(pipeline.ErrReferenceData, "taxonomy", "locate",
		fmt.Sprintf("%s.{json,yaml} not found in %s", base, dir), nil)
}

func decodeReference(dir, base string, target any) error {
	path, isYAML, err := referencePath(dir, base)
	if err != nil {
		return err
	}
	return decodeFile(path, isYAML, target)
}

func decodeFile(path string, isYAML bool, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Wrap(pipeline.ErrReferenceData, "taxonomy", "read", path, err)
	}
	if isYAML || strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		if err := yaml.Unmarshal(data, target); err != nil {
			return pipeline.Wrap(pipeline.ErrReferenceData, "taxonomy", "decode", path, err)
		}
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return pipeline.Wrap(pipeline.ErrReferenceData, "taxonomy", "decode", path, err)
	}
	return nil
}
