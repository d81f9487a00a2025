package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pausemo/api/internal/model"
	"github.com/pausemo/api/internal/service"
)

var classifyCategory string

var classifyCmd = &cobra.Command{
	Use:   "classify ANSWERS",
	Short: "Classify an answer sequence without storing it",
	Long: `Run the diagnosis rule table for a category and print the archetype.

ANSWERS is one character per question, Y/1 for yes and N/0 for no.
Spaces and commas are ignored, so "YNNY YN" and "1,0,0,1,1,0" both work.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

type classifyOutput struct {
	Category  model.Category  `json:"category"`
	Primary   model.Archetype `json:"primary"`
	Secondary model.Archetype `json:"secondary,omitempty"`
	Rule      string          `json:"rule"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	answers, err := parseAnswers(args[0])
	if err != nil {
		return err
	}

	category := model.Category(classifyCategory)
	result, rule, err := service.NewClassifier().Explain(category, answers)
	if err != nil {
		if !category.IsValid() {
			return fmt.Errorf("%w (valid: %s)", err, strings.Join(categoryNames(), ", "))
		}
		return err
	}

	out := classifyOutput{Category: category, Primary: result.Primary, Rule: rule}
	if result.Secondary != nil {
		out.Secondary = *result.Secondary
	}

	w := cmd.OutOrStdout()
	if outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(w, "category:  %s\n", out.Category)
	fmt.Fprintf(w, "primary:   %s\n", out.Primary)
	if out.Secondary != "" {
		fmt.Fprintf(w, "secondary: %s\n", out.Secondary)
	}
	fmt.Fprintf(w, "rule:      %s\n", out.Rule)
	return nil
}

func parseAnswers(raw string) ([]bool, error) {
	answers := make([]bool, 0, len(raw))
	for i, r := range raw {
		switch r {
		case 'Y', 'y', '1':
			answers = append(answers, true)
		case 'N', 'n', '0':
			answers = append(answers, false)
		case ' ', ',':
		default:
			return nil, fmt.Errorf("invalid answer %q at position %d", r, i)
		}
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("no answers given")
	}
	return answers, nil
}

func categoryNames() []string {
	names := make([]string, 0, len(model.AllCategories))
	for _, c := range model.AllCategories {
		names = append(names, string(c))
	}
	sort.Strings(names)
	return names
}
