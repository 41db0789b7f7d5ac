package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vytor/skola/internal/grading"
	"github.com/vytor/skola/internal/models"
)

var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Grade a recalled list read from stdin",
	Long: `Grade compares the lines on stdin with the items of a list file.

The list file holds one item per line. Aliases follow the item, separated by "|":

  red|crimson
  green
  blue`,
	Args: cobra.NoArgs,
	RunE: runGrade,
}

func init() {
	gradeCmd.Flags().String("items", "", "List file with one item per line (required)")
	gradeCmd.Flags().String("order", string(models.ListUnordered), "ordered or unordered")
	gradeCmd.Flags().String("ordered-mode", string(models.OrderedStrictPosition), "strict-position or lcs")
	gradeCmd.Flags().String("normalize", string(models.NormalizeBasic), "basic or aggressive")
	_ = gradeCmd.MarkFlagRequired("items")
}

func runGrade(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("items")
	order, _ := cmd.Flags().GetString("order")
	orderedMode, _ := cmd.Flags().GetString("ordered-mode")
	normalize, _ := cmd.Flags().GetString("normalize")

	cfg, err := gradingConfig(order, orderedMode, normalize)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	items, err := parseItems(f)
	if err != nil {
		return err
	}

	input, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	printResult(cmd.OutOrStdout(), grading.Grade(cfg, items, string(input)))
	return nil
}

func gradingConfig(order, orderedMode, normalize string) (models.ListCardContent, error) {
	cfg := models.ListCardContent{
		Order: models.ListOrder(order),
		Grading: models.GradingConfig{
			OrderedMode: models.OrderedMode(orderedMode),
			Normalize:   models.NormalizeMode(normalize),
		},
	}
	switch cfg.Order {
	case models.ListOrdered, models.ListUnordered:
	default:
		return cfg, fmt.Errorf("unknown order %q", order)
	}
	switch cfg.Grading.OrderedMode {
	case models.OrderedStrictPosition, models.OrderedLCS:
	default:
		return cfg, fmt.Errorf("unknown ordered mode %q", orderedMode)
	}
	switch cfg.Grading.Normalize {
	case models.NormalizeBasic, models.NormalizeAggressive:
	default:
		return cfg, fmt.Errorf("unknown normalize mode %q", normalize)
	}
	return cfg, nil
}

// parseItems reads one list item per non-empty line, with aliases after "|".
func parseItems(r io.Reader) ([]models.ListItem, error) {
	var items []models.ListItem
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		parts := strings.Split(sc.Text(), "|")
		text := strings.TrimSpace(parts[0])
		if text == "" {
			continue
		}
		item := models.ListItem{Text: text}
		for _, alias := range parts[1:] {
			if alias = strings.TrimSpace(alias); alias != "" {
				item.Aliases = append(item.Aliases, alias)
			}
		}
		items = append(items, item)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("list file has no items")
	}
	return items, nil
}

func printResult(w io.Writer, res grading.Result) {
	fmt.Fprintf(w, "score:     %.0f%%\n", res.Score*100)
	fmt.Fprintf(w, "suggested: %s\n", res.SuggestedRating)
	fmt.Fprintf(w, "matched:   %s\n", strings.Join(res.Matched, ", "))
	fmt.Fprintf(w, "missing:   %s\n", strings.Join(res.Missing, ", "))
	if len(res.Extras) > 0 {
		fmt.Fprintf(w, "extras:    %s\n", strings.Join(res.Extras, ", "))
	}
	if len(res.WrongPosition) > 0 {
		fmt.Fprintf(w, "wrong position: %v\n", res.WrongPosition)
	}
}
