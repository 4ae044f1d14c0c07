package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/philipparndt/facelabel/internal/document"
	"github.com/philipparndt/facelabel/internal/filter"
	"github.com/philipparndt/facelabel/internal/labels"
)

var (
	labelOutput string
	labelFaces  []string
	labelWhere  string
	labelAs     string
)

var labelCmd = &cobra.Command{
	Use:   "label [file]",
	Short: "Label faces and export a STEP file",
	Long: `Label faces without opening a window and write the result as STEP.

Faces are given by ordinal, as listed by "facelabel faces":

  facelabel label part.stl -o part.step --face 3=Hole --face 7=Hole --face 0=Stock

or by expression:

  facelabel label part.stl -o part.step --where 'surface == "cylinder"' --as Hole

Known labels: ` + vocabularyList(),
	Args: cobra.ExactArgs(1),
	RunE: runLabel,
}

func init() {
	labelCmd.Flags().StringVarP(&labelOutput, "output", "o", "", "STEP file to write (default <name>_labeled.step)")
	labelCmd.Flags().StringArrayVarP(&labelFaces, "face", "f", nil, "assign a label to a face, N=Label")
	labelCmd.Flags().StringVarP(&labelWhere, "where", "w", "", "select faces matching the expression")
	labelCmd.Flags().StringVar(&labelAs, "as", "", "label for the faces selected with --where")
	labelCmd.MarkFlagsRequiredTogether("where", "as")
	rootCmd.AddCommand(labelCmd)
}

func vocabularyList() string {
	names := make([]string, 0, len(labels.Vocabulary()))
	for _, l := range labels.Vocabulary() {
		names = append(names, strconv.Quote(l.String()))
	}
	return strings.Join(names, ", ")
}

// parseAssignments groups N=Label arguments by label
func parseAssignments(args []string) (map[labels.Label][]int, error) {
	groups := make(map[labels.Label][]int)
	for _, arg := range args {
		idx, name, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid face assignment %q, expected N=Label", arg)
		}
		n, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			return nil, fmt.Errorf("invalid face index in %q: %w", arg, err)
		}
		label, ok := labels.Parse(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("%q: %w", name, labels.ErrUnknownLabel)
		}
		groups[label] = append(groups[label], n)
	}
	return groups, nil
}

func runLabel(cmd *cobra.Command, args []string) error {
	if len(labelFaces) == 0 && labelWhere == "" {
		return errors.New("nothing to label, use --face or --where")
	}
	groups, err := parseAssignments(labelFaces)
	if err != nil {
		return err
	}
	var where *filter.Filter
	if labelWhere != "" {
		if _, ok := labels.Parse(labelAs); !ok {
			return fmt.Errorf("%q: %w", labelAs, labels.ErrUnknownLabel)
		}
		if where, err = filter.Compile(labelWhere); err != nil {
			return err
		}
	}

	ws, err := newWorkspace(nil)
	if err != nil {
		return err
	}
	unsubscribe := printStatus(ws, cmd.ErrOrStderr())
	defer unsubscribe()

	doc, err := ws.Import(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", args[0], err)
	}

	ordered := make([]labels.Label, 0, len(groups))
	for l := range groups {
		ordered = append(ordered, l)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
	for _, label := range ordered {
		for _, n := range groups[label] {
			if err := doc.SelectOrdinal(n); err != nil {
				return err
			}
		}
		if err := doc.AssignLabel(label.String()); err != nil {
			return err
		}
	}

	if where != nil {
		n, err := doc.SelectWhere(where)
		if err != nil {
			return err
		}
		if n > 0 {
			if err := doc.AssignLabel(labelAs); err != nil {
				return err
			}
		}
	}

	dest := labelOutput
	if dest == "" {
		dest = document.DefaultExportPath(args[0])
	}
	result, err := ws.Export(cmd.Context(), dest)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: %d of %d faces labeled\n", result.Path, result.Annotated, result.Faces)
	return nil
}
