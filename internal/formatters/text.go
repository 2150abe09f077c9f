package formatters

import (
	"fmt"
	"io"

	"talentsearch/internal/types"
)

type textRenderer struct{}

func (textRenderer) Page(w io.Writer, page *types.PageResult) error {
	fmt.Fprintln(w, "=== RESULTS ===")
	if len(page.Results) == 0 {
		fmt.Fprintln(w, "No candidates on this page.")
	}
	for i, id := range page.Results {
		fmt.Fprintf(w, "%2d. %s\n", i+1, id)
	}
	_, err := fmt.Fprintf(w, "\nNext page index: %d\n", page.NextPageIndex)
	return err
}

func (textRenderer) Search(w io.Writer, req *types.SearchRequest) error {
	fmt.Fprintln(w, "=== SEARCH ===")
	fmt.Fprintf(w, "ID:      %s\nOwner:   %s\nQuery:   %s\n", req.SearchID, req.OwnerID, req.RawInputText)
	if !req.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created: %s\n", req.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	}

	if !req.HasGeneration() {
		_, err := fmt.Fprintln(w, "\nNo filter generated yet.")
		return err
	}

	fmt.Fprintln(w, "\n=== CRITERIA ===")
	for _, c := range req.Criteria {
		fmt.Fprintf(w, "- %s\n", c)
	}
	_, err := fmt.Fprintf(w, "\n=== FILTER ===\n%s\n", req.GeneratedFilter)
	return err
}

func (textRenderer) FilterCheck(w io.Writer, check *types.FilterCheckOutput) error {
	fmt.Fprintln(w, "=== FILTER ACCEPTED ===")
	fmt.Fprintf(w, "Expression: %s\nDepth: %d, atoms: %d\n\n", check.Expression, check.Depth, check.Atoms)
	fmt.Fprintf(w, "=== SQL ===\n%s\n\n=== ARGUMENTS ===\n", check.SQL)
	for i, arg := range check.Args {
		if _, err := fmt.Fprintf(w, "$%d = %q\n", i+1, fmt.Sprint(arg)); err != nil {
			return err
		}
	}
	return nil
}
