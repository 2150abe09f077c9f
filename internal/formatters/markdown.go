package formatters

import (
	"fmt"
	"io"

	"talentsearch/internal/types"
)

type markdownRenderer struct{}

func (markdownRenderer) Page(w io.Writer, page *types.PageResult) error {
	fmt.Fprint(w, "# Search Results\n\n")
	if len(page.Results) == 0 {
		fmt.Fprintln(w, "_No candidates on this page._")
	} else {
		fmt.Fprint(w, "| # | Candidate |\n|---|---|\n")
		for i, id := range page.Results {
			fmt.Fprintf(w, "| %d | `%s` |\n", i+1, id)
		}
	}
	_, err := fmt.Fprintf(w, "\n**Next page index:** %d\n", page.NextPageIndex)
	return err
}

func (markdownRenderer) Search(w io.Writer, req *types.SearchRequest) error {
	fmt.Fprintf(w, "# Search `%s`\n\n**Owner:** %s\n\n> %s\n\n", req.SearchID, req.OwnerID, req.RawInputText)
	if !req.HasGeneration() {
		_, err := fmt.Fprintln(w, "_No filter generated yet._")
		return err
	}

	fmt.Fprint(w, "## Criteria\n\n")
	for _, c := range req.Criteria {
		fmt.Fprintf(w, "- %s\n", c)
	}
	_, err := fmt.Fprintf(w, "\n## Filter\n\n```\n%s\n```\n", req.GeneratedFilter)
	return err
}

func (markdownRenderer) FilterCheck(w io.Writer, check *types.FilterCheckOutput) error {
	fmt.Fprintf(w, "# Filter Check\n\n`%s`\n\n", check.Expression)
	fmt.Fprintf(w, "- **Depth:** %d\n- **Atoms:** %d\n\n", check.Depth, check.Atoms)
	fmt.Fprintf(w, "## SQL\n\n```sql\n%s\n```\n\n", check.SQL)
	fmt.Fprint(w, "## Arguments\n\n| Placeholder | Value |\n|---|---|\n")
	for i, arg := range check.Args {
		if _, err := fmt.Fprintf(w, "| `$%d` | `%v` |\n", i+1, arg); err != nil {
			return err
		}
	}
	return nil
}
