package search

import (
	talentErrors "talentsearch/internal/errors"
	"talentsearch/internal/filter"
	"talentsearch/internal/types"
)

// CheckFilter validates a filter document offline and reports its
// normalised form with the WHERE fragment it compiles to.
func CheckFilter(validator *filter.Validator, data []byte) (*types.FilterCheckOutput, error) {
	node, err := filter.Parse(data)
	if err != nil {
		return nil, talentErrors.NewFilterRejectedError(talentErrors.ErrCodeMalformedFilter,
			"filter document does not match the expression grammar", err)
	}

	validated, err := validator.Validate(node)
	if err != nil {
		return nil, err
	}

	compiled := validated.Compile(1)
	return &types.FilterCheckOutput{
		Expression: validated.String(),
		Depth:      validated.Depth(),
		Atoms:      validated.Atoms(),
		SQL:        compiled.SQL,
		Args:       compiled.Args,
	}, nil
}
