package pgindex

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/supportkb/internal/domain"
	"github.com/kailas-cloud/supportkb/internal/domain/search/filter"
)

// buildWhere translates a filter expression into a WHERE clause, appending
// positional arguments after the ones already in args.
func buildWhere(expr filter.Expression, args []any) (string, []any, error) {
	if expr.IsEmpty() {
		return "", args, nil
	}

	var parts []string
	for _, c := range expr.Must() {
		clause, err := condition(c, &args)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, clause)
	}

	if should := expr.Should(); len(should) > 0 {
		group := make([]string, 0, len(should))
		for _, c := range should {
			clause, err := condition(c, &args)
			if err != nil {
				return "", nil, err
			}
			group = append(group, clause)
		}
		parts = append(parts, "("+strings.Join(group, " OR ")+")")
	}

	for _, c := range expr.MustNot() {
		clause, err := condition(c, &args)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "NOT "+clause)
	}

	return strings.Join(parts, " AND "), args, nil
}

func condition(c filter.Condition, args *[]any) (string, error) {
	*args = append(*args, c.Match())
	pos := len(*args)
	switch c.Key() {
	case filter.KeyCategory:
		return fmt.Sprintf("(category = $%d)", pos), nil
	case filter.KeyTags:
		return fmt.Sprintf("($%d = ANY(tags))", pos), nil
	default:
		return "", fmt.Errorf("unsupported filter field %q: %w", c.Key(), domain.ErrInvalidInput)
	}
}
