package resume

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

const viewColumns = `id::text, scope_id::text, COALESCE(headline, ''), COALESCE(skills, '{}'::text[]),
	COALESCE(experience_years, 0)::int`

type queries struct {
	matchKeywords string
	fetchMany     string
	fetchOne      string
	page          string
}

// buildQueries renders the statements against view, which may be schema-qualified.
func buildQueries(view string) (queries, error) {
	if view == "" {
		view = DefaultView
	}
	parts := strings.Split(view, ".")
	for _, p := range parts {
		if p == "" {
			return queries{}, fmt.Errorf("invalid view name %q", view)
		}
	}
	rel := pgx.Identifier(parts).Sanitize()

	// $2 lowercased terms for exact skill overlap, $3 ILIKE substring patterns and $4 whole-word
	// regexes for headline and search text.
	return queries{
		matchKeywords: `SELECT ` + viewColumns + `
FROM ` + rel + ` v
WHERE v.scope_id::text = $1
  AND (
    ARRAY(SELECT lower(s) FROM unnest(v.skills) s) && $2::text[]
    OR EXISTS (
      SELECT 1 FROM unnest($3::text[]) p
      WHERE v.search_text ILIKE p OR v.headline ILIKE p
    )
    OR EXISTS (
      SELECT 1 FROM unnest($4::text[]) w
      WHERE lower(v.search_text) ~ w OR lower(v.headline) ~ w
    )
  )
ORDER BY (
    SELECT count(*) FROM unnest($2::text[]) t
    WHERE t = ANY (ARRAY(SELECT lower(s) FROM unnest(v.skills) s))
  ) DESC, v.id
LIMIT $5`,
		fetchMany: `SELECT ` + viewColumns + ` FROM ` + rel + ` WHERE id::text = ANY($1::text[])`,
		fetchOne:  `SELECT ` + viewColumns + ` FROM ` + rel + ` WHERE id::text = $1`,
		page: `SELECT ` + viewColumns + `, COALESCE(search_text, '')
FROM ` + rel + `
WHERE scope_id::text = $1 AND id::text > $2
ORDER BY id::text
LIMIT $3`,
	}, nil
}
