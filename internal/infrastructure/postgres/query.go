package postgres

import (
	"strconv"
	"strings"
)

func itoa(i int) string {
	return strconv.Itoa(i)
}

func addWhere(query string) string {
	if strings.Contains(query, " WHERE ") {
		return " AND"
	}
	return " WHERE"
}

// paginate appends ORDER BY id DESC and the limit/offset placeholders.
func paginate(query string, args []interface{}, idx, limit, offset int) (string, []interface{}) {
	query += " ORDER BY id DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	return query, append(args, limit, offset)
}
