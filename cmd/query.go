/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"regexp"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

// parseTagQuery turns "a & b | c" into [[a b] [c]]. `&` binds tighter than
// `|` and parentheses are not supported.
func parseTagQuery(rawQuery string) [][]string {
	query := [][]string{}

	for _, v := range strings.Split(rawQuery, "|") {
		rawAndQuery := strings.Split(v, "&")
		trimedAndQuery := []string{}

		for _, q := range rawAndQuery {
			q = strings.TrimPrefix(whitespace.ReplaceAllString(q, ""), "#")

			if len(q) > 0 {
				trimedAndQuery = append(trimedAndQuery, strings.ToLower(q))
			}
		}

		if len(trimedAndQuery) > 0 {
			query = append(query, trimedAndQuery)
		}
	}

	return query
}
