package view

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/finplan/internal/api"
)

// FindDebtor ranks loaded debtors against a typed query: prefix matches
// first, then substring matches, then the rest by edit distance of name or
// email. It returns nil for a blank query.
func (m *Model) FindDebtor(query string) []api.Debtor {
	return rankDebtors(m.debtors, query)
}

func rankDebtors(debtors []api.Debtor, query string) []api.Debtor {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	type scored struct {
		d     api.Debtor
		tier  int
		dist  int
		index int
	}
	out := make([]scored, 0, len(debtors))
	for i, d := range debtors {
		name, email := strings.ToLower(d.Name), strings.ToLower(d.Email)
		s := scored{d: d, index: i, tier: 2}
		switch {
		case strings.HasPrefix(name, q) || strings.HasPrefix(email, q):
			s.tier = 0
		case strings.Contains(name, q) || strings.Contains(email, q):
			s.tier = 1
		}
		s.dist = min(levenshtein.ComputeDistance(q, name), levenshtein.ComputeDistance(q, email))
		// distant non-matches are noise
		if s.tier == 2 && s.dist > max(2, len(q)/2) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].tier != out[j].tier {
			return out[i].tier < out[j].tier
		}
		if out[i].dist != out[j].dist {
			return out[i].dist < out[j].dist
		}
		return out[i].index < out[j].index
	})
	res := make([]api.Debtor, len(out))
	for i, s := range out {
		res[i] = s.d
	}
	return res
}
