package catalog

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/user/kinobot/internal/types"
)

const (
	placeholderName        = "Без названия"
	placeholderDescription = "Описание отсутствует."

	maxActors    = 5
	maxDirectors = 3
)

// Extraction rules: gjson paths tried in order, first usable value wins.
var (
	nameRules        = []string{"name", "alternativeName"}
	descriptionRules = []string{"shortDescription", "description"}
	ratingRules      = []string{"rating.kp", "rating.imdb"}
	posterRules      = []string{"poster.url", "poster.previewUrl"}
	yearRules        = []string{"year"}
	durationRules    = []string{"movieLength"}

	professionRules      = []string{"enProfession", "profession"}
	professionValueRules = []string{"value", "name"}
	personNameRules      = []string{"name", "enName"}
)

// roleSet holds the lower-cased spellings that denote one profession.
type roleSet map[string]struct{}

func newRoleSet(names ...string) roleSet {
	s := make(roleSet, len(names))
	for _, n := range names {
		s[strings.ToLower(n)] = struct{}{}
	}
	return s
}

func (s roleSet) has(role string) bool {
	_, ok := s[role]
	return ok
}

var (
	actorRoles    = newRoleSet("actor", "актер", "актёр", "актеры", "актриса")
	directorRoles = newRoleSet("director", "режиссер", "режиссёр", "режиссеры")
)

// NormalizeSummary maps one raw catalog record to a MovieSummary.
// It reports false when the record has no usable identifier.
func NormalizeSummary(raw []byte) (types.MovieSummary, bool) {
	if !gjson.ValidBytes(raw) {
		return types.MovieSummary{}, false
	}
	return summaryFrom(gjson.ParseBytes(raw))
}

func summaryFrom(rec gjson.Result) (types.MovieSummary, bool) {
	id, ok := recordID(rec)
	if !ok {
		return types.MovieSummary{}, false
	}
	m := types.MovieSummary{
		ID:          id,
		Name:        stringOr(rec, nameRules, placeholderName),
		Description: stringOr(rec, descriptionRules, placeholderDescription),
	}
	if v := firstOfType(rec, ratingRules, gjson.Number); v.Exists() {
		r := v.Float()
		m.Rating = &r
	}
	if v := firstOfType(rec, posterRules, gjson.String); v.Exists() {
		m.PosterURL = v.Str
	}
	m.Year = optionalInt(rec, yearRules)
	return m, true
}

// normalizeDocs maps the "docs" array of a list response, dropping records
// that fail normalization, and caps the result at limit. A limit of zero or
// less yields nothing.
func normalizeDocs(raw []byte, limit int) []types.MovieSummary {
	if limit <= 0 || !gjson.ValidBytes(raw) {
		return nil
	}
	var movies []types.MovieSummary
	gjson.GetBytes(raw, "docs").ForEach(func(_, item gjson.Result) bool {
		if m, ok := summaryFrom(item); ok {
			movies = append(movies, m)
		}
		return len(movies) < limit
	})
	return movies
}

// NormalizeDetails maps a raw detail record to MovieDetails for the given id.
func NormalizeDetails(id int, raw []byte) (types.MovieDetails, bool) {
	if !gjson.ValidBytes(raw) {
		return types.MovieDetails{}, false
	}
	rec := gjson.ParseBytes(raw)
	if !rec.IsObject() {
		return types.MovieDetails{}, false
	}
	persons := rec.Get("persons")
	return types.MovieDetails{
		ID:              id,
		Name:            stringOr(rec, nameRules, placeholderName),
		Actors:          extractPersons(persons, actorRoles, maxActors),
		Directors:       extractPersons(persons, directorRoles, maxDirectors),
		DurationMinutes: optionalInt(rec, durationRules),
	}, true
}

// extractPersons returns up to limit names whose profession is in roles,
// in upstream order.
func extractPersons(persons gjson.Result, roles roleSet, limit int) []string {
	names := []string{}
	persons.ForEach(func(_, p gjson.Result) bool {
		if !roles.has(normalizeProfession(firstTruthy(p, professionRules))) {
			return true
		}
		if v := firstOfType(p, personNameRules, gjson.String); v.Exists() {
			names = append(names, v.Str)
		}
		return len(names) < limit
	})
	return names
}

// normalizeProfession accepts a plain string, a list (first element wins)
// or an object with a value/name key.
func normalizeProfession(v gjson.Result) string {
	if v.IsArray() {
		items := v.Array()
		if len(items) == 0 {
			return ""
		}
		v = items[0]
	}
	if v.IsObject() {
		v = firstTruthy(v, professionValueRules)
	}
	if !truthy(v) {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(v.String()))
}

func recordID(rec gjson.Result) (int, bool) {
	v := rec.Get("id")
	switch v.Type {
	case gjson.Number:
		if id := int(v.Int()); id != 0 {
			return id, true
		}
	case gjson.String:
		if id, err := strconv.Atoi(strings.TrimSpace(v.Str)); err == nil && id != 0 {
			return id, true
		}
	}
	return 0, false
}

func stringOr(rec gjson.Result, rules []string, fallback string) string {
	if v := firstOfType(rec, rules, gjson.String); v.Exists() {
		return v.Str
	}
	return fallback
}

func optionalInt(rec gjson.Result, rules []string) *int {
	v := firstOfType(rec, rules, gjson.Number)
	if !v.Exists() {
		return nil
	}
	n := int(v.Int())
	return &n
}

// firstOfType is firstTruthy restricted to values of type t; a usable value
// of another type does not stop the chain.
func firstOfType(rec gjson.Result, rules []string, t gjson.Type) gjson.Result {
	for _, path := range rules {
		if v := rec.Get(path); v.Type == t && truthy(v) {
			return v
		}
	}
	return gjson.Result{}
}

func firstTruthy(rec gjson.Result, rules []string) gjson.Result {
	for _, path := range rules {
		if v := rec.Get(path); truthy(v) {
			return v
		}
	}
	return gjson.Result{}
}

// truthy treats missing, null, false, zero and empty values as absent.
func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.String:
		return strings.TrimSpace(v.Str) != ""
	case gjson.Number:
		return v.Num != 0
	case gjson.True:
		return true
	case gjson.JSON:
		if v.IsArray() {
			return len(v.Array()) > 0
		}
		return len(v.Map()) > 0
	}
	return false
}
