package router

import (
	"strconv"
	"strings"
)

// Action codes carried by inline buttons.
const (
	codeMoodMenu   = "mood_menu"
	codeBackToMenu = "back_to_menu"
	codeRandom     = "random"
	codeSearch     = "search"
	prefixMood     = "mood_"
	prefixDetail   = "detail_"
)

type actionKind int

const (
	actionUnknown actionKind = iota
	actionMoodMenu
	actionBackToMenu
	actionMood
	actionRandom
	actionSearch
	actionDetail
)

// action is a decoded action code. param holds the genre code for
// actionMood and the raw id text for actionDetail.
type action struct {
	kind  actionKind
	param string
}

func parseAction(code string) action {
	switch code {
	case codeMoodMenu:
		return action{kind: actionMoodMenu}
	case codeBackToMenu:
		return action{kind: actionBackToMenu}
	case codeRandom:
		return action{kind: actionRandom}
	case codeSearch:
		return action{kind: actionSearch}
	}
	if genre, ok := strings.CutPrefix(code, prefixMood); ok && genre != "" {
		return action{kind: actionMood, param: genre}
	}
	if id, ok := strings.CutPrefix(code, prefixDetail); ok {
		return action{kind: actionDetail, param: id}
	}
	return action{kind: actionUnknown}
}

// detailID parses the movie id of a detail action.
func (a action) detailID() (int, bool) {
	id, err := strconv.Atoi(a.param)
	if err != nil {
		return 0, false
	}
	return id, true
}

func detailCode(movieID int) string {
	return prefixDetail + strconv.Itoa(movieID)
}

// genreLabels maps mood codes to the catalog's genre names.
var genreLabels = map[string]string{
	"comedy":   "комедия",
	"thriller": "триллер",
	"drama":    "драма",
}

// genreLabel returns the catalog genre for a mood code; unknown codes pass through.
func genreLabel(code string) string {
	if label, ok := genreLabels[code]; ok {
		return label
	}
	return code
}
