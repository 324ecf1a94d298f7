package router

// Button is a labeled inline button carrying an action code.
type Button struct {
	Label  string
	Action string
}

// Keyboard is a grid of buttons, one slice per row.
type Keyboard [][]Button

func mainMenuKeyboard() Keyboard {
	return Keyboard{
		{{Label: "🎭 Настроение", Action: codeMoodMenu}},
		{{Label: "🎲 Случайный фильм", Action: codeRandom}},
		{{Label: "🔍 Поиск по названию", Action: codeSearch}},
	}
}

func moodKeyboard() Keyboard {
	return Keyboard{
		{
			{Label: "Комедия", Action: prefixMood + "comedy"},
			{Label: "Триллер", Action: prefixMood + "thriller"},
		},
		{{Label: "Драма", Action: prefixMood + "drama"}},
		{{Label: "⬅️ Назад", Action: codeBackToMenu}},
	}
}

func movieDetailsKeyboard(movieID int) Keyboard {
	return Keyboard{{{Label: "Подробнее", Action: detailCode(movieID)}}}
}
