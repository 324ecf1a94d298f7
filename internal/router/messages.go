package router

import (
	"fmt"
	"strings"

	"github.com/user/kinobot/internal/types"
)

const (
	textWelcome = "Привет! Я кинобот 🎬\n" +
		"Выбери, что хочешь сделать:\n" +
		"— Настроение (комедия, триллер, драма)\n" +
		"— Случайный фильм\n" +
		"— Поиск по названию"
	textWhatNext      = "Что дальше?"
	textChooseMood    = "Выбери настроение:"
	textEnterTitle    = "Введите название фильма:"
	textOnlyCommands  = "Я понимаю только команды и кнопки. Нажми /start, чтобы открыть меню."
	textUnknownAction = "Неизвестная команда. Открой меню /start"
	textInvalidID     = "Некорректный идентификатор фильма."

	textSearchingGenre  = "Ищу фильмы жанра: %s..."
	textSearchingRandom = "Ищу случайный фильм..."
	textSearchingQuery  = "Ищу фильмы по запросу: %s..."

	textGenreFailed   = "Не удалось получить фильмы. Попробуй позже."
	textGenreEmpty    = "По этому жанру ничего не найдено."
	textRandomFailed  = "Не удалось получить случайный фильм. Попробуй позже."
	textRandomEmpty   = "Не удалось найти случайный фильм."
	textSearchFailed  = "Не удалось выполнить поиск. Попробуй позже."
	textSearchEmpty   = "Ничего не найдено."
	textDetailsFailed = "Не удалось получить детали фильма. Попробуй позже."
	textDetailsEmpty  = "Не удалось получить детали фильма."
)

func formatCaption(m types.MovieSummary) string {
	rating := "нет"
	if m.Rating != nil {
		rating = fmt.Sprintf("%.1f", *m.Rating)
	}
	year := "?"
	if m.Year != nil {
		year = fmt.Sprintf("%d", *m.Year)
	}
	return fmt.Sprintf("%s (%s)\nРейтинг: %s\n\n%s", m.Name, year, rating, m.Description)
}

func formatDetails(d types.MovieDetails) string {
	directors := joinOr(d.Directors, "неизвестны")
	actors := joinOr(d.Actors, "неизвестны")
	duration := "неизвестна"
	if d.DurationMinutes != nil {
		duration = fmt.Sprintf("%d мин", *d.DurationMinutes)
	}
	return fmt.Sprintf("Подробнее: %s\nРежиссёр: %s\nАктёры: %s\nДлительность: %s",
		d.Name, directors, actors, duration)
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}
