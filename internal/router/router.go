// Package router implements the conversation state machine: it turns chat
// events into catalog calls, history records and replies.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/user/kinobot/internal/types"
)

// DefaultResultLimit is the number of movies shown per mood or search request.
const DefaultResultLimit = 3

// Event identifies who triggered an update and where to answer.
// MessageID is the message that carried the pressed button or the text.
type Event struct {
	UserID    types.UserID
	ChatID    types.ChatID
	MessageID int
}

// Reply is one outbound message. A non-empty PhotoURL sends a photo with
// Text as its caption; a non-zero EditMessageID edits that message instead
// of sending a new one.
type Reply struct {
	ChatID           types.ChatID
	Text             string
	PhotoURL         string
	Keyboard         Keyboard
	EditMessageID    int
	ReplyToMessageID int
}

// Outbox delivers replies to the chat transport.
type Outbox interface {
	Send(ctx context.Context, reply Reply) error
}

// Router routes chat events for all users.
type Router struct {
	catalog  types.Catalog
	history  types.HistoryLog
	sessions types.SessionStore
	out      Outbox
	limit    int
	now      func() time.Time
}

// New creates a Router. The catalog, history log, session store and outbox
// are shared by every user.
func New(catalog types.Catalog, history types.HistoryLog, sessions types.SessionStore, out Outbox) *Router {
	return &Router{
		catalog:  catalog,
		history:  history,
		sessions: sessions,
		out:      out,
		limit:    DefaultResultLimit,
		now:      time.Now,
	}
}

// OnStart handles /start and /help: the session goes back to Idle and the
// main menu is shown.
func (r *Router) OnStart(ctx context.Context, ev Event) error {
	r.sessions.Reset(ev.UserID)
	return r.send(ctx, Reply{ChatID: ev.ChatID, Text: textWelcome, Keyboard: mainMenuKeyboard()})
}

// OnAction handles a button press carrying an action code.
func (r *Router) OnAction(ctx context.Context, ev Event, code string) error {
	a := parseAction(code)
	switch a.kind {
	case actionMoodMenu:
		return r.edit(ctx, ev, textChooseMood, moodKeyboard())
	case actionBackToMenu:
		return r.edit(ctx, ev, textWelcome, mainMenuKeyboard())
	case actionMood:
		return r.handleMood(ctx, ev, genreLabel(a.param))
	case actionRandom:
		return r.handleRandom(ctx, ev)
	case actionSearch:
		r.sessions.Update(ev.UserID, func(s types.Session) types.Session {
			s.AwaitingSearch = true
			return s
		})
		return r.edit(ctx, ev, textEnterTitle, nil)
	case actionDetail:
		id, ok := a.detailID()
		if !ok {
			return r.send(ctx, Reply{ChatID: ev.ChatID, Text: textInvalidID})
		}
		return r.handleDetails(ctx, ev, id)
	default:
		slog.Debug("unknown action code", "user_id", ev.UserID, "code", code)
		return r.edit(ctx, ev, textUnknownAction, nil)
	}
}

// OnText handles free text. It is a search query only when the previous
// action was "search"; either way the session ends up Idle.
func (r *Router) OnText(ctx context.Context, ev Event, text string) error {
	var awaiting bool
	r.sessions.Update(ev.UserID, func(s types.Session) types.Session {
		awaiting = s.AwaitingSearch
		s.AwaitingSearch = false
		return s
	})
	if !awaiting {
		return r.send(ctx, Reply{ChatID: ev.ChatID, Text: textOnlyCommands})
	}

	query := strings.TrimSpace(text)
	r.record(ctx, ev.UserID, types.RequestSearch, query)
	if err := r.send(ctx, Reply{ChatID: ev.ChatID, Text: fmt.Sprintf(textSearchingQuery, query)}); err != nil {
		return err
	}

	movies, err := r.catalog.SearchByName(ctx, query, r.limit)
	if err != nil {
		slog.Error("search failed", "user_id", ev.UserID, "query", query, "error", err)
		return r.sendWithMenu(ctx, ev, Reply{ChatID: ev.ChatID, Text: textSearchFailed})
	}
	return r.sendMovies(ctx, ev, movies, textSearchEmpty)
}

func (r *Router) handleMood(ctx context.Context, ev Event, genre string) error {
	r.record(ctx, ev.UserID, types.RequestMood, genre)
	if err := r.edit(ctx, ev, fmt.Sprintf(textSearchingGenre, genre), nil); err != nil {
		return err
	}

	movies, err := r.catalog.FetchByGenre(ctx, genre, r.limit)
	if err != nil {
		slog.Error("genre fetch failed", "user_id", ev.UserID, "genre", genre, "error", err)
		return r.sendWithMenu(ctx, ev, Reply{ChatID: ev.ChatID, Text: textGenreFailed})
	}
	return r.sendMovies(ctx, ev, movies, textGenreEmpty)
}

func (r *Router) handleRandom(ctx context.Context, ev Event) error {
	r.record(ctx, ev.UserID, types.RequestRandom, "random")
	if err := r.edit(ctx, ev, textSearchingRandom, nil); err != nil {
		return err
	}

	movie, err := r.catalog.FetchRandom(ctx)
	if err != nil {
		slog.Error("random fetch failed", "user_id", ev.UserID, "error", err)
		return r.sendWithMenu(ctx, ev, Reply{ChatID: ev.ChatID, Text: textRandomFailed})
	}
	var movies []types.MovieSummary
	if movie != nil {
		movies = append(movies, *movie)
	}
	return r.sendMovies(ctx, ev, movies, textRandomEmpty)
}

func (r *Router) handleDetails(ctx context.Context, ev Event, id int) error {
	details, err := r.catalog.FetchDetails(ctx, id)
	if err != nil {
		slog.Error("details fetch failed", "user_id", ev.UserID, "movie_id", id, "error", err)
		return r.sendWithMenu(ctx, ev, Reply{ChatID: ev.ChatID, Text: textDetailsFailed})
	}
	if details == nil {
		return r.sendWithMenu(ctx, ev, Reply{ChatID: ev.ChatID, Text: textDetailsEmpty})
	}
	return r.sendWithMenu(ctx, ev, Reply{
		ChatID:           ev.ChatID,
		Text:             formatDetails(*details),
		ReplyToMessageID: ev.MessageID,
	})
}

// sendMovies emits one reply per movie, or empty when there are none, and
// finishes with the main menu.
func (r *Router) sendMovies(ctx context.Context, ev Event, movies []types.MovieSummary, empty string) error {
	if len(movies) == 0 {
		return r.sendWithMenu(ctx, ev, Reply{ChatID: ev.ChatID, Text: empty})
	}
	for _, m := range movies {
		reply := Reply{
			ChatID:   ev.ChatID,
			Text:     formatCaption(m),
			PhotoURL: m.PosterURL,
			Keyboard: movieDetailsKeyboard(m.ID),
		}
		if err := r.send(ctx, reply); err != nil {
			return err
		}
	}
	return r.send(ctx, Reply{ChatID: ev.ChatID, Text: textWhatNext, Keyboard: mainMenuKeyboard()})
}

func (r *Router) sendWithMenu(ctx context.Context, ev Event, reply Reply) error {
	if err := r.send(ctx, reply); err != nil {
		return err
	}
	return r.send(ctx, Reply{ChatID: ev.ChatID, Text: textWhatNext, Keyboard: mainMenuKeyboard()})
}

// edit replaces the message that carried the pressed button. Events without
// a message fall back to a new message.
func (r *Router) edit(ctx context.Context, ev Event, text string, kb Keyboard) error {
	return r.send(ctx, Reply{ChatID: ev.ChatID, Text: text, Keyboard: kb, EditMessageID: ev.MessageID})
}

func (r *Router) send(ctx context.Context, reply Reply) error {
	if err := r.out.Send(ctx, reply); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

// record appends to the request history. Failures are logged and never
// reach the user.
func (r *Router) record(ctx context.Context, userID types.UserID, kind types.RequestType, query string) {
	entry := types.RequestLogEntry{
		UserID:      userID,
		RequestType: kind,
		Query:       query,
		CreatedAt:   r.now(),
	}
	if err := r.history.Append(ctx, entry); err != nil {
		slog.Warn("history append failed", "user_id", userID, "request_type", kind, "error", err)
	}
}
