package history

type migration struct {
	Version int
	Name    string
	SQL     string
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "create request_history",
		SQL: `
			CREATE TABLE request_history (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id      INTEGER NOT NULL,
				request_type TEXT NOT NULL,
				query        TEXT NOT NULL,
				created_at   TEXT NOT NULL
			);
		`,
	},
	{
		Version: 2,
		Name:    "index request_history by user and date",
		SQL: `
			CREATE INDEX idx_request_history_user ON request_history (user_id, id);
			CREATE INDEX idx_request_history_created ON request_history (created_at);
		`,
	},
}
