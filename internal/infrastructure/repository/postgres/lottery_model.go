package postgres

import "time"

type historyInsertModel struct {
	PublicID   string    `db:"public_id"`
	Repository string    `db:"repository"`
	DrawnAt    time.Time `db:"drawn_at"`
	Username   string    `db:"username"`
	Payload    string    `db:"payload"`
}

type historyRow struct {
	Payload []byte `db:"payload"`
}

type notificationInsertModel struct {
	PublicID   string    `db:"public_id"`
	Repository string    `db:"repository"`
	DrawnAt    time.Time `db:"drawn_at"`
	Username   string    `db:"username"`
	Timezone   string    `db:"timezone"`
	Payload    string    `db:"payload"`
	Status     string    `db:"status"`
}

type notificationPayload struct {
	Repository string                          `json:"repository"`
	DrawnAt    time.Time                       `json:"drawn_at"`
	Username   string                          `json:"username"`
	Timezone   string                          `json:"timezone"`
	Buckets    map[string][]notificationIssue `json:"buckets"`
}

type notificationIssue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}
