package storage

import "context"

// Redelivered events share an event_id and are ignored.
const insertActivity = `
INSERT INTO activity (event_id, kind, actor_id, owner_id, transaction_id, batch_id, item_count, occurred_at, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (event_id) DO NOTHING
`

type InsertActivityParams struct {
	EventID       string
	Kind          string
	ActorID       int64
	OwnerID       int64
	TransactionID interface{}
	BatchID       interface{}
	ItemCount     int64
	OccurredAt    string
	RecordedAt    string
}

func (q *Queries) InsertActivity(ctx context.Context, arg InsertActivityParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertActivity,
		arg.EventID, arg.Kind, arg.ActorID, arg.OwnerID, arg.TransactionID, arg.BatchID,
		arg.ItemCount, arg.OccurredAt, arg.RecordedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listActivity = `
SELECT id, event_id, kind, actor_id, owner_id, transaction_id, batch_id, item_count, occurred_at, recorded_at
FROM activity
ORDER BY id DESC
LIMIT ? OFFSET ?
`

type ListActivityParams struct {
	Limit  int64
	Offset int64
}

func (q *Queries) ListActivity(ctx context.Context, arg ListActivityParams) ([]Activity, error) {
	rows, err := q.db.QueryContext(ctx, listActivity, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Activity
	for rows.Next() {
		var i Activity
		if err := rows.Scan(&i.ID, &i.EventID, &i.Kind, &i.ActorID, &i.OwnerID,
			&i.TransactionID, &i.BatchID, &i.ItemCount, &i.OccurredAt, &i.RecordedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countActivity = `
SELECT COUNT(*) FROM activity
`

func (q *Queries) CountActivity(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countActivity)
	var count int64
	err := row.Scan(&count)
	return count, err
}
