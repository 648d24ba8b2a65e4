package store

import "context"

// PopularityCounts returns, per book, the total times it has been borrowed
// plus the total reviews it has received. Books with neither appear with a
// zero count so the popularity generator can score the whole catalog.
func (s *Store) PopularityCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id,
			(SELECT COUNT(*) FROM borrow_records br WHERE br.book_id = b.id) +
			(SELECT COUNT(*) FROM reviews r WHERE r.book_id = b.id)
		FROM books b`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
