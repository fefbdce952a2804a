package memory

import "context"

type ResetRepository struct {
	db *DB
}

func NewResetRepository(db *DB) *ResetRepository {
	return &ResetRepository{db: db}
}

// ResetModule drops every unit record, the aggregate and the certificate of the pair.
func (r *ResetRepository) ResetModule(_ context.Context, userID, moduleID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for k := range r.db.lessons {
		if k.userID == userID && k.moduleID == moduleID {
			delete(r.db.lessons, k)
		}
	}

	key := pairKey{userID, moduleID}
	delete(r.db.progress, key)
	if c, ok := r.db.certificates[key]; ok {
		delete(r.db.codes, c.Code)
		delete(r.db.certificates, key)
	}

	return nil
}
